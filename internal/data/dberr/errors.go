package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
)

// Map translates driver and GORM failures into service error codes. Errors
// that already carry a code pass through untouched.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.CodeOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.New(errs.CodeNotFound, op, "Not found.", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.New(errs.CodeConflict, op, "Already exists.", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.New(errs.CodeInternal, op, "Request cancelled.", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return errs.New(errs.CodeConflict, op, "Already exists.", err) // unique_violation
		case "23503":
			return errs.New(errs.CodeValidation, op, "Referenced record does not exist.", err) // foreign_key_violation
		}
	}
	if IsUniqueViolation(err) {
		return errs.New(errs.CodeConflict, op, "Already exists.", err)
	}
	return errs.New(errs.CodeInternal, op, "", err)
}

// IsUniqueViolation recognizes unique constraint failures from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}
