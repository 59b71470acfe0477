package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Code
	}{
		{name: "not found", err: fmt.Errorf("get: %w", gorm.ErrRecordNotFound), want: errs.CodeNotFound},
		{name: "pg unique", err: &pgconn.PgError{Code: "23505"}, want: errs.CodeConflict},
		{name: "pg fk", err: &pgconn.PgError{Code: "23503"}, want: errs.CodeValidation},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: ksa.reference"), want: errs.CodeConflict},
		{name: "other", err: errors.New("boom"), want: errs.CodeInternal},
		{name: "already coded", err: errs.Forbidden("x"), want: errs.CodeForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errs.CodeOf(Map("op", tc.err)); got != tc.want {
				t.Fatalf("want=%s got=%s", tc.want, got)
			}
		})
	}
	if Map("op", nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}
