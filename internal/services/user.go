package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/data/dberr"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/dbctx"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

type UserService interface {
	// EnsureUser provisions or refreshes the local row for a verified token.
	EnsureUser(ctx context.Context, id uuid.UUID, email, firstName, lastName string) (*types.User, error)
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	db    *gorm.DB
	log   *logger.Logger
	users repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, users repos.UserRepo) UserService {
	return &userService{
		db:    db,
		log:   baseLog.With("service", "UserService"),
		users: users,
	}
}

func (s *userService) EnsureUser(ctx context.Context, id uuid.UUID, email, firstName, lastName string) (*types.User, error) {
	const op = "user.ensure"
	email = strings.ToLower(strings.TrimSpace(email))
	if id == uuid.Nil || email == "" {
		return nil, errs.Validation(op, "token is missing the subject or email claim.")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.users.GetByID(dbc, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if existing != nil && existing.Email == email && existing.FirstName == firstName && existing.LastName == lastName {
		return existing, nil
	}
	u, err := s.users.Upsert(dbc, &types.User{
		ID:        id,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if existing == nil {
		s.log.Info("provisioned user", "user_id", id)
	}
	return u, nil
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	const op = "user.me"
	id, err := callerID(ctx, op)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if u == nil {
		return nil, notFound(op)
	}
	return u, nil
}
