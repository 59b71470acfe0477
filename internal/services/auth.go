package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
)

// JWTClaims is the identity token the portal front end forwards. The subject
// is the portal user id.
type JWTClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SetContextFromToken verifies tokenString, provisions the user and
	// returns ctx carrying the caller's RequestData.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// IssueToken signs claims for a user. Used by local tooling and tests.
	IssueToken(userID uuid.UUID, email, firstName, lastName string, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	users        UserService
	jwtSecretKey []byte
	leeway       time.Duration
}

func NewAuthService(baseLog *logger.Logger, users UserService, jwtSecretKey string) AuthService {
	return &authService{
		log:          baseLog.With("service", "AuthService"),
		users:        users,
		jwtSecretKey: []byte(jwtSecretKey),
		leeway:       30 * time.Second,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(as.leeway),
		jwt.WithExpirationRequired(),
	)
	claims := &JWTClaims{}
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	u, err := as.users.EnsureUser(ctx, userID, claims.Email, claims.GivenName, claims.FamilyName)
	if err != nil {
		as.log.Warn("user provisioning failed", "user_id", userID, "error", err)
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}), nil
}

func (as *authService) IssueToken(userID uuid.UUID, email, firstName, lastName string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := JWTClaims{
		Email:      email,
		GivenName:  firstName,
		FamilyName: lastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
}
