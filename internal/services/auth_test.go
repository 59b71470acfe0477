package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/data/repos"
	"github.com/adlnet/edlm-portal-backend/internal/data/repos/testutil"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
)

func newTestAuth(t *testing.T, secret string) (AuthService, UserService) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	users := NewUserService(db, log, repos.NewUserRepo(db, log))
	return NewAuthService(log, users, secret), users
}

func TestSetContextFromTokenProvisionsUser(t *testing.T) {
	auth, users := newTestAuth(t, "s3cret")
	id := uuid.New()
	tok, err := auth.IssueToken(id, "Ada@Example.mil", "Ada", "Lovelace", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	ctx, err := auth.SetContextFromToken(testutil.Ctx().Ctx, tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != id {
		t.Fatalf("request data: want user=%s got=%+v", id, rd)
	}
	if rd.Email != "ada@example.mil" {
		t.Fatalf("email: want=%q got=%q", "ada@example.mil", rd.Email)
	}

	me, err := users.GetMe(ctx)
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.FirstName != "Ada" || me.LastName != "Lovelace" {
		t.Fatalf("names: got=%q %q", me.FirstName, me.LastName)
	}
}

func TestSetContextFromTokenRejects(t *testing.T) {
	auth, _ := newTestAuth(t, "s3cret")
	other, _ := newTestAuth(t, "other")
	id := uuid.New()

	wrongKey, _ := other.IssueToken(id, "a@example.mil", "", "", time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Email: "a@example.mil",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("s3cret"))
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Email: "a@example.mil",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Email:            "a@example.mil",
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
	}).SignedString([]byte("s3cret"))
	noEmail, _ := auth.IssueToken(id, "", "", "", time.Minute)

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"wrong key":  wrongKey,
		"no subject": noSubject,
		"expired":    expired,
		"no expiry":  noExpiry,
		"no email":   noEmail,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			ctx, err := auth.SetContextFromToken(testutil.Ctx().Ctx, tok)
			if err == nil {
				t.Fatalf("want error")
			}
			if rd := ctxutil.GetRequestData(ctx); rd != nil {
				t.Fatalf("request data must not be attached, got=%+v", rd)
			}
		})
	}
}
