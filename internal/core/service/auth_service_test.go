package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

func newAuthHarness(t *testing.T) (*AuthService, *verificationHarness) {
	t.Helper()
	h := newVerificationHarness(t)
	return NewAuthService(h.users, h.svc, "secret", time.Hour, zerolog.Nop()), h
}

func registerInput(email, token string) ports.RegisterInput {
	return ports.RegisterInput{
		Name:              "Carol",
		Username:          "carol",
		Email:             email,
		Password:          "pass1234",
		VerificationToken: token,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, h := newAuthHarness(t)
	token := h.verifiedToken(t, "carol@example.com")

	user, err := svc.Register(context.Background(), registerInput("carol@example.com", token))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "pass1234" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass1234")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleCustomer || user.Status != domain.UserStatusActive {
		t.Fatalf("unexpected role/status: %s/%s", user.Role, user.Status)
	}
	if _, ok := h.store.records["carol@example.com"]; ok {
		t.Fatal("verification should be consumed")
	}

	// The token cannot be replayed.
	in := registerInput("carol@example.com", token)
	in.Username = "carol2"
	_, err = svc.Register(context.Background(), in)
	assertErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, h := newAuthHarness(t)
	token := h.verifiedToken(t, "carol@example.com")

	in := registerInput("carol@example.com", token)
	in.Password = "short"
	_, err := svc.Register(context.Background(), in)
	assertErrorIs(t, err, domain.ErrValidation)

	in = registerInput("carol@example.com", token)
	in.Username = ""
	_, err = svc.Register(context.Background(), in)
	assertErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Register(context.Background(), registerInput("mallory@example.com", token))
	assertErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Register(context.Background(), registerInput("carol@example.com", ""))
	assertErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, h := newAuthHarness(t)
	_, _ = h.users.Create(context.Background(), &domain.User{Username: "carol", Email: "old@example.com"})
	token := h.verifiedToken(t, "carol@example.com")

	_, err := svc.Register(context.Background(), registerInput("carol@example.com", token))
	assertErrorIs(t, err, domain.ErrUserExists)
}

func seedUser(t *testing.T, users *stubUserRepo, email, password, role, status string) *domain.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u, err := users.Create(context.Background(), &domain.User{
		Username:     email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, h := newAuthHarness(t)
	seeded := seedUser(t, h.users, "root@example.com", "s3cret", domain.RoleAdmin, domain.UserStatusActive)

	token, user, err := svc.Login(context.Background(), "Root@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user == nil || user.ID != seeded.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != domain.RoleAdmin || claims["sub"] != seeded.ID {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc, h := newAuthHarness(t)
	seedUser(t, h.users, "dave@example.com", "goodpass", domain.RoleCustomer, domain.UserStatusActive)
	seedUser(t, h.users, "ivy@example.com", "goodpass", domain.RoleAgent, domain.UserStatusInactive)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email should look like a bad password, got %v", err)
	}
	_, _, err := svc.Login(ctx, "ivy@example.com", "goodpass")
	assertErrorIs(t, err, domain.ErrForbidden)
}
