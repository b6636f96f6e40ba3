package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

const minPasswordLength = 8

// AuthService implements registration and login.
type AuthService struct {
	users     ports.UserRepository
	verifier  ports.VerificationService
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, verifier ports.VerificationService, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, verifier: verifier, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register creates an active customer for a pre-verified email address.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	if name == "" || username == "" || in.Password == "" {
		return nil, domain.Invalid("name, username and password are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.Invalid("password must be at least %d characters", minPasswordLength)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	verified, err := s.verifier.ValidateToken(ctx, in.VerificationToken)
	if err != nil {
		return nil, err
	}
	if verified != email {
		return nil, domain.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:              name,
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              domain.RoleCustomer,
		Status:            domain.UserStatusActive,
		ModulePermissions: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Consume(ctx, email); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to consume verification")
	}
	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("customer registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return "", nil, domain.Forbidden("account is %s", user.Status)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
