package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
	"github.com/loanflow/origination/internal/pkg/metrics"
)

const (
	verificationPurpose = "email_verification"

	defaultCodeTTL          = time.Hour
	defaultMaxCodeAttempts  = 5
	verificationCodeDigits  = 6
	verificationMailSubject = "Your verification code"
)

// VerificationConfig tunes the email pre-verification flow.
type VerificationConfig struct {
	// Secret signs verification tokens.
	Secret      string
	CodeTTL     time.Duration
	MaxAttempts int
}

// VerificationService issues one-time codes by mail and exchanges a correct
// code for a signed token that registration redeems.
type VerificationService struct {
	store       ports.VerificationStore
	users       ports.UserRepository
	mail        ports.MailQueue
	secret      []byte
	codeTTL     time.Duration
	maxAttempts int
	logger      zerolog.Logger
	rand        io.Reader
	now         func() time.Time
}

func NewVerificationService(store ports.VerificationStore, users ports.UserRepository, mail ports.MailQueue, cfg VerificationConfig, logger zerolog.Logger) *VerificationService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = defaultCodeTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxCodeAttempts
	}
	return &VerificationService{
		store:       store,
		users:       users,
		mail:        mail,
		secret:      []byte(cfg.Secret),
		codeTTL:     cfg.CodeTTL,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
		rand:        rand.Reader,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SendCode replaces any pending verification for email with a fresh code.
func (s *VerificationService) SendCode(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	v := &domain.EmailVerification{
		ID:        uuid.NewString(),
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.codeTTL),
	}
	if err := s.store.Save(ctx, v); err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	s.mail.Enqueue(ports.Mail{
		To:      email,
		Subject: verificationMailSubject,
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes())),
	})
	metrics.VerificationsTotal.WithLabelValues("sent").Inc()
	s.logger.Info().Str("email", email).Str("verification_id", v.ID).Msg("verification code sent")
	return nil
}

// VerifyCode marks the pending verification as verified and returns a token
// bound to it. Too many wrong codes drop the verification.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	v, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCode
		}
		return "", err
	}
	if v.Expired(s.now()) {
		if err := s.store.Delete(ctx, email); err != nil {
			return "", fmt.Errorf("drop expired verification: %w", err)
		}
		return "", domain.ErrInvalidCode
	}

	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(strings.TrimSpace(code))) != 1 {
		v.Attempts++
		if v.Attempts >= s.maxAttempts {
			metrics.VerificationsTotal.WithLabelValues("exhausted").Inc()
			if err := s.store.Delete(ctx, email); err != nil {
				return "", err
			}
			s.logger.Warn().Str("email", email).Msg("verification attempts exhausted")
			return "", domain.ErrInvalidCode
		}
		metrics.VerificationsTotal.WithLabelValues("rejected").Inc()
		if err := s.store.Save(ctx, v); err != nil {
			return "", err
		}
		return "", domain.ErrInvalidCode
	}

	v.Verified = true
	if err := s.store.Save(ctx, v); err != nil {
		return "", fmt.Errorf("save verification: %w", err)
	}
	claims := jwt.MapClaims{
		"purpose": verificationPurpose,
		"sub":     email,
		"jti":     v.ID,
		"iat":     s.now().Unix(),
		"exp":     v.ExpiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	metrics.VerificationsTotal.WithLabelValues("verified").Inc()
	return token, nil
}

func (s *VerificationService) Cancel(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, email)
}

// ValidateToken accepts a token only while the verification it was issued
// for is still stored and verified.
func (s *VerificationService) ValidateToken(ctx context.Context, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != verificationPurpose {
		return "", domain.ErrInvalidToken
	}
	email, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if email == "" || jti == "" {
		return "", domain.ErrInvalidToken
	}

	v, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}
	if v.ID != jti || !v.Verified || v.Expired(s.now()) {
		return "", domain.ErrInvalidToken
	}
	return email, nil
}

func (s *VerificationService) Consume(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, email)
}

func (s *VerificationService) newCode() (string, error) {
	limit := big.NewInt(1)
	for range verificationCodeDigits {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(s.rand, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n.Int64()), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalid("a valid email address is required")
	}
	return email, nil
}
