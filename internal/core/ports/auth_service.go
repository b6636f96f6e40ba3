package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// RegisterInput carries a self-service customer registration.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	// VerificationToken is the signed token returned by VerificationService.VerifyCode.
	VerificationToken string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
