package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// VerificationStore keeps pending email verifications until they expire.
type VerificationStore interface {
	// Save replaces any record for the same email.
	Save(ctx context.Context, v *domain.EmailVerification) error
	// Find returns domain.ErrVerificationNotFound for unknown or expired emails.
	Find(ctx context.Context, email string) (*domain.EmailVerification, error)
	Delete(ctx context.Context, email string) error
}
