package ports

import "context"

// VerificationService proves ownership of an email address before registration.
type VerificationService interface {
	// SendCode issues a fresh code for email and queues it for delivery.
	SendCode(ctx context.Context, email string) error
	// VerifyCode checks the code and returns a signed, short-lived token bound
	// to the stored verification record.
	VerifyCode(ctx context.Context, email, code string) (string, error)
	Cancel(ctx context.Context, email string) error
	// ValidateToken returns the verified email the token was issued for.
	ValidateToken(ctx context.Context, token string) (string, error)
	// Consume drops the verification record once it has been used.
	Consume(ctx context.Context, email string) error
}
