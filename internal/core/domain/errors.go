package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the core wraps exactly one of these so
// the transport layer can map it without knowing the specific cause.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("access forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrApplicationNotFound  = fmt.Errorf("application %w", ErrNotFound)
	ErrRemarkNotFound       = fmt.Errorf("workflow remark %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrModuleNotFound       = fmt.Errorf("loan module %w", ErrNotFound)
	ErrProductNotFound      = fmt.Errorf("product %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrVerificationNotFound = fmt.Errorf("email verification %w", ErrNotFound)

	ErrInvalidStatus      = fmt.Errorf("%w: unknown application status", ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrValidation)
	ErrUserExists         = fmt.Errorf("%w: username or email already taken", ErrValidation)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired verification token", ErrValidation)
	ErrInvalidCode        = fmt.Errorf("%w: verification code is incorrect or has expired", ErrValidation)

	// ErrDuplicateReference is raised by the storage layer when the unique
	// reference_id constraint rejects an insert.
	ErrDuplicateReference = fmt.Errorf("%w: reference id already in use", ErrConflict)
	ErrReferenceExhausted = fmt.Errorf("%w: could not allocate a unique reference id", ErrConflict)
	ErrDuplicateSlug      = fmt.Errorf("%w: slug already in use", ErrConflict)
)

// Invalid builds a validation error carrying a user-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Forbidden builds an authorization error carrying a user-facing message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
