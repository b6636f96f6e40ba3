package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create stores a new user and returns it with its ID populated.
	// Returns domain.ErrUserExists when the username or email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListByMasterAgent returns the sub agents supervised by masterID.
	ListByMasterAgent(ctx context.Context, masterID string) ([]*domain.User, error)
	// ListByRoles returns every user holding one of roles.
	ListByRoles(ctx context.Context, roles ...string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// RemoveModulePermission strips moduleID from every user's permission set
	// and returns the number of users changed.
	RemoveModulePermission(ctx context.Context, moduleID string) (int64, error)
}
