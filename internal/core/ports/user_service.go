package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// UserService covers account administration and sub-agent management.
type UserService interface {
	SetModulePermissions(ctx context.Context, actor *domain.User, userID string, moduleIDs []string) (*domain.User, error)
	SetStatus(ctx context.Context, actor *domain.User, userID, status string) (*domain.User, error)
	AddSubAgent(ctx context.Context, actor *domain.User, userID string) (*domain.User, error)
	RemoveSubAgent(ctx context.Context, actor *domain.User, userID string) (*domain.User, error)
	ListSubAgents(ctx context.Context, actor *domain.User) ([]*domain.User, error)
}
