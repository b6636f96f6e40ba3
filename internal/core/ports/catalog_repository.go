package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// ModuleFilter narrows a module listing. A nil IDs slice means no restriction;
// an empty non-nil slice matches nothing.
type ModuleFilter struct {
	IDs []string
}

// ModuleRepository defines persistence operations for loan modules.
type ModuleRepository interface {
	// Create returns domain.ErrDuplicateSlug when the slug is taken.
	Create(ctx context.Context, m *domain.LoanModule) error
	FindByID(ctx context.Context, id string) (*domain.LoanModule, error)
	FindBySlug(ctx context.Context, slug string) (*domain.LoanModule, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter ModuleFilter) ([]*domain.LoanModule, error)
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	SlugExists(ctx context.Context, moduleID, slug string) (bool, error)
	ListByModule(ctx context.Context, moduleID string) ([]*domain.Product, error)
	DeleteByModule(ctx context.Context, moduleID string) (int64, error)
}
