package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

type CreateModuleInput struct {
	Name        string
	Description string
	Status      string
	Logo        string
}

type CreateProductInput struct {
	Name        string
	Description string
	MinimumLoan float64
	MaximumLoan float64
	Rates       []float64
	TenureYears int
}

// ModuleSummary is a module with the figures shown on the module list.
type ModuleSummary struct {
	Module       *domain.LoanModule
	ProductCount int
	RateRange    string
	TenureRange  string
}

// CatalogService manages loan modules and their products.
type CatalogService interface {
	CreateModule(ctx context.Context, actor *domain.User, in CreateModuleInput) (*domain.LoanModule, error)
	ListModules(ctx context.Context, actor *domain.User) ([]ModuleSummary, error)
	GetModule(ctx context.Context, actor *domain.User, slug string) (*ModuleSummary, error)
	DeleteModule(ctx context.Context, actor *domain.User, slug string) error
	CreateProduct(ctx context.Context, actor *domain.User, moduleSlug string, in CreateProductInput) (*domain.Product, error)
	ListProducts(ctx context.Context, actor *domain.User, moduleSlug string) ([]*domain.Product, error)
}
