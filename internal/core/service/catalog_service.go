package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// maxSlugSuffix bounds the search for a free slug ("name-2", "name-3", ...).
const maxSlugSuffix = 100

// CatalogService manages loan modules and products.
type CatalogService struct {
	modules  ports.ModuleRepository
	products ports.ProductRepository
	users    ports.UserRepository
	tx       ports.TxManager
	perms    ports.PermissionResolver
	logger   zerolog.Logger
	now      func() time.Time
}

func NewCatalogService(
	modules ports.ModuleRepository,
	products ports.ProductRepository,
	users ports.UserRepository,
	tx ports.TxManager,
	perms ports.PermissionResolver,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		modules:  modules,
		products: products,
		users:    users,
		tx:       tx,
		perms:    perms,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) CreateModule(ctx context.Context, actor *domain.User, in ports.CreateModuleInput) (*domain.LoanModule, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("module name is required")
	}
	status := in.Status
	if status == "" {
		status = domain.ModuleActive
	}
	if status != domain.ModuleActive && status != domain.ModuleInactive {
		return nil, domain.Invalid("module status must be %s or %s", domain.ModuleActive, domain.ModuleInactive)
	}

	slug, err := uniqueSlug(name, func(candidate string) (bool, error) {
		return s.modules.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	m := &domain.LoanModule{
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Logo:        in.Logo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.modules.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	s.logger.Info().Str("module_id", m.ID).Str("slug", m.Slug).Msg("loan module created")
	return m, nil
}

// ListModules returns the modules visible to actor with their product figures.
func (s *CatalogService) ListModules(ctx context.Context, actor *domain.User) ([]ports.ModuleSummary, error) {
	filter := s.perms.ModuleFilter(actor)
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []ports.ModuleSummary{}, nil
	}
	modules, err := s.modules.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	out := make([]ports.ModuleSummary, 0, len(modules))
	for _, m := range modules {
		summary, err := s.summarize(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

func (s *CatalogService) GetModule(ctx context.Context, actor *domain.User, slug string) (*ports.ModuleSummary, error) {
	m, err := s.visible(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, m)
}

// DeleteModule removes a module, its products and every permission granting it.
func (s *CatalogService) DeleteModule(ctx context.Context, actor *domain.User, slug string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	m, err := s.modules.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	var products, users int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if products, err = s.products.DeleteByModule(ctx, m.ID); err != nil {
			return err
		}
		if users, err = s.users.RemoveModulePermission(ctx, m.ID); err != nil {
			return err
		}
		return s.modules.Delete(ctx, m.ID)
	})
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	s.logger.Info().Str("slug", m.Slug).Int64("products", products).Int64("users", users).Msg("loan module deleted")
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor *domain.User, moduleSlug string, in ports.CreateProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	m, err := s.modules.FindBySlug(ctx, moduleSlug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	p := &domain.Product{
		ModuleID:    m.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		MinimumLoan: in.MinimumLoan,
		MaximumLoan: in.MaximumLoan,
		Rates:       in.Rates,
		TenureYears: in.TenureYears,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Slug, err = uniqueSlug(p.Name, func(candidate string) (bool, error) {
		return s.products.SlugExists(ctx, m.ID, candidate)
	})
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info().Str("module", m.Slug).Str("product", p.Slug).Msg("product created")
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, actor *domain.User, moduleSlug string) ([]*domain.Product, error) {
	m, err := s.visible(ctx, actor, moduleSlug)
	if err != nil {
		return nil, err
	}
	return s.products.ListByModule(ctx, m.ID)
}

func (s *CatalogService) visible(ctx context.Context, actor *domain.User, slug string) (*domain.LoanModule, error) {
	m, err := s.modules.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanAccessModule(actor, m.ID) {
		return nil, domain.Forbidden("module %s is not available to you", m.Slug)
	}
	return m, nil
}

func (s *CatalogService) summarize(ctx context.Context, m *domain.LoanModule) (*ports.ModuleSummary, error) {
	products, err := s.products.ListByModule(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &ports.ModuleSummary{
		Module:       m,
		ProductCount: len(products),
		RateRange:    domain.RateRange(products),
		TenureRange:  domain.TenureRange(products),
	}, nil
}

// uniqueSlug slugifies name and appends the first free numeric suffix.
func uniqueSlug(name string, exists func(string) (bool, error)) (string, error) {
	base := domain.Slugify(name)
	if base == "" {
		return "", domain.Invalid("name must contain letters or digits")
	}
	for i := 1; i <= maxSlugSuffix; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.ErrDuplicateSlug
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || !actor.IsActive() || !actor.IsUnrestricted() {
		return domain.Forbidden("admin access required")
	}
	return nil
}
