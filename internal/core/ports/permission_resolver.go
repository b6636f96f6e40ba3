package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// PermissionResolver decides what a user may see and change.
type PermissionResolver interface {
	CanAccessModule(user *domain.User, moduleID string) bool
	// ModuleFilter is CanAccessModule in repository form.
	ModuleFilter(user *domain.User) ModuleFilter
	ScopeApplications(ctx context.Context, user *domain.User) (domain.ApplicationScope, error)
	// AuthorizeView and AuthorizeWrite return an error wrapping
	// domain.ErrForbidden when app is outside the user's reach.
	AuthorizeView(ctx context.Context, user *domain.User, app *domain.Application) error
	AuthorizeWrite(ctx context.Context, user *domain.User, app *domain.Application) error
}
