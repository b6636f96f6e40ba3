package service

import (
	"context"
	"fmt"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// PermissionService resolves module and application visibility per role.
// Anything it cannot classify sees nothing.
type PermissionService struct {
	users ports.UserRepository
}

func NewPermissionService(users ports.UserRepository) *PermissionService {
	return &PermissionService{users: users}
}

func (s *PermissionService) CanAccessModule(user *domain.User, moduleID string) bool {
	if user == nil || !user.IsActive() || !domain.ValidRole(user.Role) {
		return false
	}
	if user.IsUnrestricted() {
		return true
	}
	return user.HasModulePermission(moduleID)
}

// ModuleFilter translates module visibility into a repository filter.
func (s *PermissionService) ModuleFilter(user *domain.User) ports.ModuleFilter {
	if user != nil && user.IsActive() && user.IsUnrestricted() {
		return ports.ModuleFilter{}
	}
	ids := []string{}
	if user != nil && user.IsActive() && domain.ValidRole(user.Role) {
		ids = append(ids, user.ModulePermissions...)
	}
	return ports.ModuleFilter{IDs: ids}
}

func (s *PermissionService) ScopeApplications(ctx context.Context, user *domain.User) (domain.ApplicationScope, error) {
	if user == nil || !user.IsActive() {
		return domain.ApplicationScope{}, nil
	}
	switch user.Role {
	case domain.RoleAdmin, domain.RoleSuperuser:
		return domain.ApplicationScope{All: true}, nil
	case domain.RoleAgent:
		subs, err := s.users.ListByMasterAgent(ctx, user.ID)
		if err != nil {
			return domain.ApplicationScope{}, fmt.Errorf("list sub agents: %w", err)
		}
		ids := []string{user.ID}
		for _, sub := range subs {
			if sub.Role == domain.RoleSubAgent {
				ids = append(ids, sub.ID)
			}
		}
		return domain.ApplicationScope{AgentIDs: ids}, nil
	case domain.RoleSubAgent:
		return domain.ApplicationScope{AgentIDs: []string{user.ID}}, nil
	case domain.RoleCustomer:
		return domain.ApplicationScope{CustomerID: user.ID}, nil
	default:
		return domain.ApplicationScope{}, nil
	}
}

func (s *PermissionService) AuthorizeView(ctx context.Context, user *domain.User, app *domain.Application) error {
	scope, err := s.ScopeApplications(ctx, user)
	if err != nil {
		return err
	}
	if !scope.Allows(app) {
		return domain.Forbidden("application %s is outside your scope", app.ReferenceID)
	}
	return nil
}

func (s *PermissionService) AuthorizeWrite(ctx context.Context, user *domain.User, app *domain.Application) error {
	if user == nil || !user.IsStaff() {
		return domain.Forbidden("only staff may modify applications")
	}
	return s.AuthorizeView(ctx, user, app)
}
