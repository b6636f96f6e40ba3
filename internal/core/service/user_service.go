package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// UserService administers accounts and lets agents manage their sub agents.
type UserService struct {
	users   ports.UserRepository
	modules ports.ModuleRepository
	logger  zerolog.Logger
	now     func() time.Time
}

func NewUserService(users ports.UserRepository, modules ports.ModuleRepository, logger zerolog.Logger) *UserService {
	return &UserService{users: users, modules: modules, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SetModulePermissions replaces the module permission set of userID.
func (s *UserService) SetModulePermissions(ctx context.Context, actor *domain.User, userID string, moduleIDs []string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(moduleIDs))
	for _, id := range moduleIDs {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		if _, err := s.modules.FindByID(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Invalid("module %q does not exist", id)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	user.ModulePermissions = ids
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Strs("modules", ids).Str("actor_id", actor.ID).Msg("module permissions updated")
	return user, nil
}

func (s *UserService) SetStatus(ctx context.Context, actor *domain.User, userID, status string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !domain.ValidUserStatus(status) {
		return nil, domain.Invalid("unknown user status %q", status)
	}
	if userID == actor.ID && status != domain.UserStatusActive {
		return nil, domain.Invalid("you cannot deactivate your own account")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("status", status).Str("actor_id", actor.ID).Msg("user status updated")
	return user, nil
}

// AddSubAgent promotes a customer to a sub agent supervised by actor.
func (s *UserService) AddSubAgent(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if err := requireAgent(actor); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleCustomer {
		return nil, domain.Invalid("only customers can become sub agents")
	}
	user.Role = domain.RoleSubAgent
	user.MasterAgentID = actor.ID
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("master_agent", actor.ID).Msg("sub agent added")
	return user, nil
}

// RemoveSubAgent turns a sub agent back into a customer. Agents may only
// release their own sub agents.
func (s *UserService) RemoveSubAgent(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor == nil || !actor.IsActive() || (actor.Role != domain.RoleAgent && !actor.IsUnrestricted()) {
		return nil, domain.Forbidden("agent access required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleSubAgent {
		return nil, domain.Invalid("user %q is not a sub agent", userID)
	}
	if !actor.IsUnrestricted() && user.MasterAgentID != actor.ID {
		return nil, domain.Forbidden("user %q is not your sub agent", userID)
	}
	user.Role = domain.RoleCustomer
	user.MasterAgentID = ""
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("actor_id", actor.ID).Msg("sub agent removed")
	return user, nil
}

func (s *UserService) ListSubAgents(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if err := requireAgent(actor); err != nil {
		return nil, err
	}
	return s.users.ListByMasterAgent(ctx, actor.ID)
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func requireAgent(actor *domain.User) error {
	if actor == nil || !actor.IsActive() || actor.Role != domain.RoleAgent {
		return domain.Forbidden("agent access required")
	}
	return nil
}
