package service

import (
	"context"
	"testing"

	"github.com/loanflow/origination/internal/core/domain"
)

func TestPermissionService_CanAccessModule(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	agent := f.addUser(t, "alice", domain.RoleAgent)
	customer := f.addUser(t, "carol", domain.RoleCustomer)
	f.grant(t, agent, "m1")

	tests := []struct {
		name string
		user *domain.User
		mod  string
		want bool
	}{
		{"admin sees everything", admin, "m2", true},
		{"agent with permission", agent, "m1", true},
		{"agent without permission", agent, "m2", false},
		{"empty permission set sees nothing", customer, "m1", false},
		{"nil user", nil, "m1", false},
		{"unknown role", &domain.User{Role: "auditor", Status: domain.UserStatusActive, ModulePermissions: []string{"m1"}}, "m1", false},
		{"inactive admin", &domain.User{Role: domain.RoleAdmin, Status: domain.UserStatusInactive}, "m1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.perms.CanAccessModule(tt.user, tt.mod); got != tt.want {
				t.Errorf("CanAccessModule = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermissionService_ModuleFilter(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	customer := f.addUser(t, "carol", domain.RoleCustomer)

	if got := f.perms.ModuleFilter(admin); got.IDs != nil {
		t.Errorf("admin filter should be unrestricted, got %v", got.IDs)
	}
	got := f.perms.ModuleFilter(customer)
	if got.IDs == nil || len(got.IDs) != 0 {
		t.Errorf("empty permission set should match nothing, got %#v", got.IDs)
	}
}

func TestPermissionService_ScopeApplications(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "root", domain.RoleAdmin)
	alice := f.addUser(t, "alice", domain.RoleAgent)
	sam := f.addSubAgent(t, "sam", alice)
	tim := f.addSubAgent(t, "tim", sam)
	customer := f.addUser(t, "carol", domain.RoleCustomer)
	ctx := context.Background()

	scope, err := f.perms.ScopeApplications(ctx, admin)
	if err != nil || !scope.All {
		t.Fatalf("admin scope = %+v, %v", scope, err)
	}

	scope, _ = f.perms.ScopeApplications(ctx, alice)
	if len(scope.AgentIDs) != 2 || scope.AgentIDs[0] != alice.ID || scope.AgentIDs[1] != sam.ID {
		t.Errorf("agent scope = %v, want own id and direct sub agents only", scope.AgentIDs)
	}
	if scope.Allows(&domain.Application{AgentID: tim.ID}) {
		t.Error("sub agents of sub agents are out of scope")
	}

	scope, _ = f.perms.ScopeApplications(ctx, sam)
	if len(scope.AgentIDs) != 1 || scope.AgentIDs[0] != sam.ID {
		t.Errorf("sub agent scope = %v", scope.AgentIDs)
	}
	if scope.Allows(&domain.Application{AgentID: alice.ID}) {
		t.Error("sub agent must not see the master's applications")
	}

	scope, _ = f.perms.ScopeApplications(ctx, customer)
	if scope.CustomerID != customer.ID || len(scope.AgentIDs) != 0 {
		t.Errorf("customer scope = %+v", scope)
	}

	scope, _ = f.perms.ScopeApplications(ctx, &domain.User{ID: "x", Role: "auditor", Status: domain.UserStatusActive})
	if !scope.Empty() {
		t.Errorf("unknown role scope should be empty, got %+v", scope)
	}
}

func TestPermissionService_AuthorizeWrite_CustomerReadOnly(t *testing.T) {
	f := newFixture(t)
	customer := f.addUser(t, "carol", domain.RoleCustomer)
	app := &domain.Application{ReferenceID: "ABC-123456", CustomerID: customer.ID}
	ctx := context.Background()

	if err := f.perms.AuthorizeView(ctx, customer, app); err != nil {
		t.Fatalf("AuthorizeView: %v", err)
	}
	assertErrorIs(t, f.perms.AuthorizeWrite(ctx, customer, app), domain.ErrForbidden)
}
