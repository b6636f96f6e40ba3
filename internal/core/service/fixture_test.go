package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/domain"
)

// fakeClock advances by step on every reading so consecutive writes get
// distinct, increasing timestamps unless step is zero.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

// fixture wires every core service over one in-memory store.
type fixture struct {
	store    *memStore
	clock    *fakeClock
	users    *stubUserRepo
	modules  *stubModuleRepo
	products *stubProductRepo
	apps     *stubAppRepo
	remarks  *stubRemarkRepo
	notifs   *stubNotificationRepo
	tx       *stubTx

	perms    *PermissionService
	notifier *NotificationService
	registry *ApplicationService
	workflow *WorkflowService
	catalog  *CatalogService
	accounts *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		store:    store,
		clock:    &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Second},
		users:    &stubUserRepo{s: store},
		modules:  &stubModuleRepo{s: store},
		products: &stubProductRepo{s: store},
		apps:     &stubAppRepo{s: store, takenRefs: map[string]bool{}},
		remarks:  &stubRemarkRepo{s: store},
		notifs:   &stubNotificationRepo{s: store},
		tx:       &stubTx{store: store},
	}
	log := zerolog.Nop()

	f.perms = NewPermissionService(f.users)
	f.notifier = NewNotificationService(f.notifs, log)
	f.notifier.now = f.clock.now
	f.registry = NewApplicationService(ApplicationDeps{
		Applications:  f.apps,
		Remarks:       f.remarks,
		Notifications: f.notifs,
		Users:         f.users,
		Modules:       f.modules,
		Products:      f.products,
		Tx:            f.tx,
		Notifier:      f.notifier,
		Permissions:   f.perms,
	}, log, 3)
	f.registry.now = f.clock.now
	f.workflow = NewWorkflowService(f.apps, f.remarks, f.tx, f.notifier, f.perms, log)
	f.workflow.now = f.clock.now
	f.catalog = NewCatalogService(f.modules, f.products, f.users, f.tx, f.perms, log)
	f.catalog.now = f.clock.now
	f.accounts = NewUserService(f.users, f.modules, log)
	f.accounts.now = f.clock.now
	return f
}

// addUser stores an active user with the given role.
func (f *fixture) addUser(t *testing.T, name, role string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{
		Name:     name,
		Username: name,
		Email:    name + "@example.com",
		Role:     role,
		Status:   domain.UserStatusActive,
	})
	if err != nil {
		t.Fatalf("addUser(%s): %v", name, err)
	}
	return u
}

// addSubAgent stores an active sub agent supervised by master.
func (f *fixture) addSubAgent(t *testing.T, name string, master *domain.User) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{
		Name:          name,
		Username:      name,
		Email:         name + "@example.com",
		Role:          domain.RoleSubAgent,
		Status:        domain.UserStatusActive,
		MasterAgentID: master.ID,
	})
	if err != nil {
		t.Fatalf("addSubAgent(%s): %v", name, err)
	}
	return u
}

// addModule stores a module and a single product inside it.
func (f *fixture) addModule(t *testing.T, name string) (*domain.LoanModule, *domain.Product) {
	t.Helper()
	ctx := context.Background()
	m := &domain.LoanModule{Name: name, Slug: domain.Slugify(name), Status: domain.ModuleActive}
	if err := f.modules.Create(ctx, m); err != nil {
		t.Fatalf("addModule(%s): %v", name, err)
	}
	p := &domain.Product{
		ModuleID:    m.ID,
		Name:        name + " Basic",
		Slug:        domain.Slugify(name + " Basic"),
		MinimumLoan: 1000,
		MaximumLoan: 50000,
		Rates:       []float64{3.5},
		TenureYears: 5,
	}
	if err := f.products.Create(ctx, p); err != nil {
		t.Fatalf("addModule(%s) product: %v", name, err)
	}
	return m, p
}

// grant gives user access to module ids and returns the refreshed user.
func (f *fixture) grant(t *testing.T, user *domain.User, moduleIDs ...string) *domain.User {
	t.Helper()
	user.ModulePermissions = append(user.ModulePermissions, moduleIDs...)
	if err := f.users.Update(context.Background(), user); err != nil {
		t.Fatalf("grant: %v", err)
	}
	return user
}

// createApp opens an application for customer with actor as creator.
func (f *fixture) createApp(t *testing.T, actor, customer *domain.User, agentID string) *domain.Application {
	t.Helper()
	app, err := f.registry.Create(context.Background(), actor, createInput(customer.ID, agentID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return app
}

// stored returns the persisted state of the application with id.
func (f *fixture) stored(t *testing.T, id string) *domain.Application {
	t.Helper()
	app, err := f.apps.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return app
}

// inbox returns every notification addressed to userID, newest first.
func (f *fixture) inbox(t *testing.T, userID string) []*domain.Notification {
	t.Helper()
	items, err := f.notifs.ListByReceiver(context.Background(), userID, false, 0)
	if err != nil {
		t.Fatalf("ListByReceiver: %v", err)
	}
	return items
}

// sequentialRefs returns a reference generator yielding refs in order, then
// fresh distinct ids.
func sequentialRefs(refs ...string) func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		if n <= len(refs) {
			return refs[n-1], nil
		}
		return fmt.Sprintf("ZZZ-%06d", 100000+n), nil
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got %v", target, err)
	}
}
