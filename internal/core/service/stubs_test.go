package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
//
// The stubs share one store so the stub transaction manager can snapshot and
// restore every collection at once, mirroring a Mongo transaction abort.
// ---------------------------------------------------------------------------

type memStore struct {
	seq           int
	users         map[string]*domain.User
	modules       map[string]*domain.LoanModule
	products      map[string]*domain.Product
	apps          map[string]*domain.Application
	remarks       map[string]*domain.WorkflowRemark
	notifications map[string]*domain.Notification
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*domain.User{},
		modules:       map[string]*domain.LoanModule{},
		products:      map[string]*domain.Product{},
		apps:          map[string]*domain.Application{},
		remarks:       map[string]*domain.WorkflowRemark{},
		notifications: map[string]*domain.Notification{},
	}
}

// nextID returns zero-padded ids so lexical order follows allocation order.
func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("%06d", m.seq)
}

func cloneMap[T any](src map[string]*T) map[string]*T {
	out := make(map[string]*T, len(src))
	for k, v := range src {
		c := *v
		out[k] = &c
	}
	return out
}

func (m *memStore) snapshot() *memStore {
	return &memStore{
		seq:           m.seq,
		users:         cloneMap(m.users),
		modules:       cloneMap(m.modules),
		products:      cloneMap(m.products),
		apps:          cloneMap(m.apps),
		remarks:       cloneMap(m.remarks),
		notifications: cloneMap(m.notifications),
	}
}

func (m *memStore) restore(s *memStore) {
	m.users, m.modules, m.products = s.users, s.modules, s.products
	m.apps, m.remarks, m.notifications = s.apps, s.remarks, s.notifications
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

type stubTx struct {
	store *memStore
	calls int
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct{ s *memStore }

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range r.s.users {
		if existing.Username == u.Username || (u.Email != "" && existing.Email == u.Email) {
			return nil, domain.ErrUserExists
		}
	}
	c := *u
	if c.ID == "" {
		c.ID = r.s.nextID()
	}
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ListByMasterAgent(_ context.Context, masterID string) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range r.s.users {
		if u.MasterAgentID == masterID {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) ListByRoles(_ context.Context, roles ...string) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range r.s.users {
		if slices.Contains(roles, u.Role) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *stubUserRepo) RemoveModulePermission(_ context.Context, moduleID string) (int64, error) {
	var n int64
	for _, u := range r.s.users {
		if i := slices.Index(u.ModulePermissions, moduleID); i >= 0 {
			u.ModulePermissions = slices.Delete(slices.Clone(u.ModulePermissions), i, i+1)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type stubModuleRepo struct{ s *memStore }

func (r *stubModuleRepo) Create(_ context.Context, m *domain.LoanModule) error {
	for _, existing := range r.s.modules {
		if existing.Slug == m.Slug {
			return domain.ErrDuplicateSlug
		}
	}
	if m.ID == "" {
		m.ID = r.s.nextID()
	}
	c := *m
	r.s.modules[m.ID] = &c
	return nil
}

func (r *stubModuleRepo) FindByID(_ context.Context, id string) (*domain.LoanModule, error) {
	m, ok := r.s.modules[id]
	if !ok {
		return nil, domain.ErrModuleNotFound
	}
	c := *m
	return &c, nil
}

func (r *stubModuleRepo) FindBySlug(_ context.Context, slug string) (*domain.LoanModule, error) {
	for _, m := range r.s.modules {
		if m.Slug == slug {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrModuleNotFound
}

func (r *stubModuleRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, m := range r.s.modules {
		if m.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubModuleRepo) List(_ context.Context, f ports.ModuleFilter) ([]*domain.LoanModule, error) {
	out := []*domain.LoanModule{}
	for _, m := range r.s.modules {
		if f.IDs != nil && !slices.Contains(f.IDs, m.ID) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubModuleRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.modules[id]; !ok {
		return domain.ErrModuleNotFound
	}
	delete(r.s.modules, id)
	return nil
}

type stubProductRepo struct{ s *memStore }

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = r.s.nextID()
	}
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (r *stubProductRepo) SlugExists(_ context.Context, moduleID, slug string) (bool, error) {
	for _, p := range r.s.products {
		if p.ModuleID == moduleID && p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductRepo) ListByModule(_ context.Context, moduleID string) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range r.s.products {
		if p.ModuleID == moduleID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) DeleteByModule(_ context.Context, moduleID string) (int64, error) {
	var n int64
	for id, p := range r.s.products {
		if p.ModuleID == moduleID {
			delete(r.s.products, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Applications
// ---------------------------------------------------------------------------

type stubAppRepo struct {
	s *memStore
	// takenRefs makes Create fail with ErrDuplicateReference for these ids
	// even though nothing is stored under them.
	takenRefs map[string]bool
	createErr error
	creates   int
}

func (r *stubAppRepo) Create(_ context.Context, a *domain.Application) error {
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if r.takenRefs[a.ReferenceID] {
		return domain.ErrDuplicateReference
	}
	for _, existing := range r.s.apps {
		if existing.ReferenceID == a.ReferenceID {
			return domain.ErrDuplicateReference
		}
	}
	if a.ID == "" {
		a.ID = r.s.nextID()
	}
	c := *a
	r.s.apps[a.ID] = &c
	return nil
}

func (r *stubAppRepo) FindByID(_ context.Context, id string) (*domain.Application, error) {
	a, ok := r.s.apps[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	c := *a
	return &c, nil
}

func (r *stubAppRepo) FindByReference(_ context.Context, ref string) (*domain.Application, error) {
	for _, a := range r.s.apps {
		if a.ReferenceID == ref {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrApplicationNotFound
}

func (r *stubAppRepo) Update(_ context.Context, a *domain.Application) error {
	if _, ok := r.s.apps[a.ID]; !ok {
		return domain.ErrApplicationNotFound
	}
	c := *a
	r.s.apps[a.ID] = &c
	return nil
}

func (r *stubAppRepo) UpdateStatus(_ context.Context, id string, status domain.ApplicationStatus) error {
	a, ok := r.s.apps[id]
	if !ok {
		return domain.ErrApplicationNotFound
	}
	a.Status = status
	return nil
}

func (r *stubAppRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.apps[id]; !ok {
		return domain.ErrApplicationNotFound
	}
	delete(r.s.apps, id)
	return nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubAppRepo) List(_ context.Context, f ports.ListApplicationsFilter) ([]*domain.Application, int64, error) {
	matched := []*domain.Application{}
	for _, a := range r.s.apps {
		if !f.Scope.Allows(a) {
			continue
		}
		if f.ModuleID != "" && a.ModuleID != f.ModuleID {
			continue
		}
		if f.Status != "" && string(a.Status) != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(a.ReferenceID), strings.ToLower(f.Search)) {
			continue
		}
		c := *a
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.Application{}, total, nil
	}
	end := min(skip+f.Limit, len(matched))
	return matched[skip:end], total, nil
}

// Stats mirrors the Mongo aggregation over the in-memory store.
func (r *stubAppRepo) Stats(_ context.Context, q ports.StatsQuery) (*ports.ApplicationStats, error) {
	out := &ports.ApplicationStats{ModuleCounts: []ports.ModuleCount{}}
	customers := map[string]time.Time{}
	modules := map[string]*ports.ModuleCount{}
	for _, a := range r.s.apps {
		if !q.Scope.Allows(a) {
			continue
		}
		inWeek := !a.CreatedAt.Before(q.WeekStart)
		out.Total++
		if inWeek {
			out.Week++
		}
		if a.Status.Open() {
			out.Open++
			if inWeek {
				out.WeekOpen++
			}
			if a.Status != domain.StatusNew {
				out.InProgress++
			}
		}
		switch a.Status {
		case domain.StatusApproved, domain.StatusDisbursed:
			out.Approved++
		case domain.StatusRejected:
			out.Rejected++
		}
		if a.Status == domain.StatusDisbursed {
			var amount float64
			if a.AmountDisbursed != nil {
				amount = *a.AmountDisbursed
			}
			on := a.CreatedAt
			if a.DateDisbursed != nil {
				on = *a.DateDisbursed
			}
			out.Disbursed += amount
			if !on.Before(q.WeekStart) {
				out.WeekDisbursed += amount
			}
			if !on.Before(q.LastYearStart) && on.Before(q.YearStart) {
				out.LastYearDisbursed += amount
			}
			if on.Year() == q.YearStart.Year() {
				out.MonthlyDisbursed[on.Month()-1] += amount
			}
		}
		if latest, ok := customers[a.CustomerID]; !ok || a.CreatedAt.After(latest) {
			customers[a.CustomerID] = a.CreatedAt
		}
		mc, ok := modules[a.ModuleID]
		if !ok {
			mc = &ports.ModuleCount{ModuleID: a.ModuleID}
			modules[a.ModuleID] = mc
		}
		mc.Total++
		if inWeek {
			mc.Week++
		}
	}
	for _, latest := range customers {
		out.Customers++
		if !latest.Before(q.WeekStart) {
			out.WeekCustomers++
		}
	}
	for _, mc := range modules {
		out.ModuleCounts = append(out.ModuleCounts, *mc)
	}
	sort.Slice(out.ModuleCounts, func(i, j int) bool {
		a, b := out.ModuleCounts[i], out.ModuleCounts[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.ModuleID < b.ModuleID
	})
	if q.TopModules > 0 && len(out.ModuleCounts) > q.TopModules {
		out.ModuleCounts = out.ModuleCounts[:q.TopModules]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Remarks
// ---------------------------------------------------------------------------

type stubRemarkRepo struct{ s *memStore }

func (r *stubRemarkRepo) Create(_ context.Context, rm *domain.WorkflowRemark) error {
	if rm.ID == "" {
		rm.ID = r.s.nextID()
	}
	c := *rm
	r.s.remarks[rm.ID] = &c
	return nil
}

func (r *stubRemarkRepo) FindByID(_ context.Context, id string) (*domain.WorkflowRemark, error) {
	rm, ok := r.s.remarks[id]
	if !ok {
		return nil, domain.ErrRemarkNotFound
	}
	c := *rm
	return &c, nil
}

func (r *stubRemarkRepo) Update(_ context.Context, rm *domain.WorkflowRemark) error {
	if _, ok := r.s.remarks[rm.ID]; !ok {
		return domain.ErrRemarkNotFound
	}
	c := *rm
	r.s.remarks[rm.ID] = &c
	return nil
}

func (r *stubRemarkRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.remarks[id]; !ok {
		return domain.ErrRemarkNotFound
	}
	delete(r.s.remarks, id)
	return nil
}

func (r *stubRemarkRepo) ListByApplication(_ context.Context, appID string) ([]*domain.WorkflowRemark, error) {
	out := []*domain.WorkflowRemark{}
	for _, rm := range r.s.remarks {
		if rm.ApplicationID == appID {
			c := *rm
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].After(out[i]) })
	return out, nil
}

func (r *stubRemarkRepo) FindLatest(ctx context.Context, appID string) (*domain.WorkflowRemark, error) {
	all, _ := r.ListByApplication(ctx, appID)
	return domain.LatestRemark(all), nil
}

func (r *stubRemarkRepo) DeleteByApplication(_ context.Context, appID string) (int64, error) {
	var n int64
	for id, rm := range r.s.remarks {
		if rm.ApplicationID == appID {
			delete(r.s.remarks, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

type stubNotificationRepo struct {
	s         *memStore
	createErr error
}

func (r *stubNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	if n.ID == "" {
		n.ID = r.s.nextID()
	}
	c := *n
	r.s.notifications[n.ID] = &c
	return nil
}

func (r *stubNotificationRepo) FindByID(_ context.Context, id string) (*domain.Notification, error) {
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	c := *n
	return &c, nil
}

func (r *stubNotificationRepo) ListByReceiver(_ context.Context, receiverID string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	out := []*domain.Notification{}
	for _, n := range r.s.notifications {
		if n.ReceiverID != receiverID || (unreadOnly && n.IsRead()) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, receiverID string) (int64, error) {
	var n int64
	for _, item := range r.s.notifications {
		if item.ReceiverID == receiverID && !item.IsRead() {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	n, ok := r.s.notifications[id]
	if !ok {
		return domain.ErrNotificationNotFound
	}
	n.Status = domain.NotificationRead
	n.ReadAt = &at
	return nil
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, receiverID string, at time.Time) (int64, error) {
	var count int64
	for _, n := range r.s.notifications {
		if n.ReceiverID == receiverID && !n.IsRead() {
			n.Status = domain.NotificationRead
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (r *stubNotificationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.notifications[id]; !ok {
		return domain.ErrNotificationNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *stubNotificationRepo) DeleteByReceiver(_ context.Context, receiverID string) (int64, error) {
	var n int64
	for id, item := range r.s.notifications {
		if item.ReceiverID == receiverID {
			delete(r.s.notifications, id)
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) DeleteByReference(_ context.Context, referenceID string) (int64, error) {
	var n int64
	for id, item := range r.s.notifications {
		if item.ReferenceID == referenceID {
			delete(r.s.notifications, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Verification store and mail queue
// ---------------------------------------------------------------------------

type stubVerificationStore struct {
	records   map[string]*domain.EmailVerification
	deleteErr error
}

func newStubVerificationStore() *stubVerificationStore {
	return &stubVerificationStore{records: map[string]*domain.EmailVerification{}}
}

func (s *stubVerificationStore) Save(_ context.Context, v *domain.EmailVerification) error {
	c := *v
	s.records[v.Email] = &c
	return nil
}

func (s *stubVerificationStore) Find(_ context.Context, email string) (*domain.EmailVerification, error) {
	v, ok := s.records[email]
	if !ok {
		return nil, domain.ErrVerificationNotFound
	}
	c := *v
	return &c, nil
}

func (s *stubVerificationStore) Delete(_ context.Context, email string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.records, email)
	return nil
}

type stubMailQueue struct {
	sent []ports.Mail
}

func (q *stubMailQueue) Enqueue(m ports.Mail) { q.sent = append(q.sent, m) }
