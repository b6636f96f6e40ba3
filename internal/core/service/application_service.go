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
	"github.com/loanflow/origination/internal/pkg/metrics"
)

const (
	defaultReferenceAttempts = 10
	defaultCreationRemark    = "Application created"

	defaultPageSize = 20
	maxPageSize     = 100

	dashboardRecent     = 5
	dashboardTopModules = 5
	noModuleName        = "No Module"
)

// ApplicationDeps groups the collaborators of ApplicationService.
type ApplicationDeps struct {
	Applications  ports.ApplicationRepository
	Remarks       ports.RemarkRepository
	Notifications ports.NotificationRepository
	Users         ports.UserRepository
	Modules       ports.ModuleRepository
	Products      ports.ProductRepository
	Tx            ports.TxManager
	Notifier      ports.NotificationSender
	Permissions   ports.PermissionResolver
}

// ApplicationService is the application registry: creation, assignment,
// module selection, auto-save, deletion requests, the dashboard and hard
// delete.
type ApplicationService struct {
	ApplicationDeps
	logger       zerolog.Logger
	maxAttempts  int
	newReference func() (string, error)
	now          func() time.Time
}

// NewApplicationService wires the registry. maxReferenceAttempts <= 0 uses
// defaultReferenceAttempts.
func NewApplicationService(deps ApplicationDeps, logger zerolog.Logger, maxReferenceAttempts int) *ApplicationService {
	if maxReferenceAttempts <= 0 {
		maxReferenceAttempts = defaultReferenceAttempts
	}
	return &ApplicationService{
		ApplicationDeps: deps,
		logger:          logger,
		maxAttempts:     maxReferenceAttempts,
		newReference:    func() (string, error) { return domain.NewReferenceID(nil) },
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a new application in status New. The application, its first
// remark and every notification it triggers are written in one transaction;
// a reference id collision restarts the transaction with a fresh id.
func (s *ApplicationService) Create(ctx context.Context, actor *domain.User, in ports.CreateApplicationInput) (*domain.Application, error) {
	base, remark, err := s.prepareCreate(ctx, actor, in)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		ref, err := s.newReference()
		if err != nil {
			return nil, fmt.Errorf("create application: %w", err)
		}
		app := *base
		app.ReferenceID = ref
		app.CreatedAt = s.now()
		app.UpdatedAt = app.CreatedAt
		if app.DateReceived == nil {
			received := app.CreatedAt
			app.DateReceived = &received
		}

		err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.insert(ctx, actor, &app, remark)
		})
		if err == nil {
			metrics.ApplicationsCreatedTotal.WithLabelValues(actor.Role).Inc()
			s.logger.Info().Str("reference_id", ref).Str("customer_id", app.CustomerID).Str("actor_id", actor.ID).Msg("application created")
			return &app, nil
		}
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return nil, fmt.Errorf("create application: %w", err)
		}
		metrics.ReferenceCollisionsTotal.Inc()
		s.logger.Warn().Str("reference_id", ref).Int("attempt", attempt).Msg("reference id collision")
		if attempt >= s.maxAttempts {
			return nil, domain.ErrReferenceExhausted
		}
	}
}

func (s *ApplicationService) prepareCreate(ctx context.Context, actor *domain.User, in ports.CreateApplicationInput) (*domain.Application, string, error) {
	if actor == nil || !actor.IsActive() {
		return nil, "", domain.Forbidden("inactive accounts cannot create applications")
	}

	customerID := strings.TrimSpace(in.CustomerID)
	switch {
	case actor.Role == domain.RoleCustomer:
		if customerID != "" && customerID != actor.ID {
			return nil, "", domain.Forbidden("customers can only apply for themselves")
		}
		customerID = actor.ID
	case actor.IsStaff():
		if customerID == "" {
			return nil, "", domain.Invalid("customer_id is required")
		}
		customer, err := s.Users.FindByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, "", domain.Invalid("customer %q does not exist", customerID)
			}
			return nil, "", err
		}
		if customer.Role != domain.RoleCustomer {
			return nil, "", domain.Invalid("user %q is not a customer", customerID)
		}
	default:
		return nil, "", domain.Forbidden("role %q cannot create applications", actor.Role)
	}

	app := &domain.Application{
		CustomerID: customerID,
		Status:     domain.StatusNew,
	}

	if moduleID := strings.TrimSpace(in.ModuleID); moduleID != "" {
		module, err := s.visibleModule(ctx, actor, moduleID)
		if err != nil {
			return nil, "", err
		}
		app.ModuleID = module.ID
	}
	if productID := strings.TrimSpace(in.ProductID); productID != "" {
		if err := s.checkProduct(ctx, app.ModuleID, productID); err != nil {
			return nil, "", err
		}
		app.ProductID = productID
	}
	if agentID := strings.TrimSpace(in.AgentID); agentID != "" {
		if err := s.checkAssignee(ctx, agentID, domain.RoleAgent, domain.RoleSubAgent); err != nil {
			return nil, "", err
		}
		app.AgentID = agentID
	}
	if adminID := strings.TrimSpace(in.AdminID); adminID != "" {
		if err := s.checkAssignee(ctx, adminID, domain.RoleAdmin, domain.RoleSuperuser); err != nil {
			return nil, "", err
		}
		app.AdminID = adminID
	}

	if len(in.Fields) > 0 {
		fields := make(map[string]any, len(in.Fields))
		for k, v := range in.Fields {
			if k != domain.FieldProductID {
				fields[k] = v
			}
		}
		if _, err := app.ApplyFields(fields); err != nil {
			return nil, "", err
		}
	}

	remark := strings.TrimSpace(in.Remarks)
	if remark == "" {
		remark = defaultCreationRemark
	}
	return app, remark, nil
}

func (s *ApplicationService) insert(ctx context.Context, actor *domain.User, app *domain.Application, remark string) error {
	if err := s.Applications.Create(ctx, app); err != nil {
		return err
	}
	first := &domain.WorkflowRemark{
		ApplicationID: app.ID,
		Status:        domain.StatusNew,
		Remarks:       remark,
		UserID:        actor.ID,
		CreatedAt:     app.CreatedAt,
		UpdatedAt:     app.CreatedAt,
	}
	if err := s.Remarks.Create(ctx, first); err != nil {
		return fmt.Errorf("initial remark: %w", err)
	}
	if _, err := s.Notifier.Send(ctx, actor.ID, app.CustomerID, domain.ApplicationCreatedMessage(app.ReferenceID), app.ReferenceID); err != nil {
		return fmt.Errorf("notify customer: %w", err)
	}
	if app.AgentID != "" {
		if _, err := s.Notifier.Send(ctx, actor.ID, app.AgentID, domain.AgentAssignedMessage(app.ReferenceID), app.ReferenceID); err != nil {
			return fmt.Errorf("notify agent: %w", err)
		}
	}
	if app.AdminID != "" {
		if _, err := s.Notifier.Send(ctx, actor.ID, app.AdminID, domain.AdminAssignedMessage(app.ReferenceID), app.ReferenceID); err != nil {
			return fmt.Errorf("notify admin: %w", err)
		}
	}
	return nil
}

// Get returns the application with its remarks, oldest first.
func (s *ApplicationService) Get(ctx context.Context, actor *domain.User, referenceID string) (*ports.ApplicationDetail, error) {
	app, err := s.find(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if err := s.Permissions.AuthorizeView(ctx, actor, app); err != nil {
		return nil, err
	}
	remarks, err := s.Remarks.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("list remarks: %w", err)
	}
	return &ports.ApplicationDetail{Application: app, Remarks: remarks}, nil
}

// List returns a page of the applications the actor may see.
func (s *ApplicationService) List(ctx context.Context, actor *domain.User, in ports.ListApplicationsInput) (*ports.ListApplicationsResult, error) {
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	result := &ports.ListApplicationsResult{Items: []*domain.Application{}, Page: page, Limit: limit}

	if in.Status != "" && !domain.ApplicationStatus(in.Status).Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
	}

	scope, err := s.Permissions.ScopeApplications(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return result, nil
	}

	filter := ports.ListApplicationsFilter{
		Scope:  scope,
		Status: in.Status,
		Search: strings.TrimSpace(in.Search),
		Page:   page,
		Limit:  limit,
	}
	if in.ModuleSlug != "" {
		module, err := s.Modules.FindBySlug(ctx, in.ModuleSlug)
		if err != nil {
			return nil, err
		}
		if !s.Permissions.CanAccessModule(actor, module.ID) {
			return nil, domain.Forbidden("module %s is not available to you", module.Slug)
		}
		filter.ModuleID = module.ID
	}

	items, total, err := s.Applications.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	result.Items = items
	result.Total = total
	result.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	return result, nil
}

// AssignAgent makes agentID the handling agent and notifies them.
func (s *ApplicationService) AssignAgent(ctx context.Context, actor *domain.User, referenceID, agentID string) (*domain.Application, error) {
	return s.reassign(ctx, actor, referenceID, assignAgent, agentID)
}

// AssignAdmin makes adminID the supervising admin and notifies them.
func (s *ApplicationService) AssignAdmin(ctx context.Context, actor *domain.User, referenceID, adminID string) (*domain.Application, error) {
	return s.reassign(ctx, actor, referenceID, assignAdmin, adminID)
}

type assignment int

const (
	assignAgent assignment = iota
	assignAdmin
)

func (k assignment) roles() []string {
	if k == assignAgent {
		return []string{domain.RoleAgent, domain.RoleSubAgent}
	}
	return []string{domain.RoleAdmin, domain.RoleSuperuser}
}

func (s *ApplicationService) reassign(ctx context.Context, actor *domain.User, referenceID string, kind assignment, targetID string) (*domain.Application, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, domain.Invalid("assignee id is required")
	}
	app, err := s.find(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if err := s.Permissions.AuthorizeWrite(ctx, actor, app); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, targetID, kind.roles()...); err != nil {
		return nil, err
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		s.setAssignee(app, kind, targetID)
		app.UpdatedAt = s.now()
		if err := s.Applications.Update(ctx, app); err != nil {
			return err
		}
		return s.notifyAssignee(ctx, actor, app, kind, targetID)
	})
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	s.logger.Info().Str("reference_id", app.ReferenceID).Str("assignee_id", targetID).Str("actor_id", actor.ID).Msg("application assigned")
	return app, nil
}

func (s *ApplicationService) setAssignee(app *domain.Application, kind assignment, targetID string) {
	if kind == assignAgent {
		app.AgentID = targetID
		return
	}
	app.AdminID = targetID
}

func (s *ApplicationService) notifyAssignee(ctx context.Context, actor *domain.User, app *domain.Application, kind assignment, targetID string) error {
	msg := domain.AdminAssignedMessage(app.ReferenceID)
	if kind == assignAgent {
		msg = domain.AgentAssignedMessage(app.ReferenceID)
	}
	_, err := s.Notifier.Send(ctx, actor.ID, targetID, msg, app.ReferenceID)
	return err
}

// SetModule attaches the application to moduleID and clears every
// product-specific field, even when the module does not change.
func (s *ApplicationService) SetModule(ctx context.Context, actor *domain.User, referenceID, moduleID string) (*domain.Application, error) {
	app, err := s.find(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if err := s.Permissions.AuthorizeWrite(ctx, actor, app); err != nil {
		return nil, err
	}
	module, err := s.visibleModule(ctx, actor, strings.TrimSpace(moduleID))
	if err != nil {
		return nil, err
	}
	app.ModuleID = module.ID
	app.ResetProductSelection()
	app.UpdatedAt = s.now()
	if err := s.Applications.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("set module: %w", err)
	}
	return app, nil
}

// AutoSave merges whitelisted fields into the application. agent_id and
// admin_id go through assignment when they name someone new.
func (s *ApplicationService) AutoSave(ctx context.Context, actor *domain.User, referenceID string, fields map[string]any) (*ports.AutoSaveResult, error) {
	app, err := s.find(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if err := s.Permissions.AuthorizeWrite(ctx, actor, app); err != nil {
		return nil, err
	}

	agentID, err := assigneeField(fields, "agent_id", app.AgentID)
	if err != nil {
		return nil, err
	}
	adminID, err := assigneeField(fields, "admin_id", app.AdminID)
	if err != nil {
		return nil, err
	}
	if agentID != "" {
		if err := s.checkAssignee(ctx, agentID, assignAgent.roles()...); err != nil {
			return nil, err
		}
	}
	if adminID != "" {
		if err := s.checkAssignee(ctx, adminID, assignAdmin.roles()...); err != nil {
			return nil, err
		}
	}
	if v, ok := fields[domain.FieldProductID]; ok && v != nil {
		productID, isString := v.(string)
		if !isString {
			return nil, domain.Invalid("product_id must be a string")
		}
		if productID = strings.TrimSpace(productID); productID != "" {
			if err := s.checkProduct(ctx, app.ModuleID, productID); err != nil {
				return nil, err
			}
		}
	}

	updated := *app
	applied, err := updated.ApplyFields(fields)
	if err != nil {
		return nil, err
	}
	if agentID != "" {
		applied = append(applied, "agent_id")
	}
	if adminID != "" {
		applied = append(applied, "admin_id")
	}
	slices.Sort(applied)
	if len(applied) == 0 {
		return &ports.AutoSaveResult{Application: app, Applied: applied}, nil
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if agentID != "" {
			s.setAssignee(&updated, assignAgent, agentID)
		}
		if adminID != "" {
			s.setAssignee(&updated, assignAdmin, adminID)
		}
		updated.UpdatedAt = s.now()
		if err := s.Applications.Update(ctx, &updated); err != nil {
			return err
		}
		if agentID != "" {
			if err := s.notifyAssignee(ctx, actor, &updated, assignAgent, agentID); err != nil {
				return err
			}
		}
		if adminID != "" {
			return s.notifyAssignee(ctx, actor, &updated, assignAdmin, adminID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("auto-save: %w", err)
	}
	s.logger.Debug().Str("reference_id", updated.ReferenceID).Strs("fields", applied).Msg("application auto-saved")
	return &ports.AutoSaveResult{Application: &updated, Applied: applied}, nil
}

// assigneeField returns the new assignee named by fields[key], or "" when the
// key is absent, empty or unchanged.
func assigneeField(fields map[string]any, key, current string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", nil
	}
	id, ok := v.(string)
	if !ok {
		return "", domain.Invalid("%s must be a string", key)
	}
	id = strings.TrimSpace(id)
	if id == "" || id == current {
		return "", nil
	}
	return id, nil
}

// Delete permanently removes the application with its remarks and the
// notifications that reference it.
func (s *ApplicationService) Delete(ctx context.Context, actor *domain.User, referenceID string) error {
	app, err := s.find(ctx, referenceID)
	if err != nil {
		return err
	}
	if actor == nil || !actor.IsActive() || !actor.IsUnrestricted() {
		return domain.Forbidden("only admins can delete applications")
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Remarks.DeleteByApplication(ctx, app.ID); err != nil {
			return err
		}
		if _, err := s.Notifications.DeleteByReference(ctx, app.ReferenceID); err != nil {
			return err
		}
		return s.Applications.Delete(ctx, app.ID)
	})
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	metrics.ApplicationsDeletedTotal.Inc()
	s.logger.Info().Str("reference_id", app.ReferenceID).Str("actor_id", actor.ID).Msg("application deleted")
	return nil
}

// RequestDeletion moves the customer's own application to Delete Request,
// records the reason as a remark and notifies every admin and superuser.
func (s *ApplicationService) RequestDeletion(ctx context.Context, actor *domain.User, referenceID, reason string) (*domain.Application, error) {
	if actor == nil || !actor.IsActive() || actor.Role != domain.RoleCustomer {
		return nil, domain.Forbidden("only customers can request deletion")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalid("a reason is required")
	}
	app, err := s.find(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if app.CustomerID != actor.ID {
		return nil, domain.Forbidden("application %s is not yours", app.ReferenceID)
	}
	if app.Status == domain.StatusDeleteRequest {
		return nil, fmt.Errorf("%w: deletion already requested for %s", domain.ErrConflict, app.ReferenceID)
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		remark := &domain.WorkflowRemark{
			ApplicationID: app.ID,
			Status:        domain.StatusDeleteRequest,
			Remarks:       domain.DeleteRequestRemark(reason),
			UserID:        actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.Remarks.Create(ctx, remark); err != nil {
			return err
		}
		if err := s.Applications.UpdateStatus(ctx, app.ID, domain.StatusDeleteRequest); err != nil {
			return err
		}
		admins, err := s.Users.ListByRoles(ctx, domain.RoleAdmin, domain.RoleSuperuser)
		if err != nil {
			return fmt.Errorf("list admins: %w", err)
		}
		msg := domain.DeleteRequestedMessage(actor.Username, app.ReferenceID)
		for _, admin := range admins {
			if _, err := s.Notifier.Send(ctx, actor.ID, admin.ID, msg, app.ReferenceID); err != nil {
				return fmt.Errorf("notify admin %s: %w", admin.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("request deletion: %w", err)
	}
	app.Status = domain.StatusDeleteRequest
	metrics.RemarksTotal.WithLabelValues("delete_request", string(domain.StatusDeleteRequest)).Inc()
	s.logger.Info().Str("reference_id", app.ReferenceID).Str("actor_id", actor.ID).Msg("deletion requested")
	return app, nil
}

// Dashboard aggregates the applications the actor may see together with the
// most recent of them and the actor's latest unread notifications.
func (s *ApplicationService) Dashboard(ctx context.Context, actor *domain.User) (*ports.Dashboard, error) {
	if actor == nil || !actor.IsActive() {
		return nil, domain.Forbidden("inactive accounts have no dashboard")
	}
	scope, err := s.Permissions.ScopeApplications(ctx, actor)
	if err != nil {
		return nil, err
	}
	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	board := &ports.Dashboard{
		TopModules:          []ports.TopModule{},
		RecentApplications:  []*domain.Application{},
		RecentNotifications: []*domain.Notification{},
	}

	if !scope.Empty() {
		stats, err := s.Applications.Stats(ctx, ports.StatsQuery{
			Scope:         scope,
			WeekStart:     now.AddDate(0, 0, -7),
			YearStart:     yearStart,
			LastYearStart: yearStart.AddDate(-1, 0, 0),
			TopModules:    dashboardTopModules,
		})
		if err != nil {
			return nil, fmt.Errorf("application stats: %w", err)
		}
		board.ApplicationStats = *stats
		board.DisbursedGrowth = disbursedGrowth(stats)

		for _, mc := range stats.ModuleCounts {
			board.TopModules = append(board.TopModules, ports.TopModule{
				ModuleID: mc.ModuleID,
				Name:     s.moduleName(ctx, mc.ModuleID),
				Total:    mc.Total,
				Week:     mc.Week,
			})
		}

		recent, _, err := s.Applications.List(ctx, ports.ListApplicationsFilter{Scope: scope, Page: 1, Limit: dashboardRecent})
		if err != nil {
			return nil, fmt.Errorf("recent applications: %w", err)
		}
		board.RecentApplications = recent
	}

	notes, err := s.Notifications.ListByReceiver(ctx, actor.ID, true, dashboardRecent)
	if err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	board.RecentNotifications = notes
	return board, nil
}

func disbursedGrowth(stats *ports.ApplicationStats) float64 {
	if stats.LastYearDisbursed == 0 {
		return 0
	}
	var thisYear float64
	for _, v := range stats.MonthlyDisbursed {
		thisYear += v
	}
	return (thisYear - stats.LastYearDisbursed) / stats.LastYearDisbursed * 100
}

func (s *ApplicationService) moduleName(ctx context.Context, moduleID string) string {
	if moduleID == "" {
		return noModuleName
	}
	module, err := s.Modules.FindByID(ctx, moduleID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("module_id", moduleID).Msg("dashboard module lookup failed")
		}
		return noModuleName
	}
	return module.Name
}

func (s *ApplicationService) find(ctx context.Context, referenceID string) (*domain.Application, error) {
	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return nil, domain.ErrApplicationNotFound
	}
	return s.Applications.FindByReference(ctx, referenceID)
}

func (s *ApplicationService) visibleModule(ctx context.Context, actor *domain.User, moduleID string) (*domain.LoanModule, error) {
	if moduleID == "" {
		return nil, domain.Invalid("module_id is required")
	}
	module, err := s.Modules.FindByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if !s.Permissions.CanAccessModule(actor, module.ID) {
		return nil, domain.Forbidden("module %s is not available to you", module.Slug)
	}
	return module, nil
}

func (s *ApplicationService) checkProduct(ctx context.Context, moduleID, productID string) error {
	if moduleID == "" {
		return domain.Invalid("select a module before choosing a product")
	}
	product, err := s.Products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("product %q does not exist", productID)
		}
		return err
	}
	if product.ModuleID != moduleID {
		return domain.Invalid("product %q does not belong to the selected module", productID)
	}
	return nil
}

func (s *ApplicationService) checkAssignee(ctx context.Context, userID string, roles ...string) error {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("user %q does not exist", userID)
		}
		return err
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return domain.Invalid("user %q cannot be assigned (role %q)", userID, user.Role)
}
