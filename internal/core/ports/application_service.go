package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// CreateApplicationInput carries all data needed to open a loan application.
type CreateApplicationInput struct {
	// CustomerID is ignored when a customer creates an application; it is
	// always their own.
	CustomerID string
	ModuleID   string
	ProductID  string
	AgentID    string
	AdminID    string
	// Remarks is the commentary of the initial "New" workflow remark.
	Remarks string
	// Fields are optional auto-save fields applied before the first insert.
	Fields map[string]any
}

// ApplicationDetail is the full application view with its remark timeline.
type ApplicationDetail struct {
	Application *domain.Application
	Remarks     []*domain.WorkflowRemark
}

// ListApplicationsInput carries the parameters of the list endpoint.
type ListApplicationsInput struct {
	ModuleSlug string
	Status     string
	Search     string
	Page       int
	Limit      int
}

// ListApplicationsResult is returned by ApplicationService.List.
type ListApplicationsResult struct {
	Items      []*domain.Application
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AutoSaveResult reports which fields an auto-save actually touched.
type AutoSaveResult struct {
	Application *domain.Application
	Applied     []string
}

// TopModule is a dashboard entry for one of the busiest modules.
type TopModule struct {
	ModuleID string
	Name     string
	Total    int64
	Week     int64
}

// Dashboard is the back-office overview of the applications an actor can see.
type Dashboard struct {
	ApplicationStats
	TopModules []TopModule
	// DisbursedGrowth is the change in percent of this year's disbursed
	// amount against last year's; zero when last year had none.
	DisbursedGrowth     float64
	RecentApplications  []*domain.Application
	RecentNotifications []*domain.Notification
}

// ApplicationService is the application registry.
type ApplicationService interface {
	Create(ctx context.Context, actor *domain.User, in CreateApplicationInput) (*domain.Application, error)
	Get(ctx context.Context, actor *domain.User, referenceID string) (*ApplicationDetail, error)
	List(ctx context.Context, actor *domain.User, in ListApplicationsInput) (*ListApplicationsResult, error)
	AssignAgent(ctx context.Context, actor *domain.User, referenceID, agentID string) (*domain.Application, error)
	AssignAdmin(ctx context.Context, actor *domain.User, referenceID, adminID string) (*domain.Application, error)
	SetModule(ctx context.Context, actor *domain.User, referenceID, moduleID string) (*domain.Application, error)
	AutoSave(ctx context.Context, actor *domain.User, referenceID string, fields map[string]any) (*AutoSaveResult, error)
	Delete(ctx context.Context, actor *domain.User, referenceID string) error
	// RequestDeletion lets the owning customer ask the admins to delete an
	// application.
	RequestDeletion(ctx context.Context, actor *domain.User, referenceID, reason string) (*domain.Application, error)
	Dashboard(ctx context.Context, actor *domain.User) (*Dashboard, error)
}
