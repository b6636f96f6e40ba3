package ports

import (
	"context"
	"time"

	"github.com/loanflow/origination/internal/core/domain"
)

// ListApplicationsFilter carries all query parameters for listing applications.
// Scope is always set by the service layer from the permission resolver.
type ListApplicationsFilter struct {
	Scope    domain.ApplicationScope
	ModuleID string // optional
	Status   string // optional
	Search   string // optional: partial match on reference_id
	Page     int    // 1-based
	Limit    int
}

// StatsQuery bounds the periods aggregated by ApplicationRepository.Stats.
type StatsQuery struct {
	Scope         domain.ApplicationScope
	WeekStart     time.Time
	YearStart     time.Time // start of the current calendar year
	LastYearStart time.Time
	TopModules    int
}

// ModuleCount is the number of applications filed under one module.
// ModuleID is empty for applications without a module.
type ModuleCount struct {
	ModuleID string
	Total    int64
	Week     int64
}

// ApplicationStats are the aggregate figures behind the dashboard. Disbursed
// amounts are bucketed by date_disbursed, or created_at when it is unset.
type ApplicationStats struct {
	Total      int64
	Week       int64
	Open       int64
	WeekOpen   int64
	InProgress int64 // open, excluding New
	Approved   int64 // Approved or Disbursed
	Rejected   int64

	Customers     int64
	WeekCustomers int64

	Disbursed         float64
	WeekDisbursed     float64
	LastYearDisbursed float64
	MonthlyDisbursed  [12]float64 // current year, January first

	ModuleCounts []ModuleCount
}

// ApplicationRepository defines persistence operations for loan applications.
type ApplicationRepository interface {
	// Create inserts a new application. Returns domain.ErrDuplicateReference
	// when the unique reference_id index rejects the insert.
	Create(ctx context.Context, a *domain.Application) error
	FindByID(ctx context.Context, id string) (*domain.Application, error)
	FindByReference(ctx context.Context, referenceID string) (*domain.Application, error)
	Update(ctx context.Context, a *domain.Application) error
	// UpdateStatus sets only the status column.
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) error
	Delete(ctx context.Context, id string) error
	// List returns a page of applications matching filter and the total count.
	List(ctx context.Context, filter ListApplicationsFilter) ([]*domain.Application, int64, error)
	// Stats aggregates the applications inside q.Scope.
	Stats(ctx context.Context, q StatsQuery) (*ApplicationStats, error)
}
