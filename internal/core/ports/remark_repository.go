package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// RemarkRepository defines persistence operations for workflow remarks.
type RemarkRepository interface {
	Create(ctx context.Context, r *domain.WorkflowRemark) error
	FindByID(ctx context.Context, id string) (*domain.WorkflowRemark, error)
	Update(ctx context.Context, r *domain.WorkflowRemark) error
	Delete(ctx context.Context, id string) error
	// ListByApplication returns remarks oldest first.
	ListByApplication(ctx context.Context, applicationID string) ([]*domain.WorkflowRemark, error)
	// FindLatest returns the newest remark (created_at desc, id desc) or nil
	// when the application has none.
	FindLatest(ctx context.Context, applicationID string) (*domain.WorkflowRemark, error)
	DeleteByApplication(ctx context.Context, applicationID string) (int64, error)
}
