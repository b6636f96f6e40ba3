package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// RemarkInput is the payload of a workflow remark.
type RemarkInput struct {
	Status  string
	Remarks string
}

// RemarkResult describes the effect of a remark mutation on its application.
type RemarkResult struct {
	Remark            *domain.WorkflowRemark
	ApplicationStatus domain.ApplicationStatus
	StatusChanged     bool
}

// WorkflowService is the status workflow of an application.
type WorkflowService interface {
	AddRemark(ctx context.Context, actor *domain.User, referenceID string, in RemarkInput) (*RemarkResult, error)
	UpdateRemark(ctx context.Context, actor *domain.User, referenceID, remarkID string, in RemarkInput) (*RemarkResult, error)
	// DeleteRemark returns the status the application fell back to.
	DeleteRemark(ctx context.Context, actor *domain.User, referenceID, remarkID string) (domain.ApplicationStatus, error)
}
