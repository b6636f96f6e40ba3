package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
	"github.com/loanflow/origination/internal/pkg/metrics"
)

// WorkflowService records status remarks and keeps each application's status
// equal to the status of its latest remark.
type WorkflowService struct {
	apps     ports.ApplicationRepository
	remarks  ports.RemarkRepository
	tx       ports.TxManager
	notifier ports.NotificationSender
	perms    ports.PermissionResolver
	logger   zerolog.Logger
	now      func() time.Time
}

func NewWorkflowService(
	apps ports.ApplicationRepository,
	remarks ports.RemarkRepository,
	tx ports.TxManager,
	notifier ports.NotificationSender,
	perms ports.PermissionResolver,
	logger zerolog.Logger,
) *WorkflowService {
	return &WorkflowService{
		apps:     apps,
		remarks:  remarks,
		tx:       tx,
		notifier: notifier,
		perms:    perms,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddRemark appends a remark and moves the application to its status. The
// customer is notified when the status actually changes.
func (s *WorkflowService) AddRemark(ctx context.Context, actor *domain.User, referenceID string, in ports.RemarkInput) (*ports.RemarkResult, error) {
	status, text, err := parseRemark(in)
	if err != nil {
		return nil, err
	}
	app, err := s.writable(ctx, actor, referenceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	remark := &domain.WorkflowRemark{
		ApplicationID: app.ID,
		Status:        status,
		Remarks:       text,
		UserID:        actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	result := &ports.RemarkResult{Remark: remark}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.remarks.Create(ctx, remark); err != nil {
			return err
		}
		result.ApplicationStatus, result.StatusChanged, err = s.syncStatus(ctx, actor, app, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add remark: %w", err)
	}
	app.Status = result.ApplicationStatus
	s.record("add", app, result)
	return result, nil
}

// UpdateRemark edits a remark in place, makes the editor its author and
// re-derives the application status from whichever remark is now latest.
func (s *WorkflowService) UpdateRemark(ctx context.Context, actor *domain.User, referenceID, remarkID string, in ports.RemarkInput) (*ports.RemarkResult, error) {
	status, text, err := parseRemark(in)
	if err != nil {
		return nil, err
	}
	app, err := s.writable(ctx, actor, referenceID)
	if err != nil {
		return nil, err
	}
	remark, err := s.remarkOf(ctx, app, remarkID)
	if err != nil {
		return nil, err
	}

	remark.Status = status
	remark.Remarks = text
	remark.UserID = actor.ID
	remark.UpdatedAt = s.now()
	result := &ports.RemarkResult{Remark: remark}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.remarks.Update(ctx, remark); err != nil {
			return err
		}
		result.ApplicationStatus, result.StatusChanged, err = s.syncStatus(ctx, actor, app, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update remark: %w", err)
	}
	app.Status = result.ApplicationStatus
	s.record("update", app, result)
	return result, nil
}

// DeleteRemark removes a remark. The application falls back to the status of
// the new latest remark, or Pending when none is left. No one is notified.
func (s *WorkflowService) DeleteRemark(ctx context.Context, actor *domain.User, referenceID, remarkID string) (domain.ApplicationStatus, error) {
	app, err := s.writable(ctx, actor, referenceID)
	if err != nil {
		return "", err
	}
	remark, err := s.remarkOf(ctx, app, remarkID)
	if err != nil {
		return "", err
	}

	result := &ports.RemarkResult{Remark: remark}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.remarks.Delete(ctx, remark.ID); err != nil {
			return err
		}
		result.ApplicationStatus, result.StatusChanged, err = s.syncStatus(ctx, actor, app, false)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("delete remark: %w", err)
	}
	s.record("delete", app, result)
	return result.ApplicationStatus, nil
}

// syncStatus stores the status derived from the latest remark. app is left
// untouched so a retried transaction compares against the stored status.
func (s *WorkflowService) syncStatus(ctx context.Context, actor *domain.User, app *domain.Application, notify bool) (domain.ApplicationStatus, bool, error) {
	latest, err := s.remarks.FindLatest(ctx, app.ID)
	if err != nil {
		return "", false, err
	}
	status := domain.DerivedStatus(latest)
	if status == app.Status {
		return status, false, nil
	}
	if err := s.apps.UpdateStatus(ctx, app.ID, status); err != nil {
		return "", false, err
	}
	if notify {
		if _, err := s.notifier.Send(ctx, actor.ID, app.CustomerID, domain.StatusChangedMessage(status), app.ReferenceID); err != nil {
			return "", false, fmt.Errorf("notify customer: %w", err)
		}
	}
	return status, true, nil
}

func (s *WorkflowService) writable(ctx context.Context, actor *domain.User, referenceID string) (*domain.Application, error) {
	app, err := s.apps.FindByReference(ctx, strings.TrimSpace(referenceID))
	if err != nil {
		return nil, err
	}
	if err := s.perms.AuthorizeWrite(ctx, actor, app); err != nil {
		return nil, err
	}
	return app, nil
}

// remarkOf loads remarkID and hides remarks of other applications.
func (s *WorkflowService) remarkOf(ctx context.Context, app *domain.Application, remarkID string) (*domain.WorkflowRemark, error) {
	remark, err := s.remarks.FindByID(ctx, remarkID)
	if err != nil {
		return nil, err
	}
	if remark.ApplicationID != app.ID {
		return nil, domain.ErrRemarkNotFound
	}
	return remark, nil
}

func (s *WorkflowService) record(action string, app *domain.Application, result *ports.RemarkResult) {
	metrics.RemarksTotal.WithLabelValues(action, string(result.ApplicationStatus)).Inc()
	s.logger.Info().
		Str("reference_id", app.ReferenceID).
		Str("remark_id", result.Remark.ID).
		Str("action", action).
		Str("status", string(result.ApplicationStatus)).
		Bool("status_changed", result.StatusChanged).
		Msg("workflow remark")
}

func parseRemark(in ports.RemarkInput) (domain.ApplicationStatus, string, error) {
	status := domain.ApplicationStatus(strings.TrimSpace(in.Status))
	if !status.Valid() {
		return "", "", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
	}
	text := strings.TrimSpace(in.Remarks)
	if text == "" {
		return "", "", domain.Invalid("remarks are required")
	}
	return status, text, nil
}
