package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
	"github.com/loanflow/origination/internal/pkg/metrics"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

// NotificationService stores in-app notifications and serves each user
// their own inbox.
type NotificationService struct {
	repo   ports.NotificationRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewNotificationService(repo ports.NotificationRepository, logger zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Send writes an unread notification. A transactional ctx makes the write
// part of the caller's transaction.
func (s *NotificationService) Send(ctx context.Context, senderID, receiverID, message, referenceID string) (*domain.Notification, error) {
	if receiverID == "" {
		return nil, domain.Invalid("notification receiver is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.Invalid("notification message is required")
	}
	n := &domain.Notification{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Message:     message,
		ReferenceID: referenceID,
		Status:      domain.NotificationUnread,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.NotificationsSentTotal.Inc()
	s.logger.Debug().Str("receiver_id", receiverID).Str("reference_id", referenceID).Msg("notification sent")
	return n, nil
}

// List returns the newest notifications first. A limit outside
// [1, maxInboxLimit] falls back to the default or the maximum.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) (*ports.NotificationList, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}
	items, err := s.repo.ListByReceiver(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ports.NotificationList{Items: items, UnreadCount: unread}, nil
}

// MarkRead is idempotent for the receiver and refused for everybody else.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	n, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if n.IsRead() {
		return n, nil
	}
	at := s.now()
	if err := s.repo.MarkRead(ctx, n.ID, at); err != nil {
		return nil, err
	}
	n.Status = domain.NotificationRead
	n.ReadAt = &at
	return n, nil
}

func (s *NotificationService) Open(ctx context.Context, id, userID string) (string, error) {
	n, err := s.MarkRead(ctx, id, userID)
	if err != nil {
		return "", err
	}
	return n.ReferenceID, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	n, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, n.ID)
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByReceiver(ctx, userID)
}

func (s *NotificationService) owned(ctx context.Context, id, userID string) (*domain.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ReceiverID != userID {
		return nil, domain.Forbidden("notification belongs to another user")
	}
	return n, nil
}
