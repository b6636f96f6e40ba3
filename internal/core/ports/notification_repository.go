package ports

import (
	"context"
	"time"

	"github.com/loanflow/origination/internal/core/domain"
)

// NotificationRepository defines persistence operations for notifications.
// Every read and bulk write is keyed by the receiver.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	// ListByReceiver returns the newest notifications first. limit <= 0 means no limit.
	ListByReceiver(ctx context.Context, receiverID string, unreadOnly bool, limit int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, receiverID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByReceiver(ctx context.Context, receiverID string) (int64, error)
	DeleteByReference(ctx context.Context, referenceID string) (int64, error)
}
