package ports

import (
	"context"

	"github.com/loanflow/origination/internal/core/domain"
)

// NotificationSender is the write side used by other services. Calls made
// with a transactional ctx join that transaction.
type NotificationSender interface {
	Send(ctx context.Context, senderID, receiverID, message, referenceID string) (*domain.Notification, error)
}

// NotificationList is a receiver's inbox page.
type NotificationList struct {
	Items       []*domain.Notification
	UnreadCount int64
}

// NotificationService exposes a user's own notifications.
type NotificationService interface {
	NotificationSender
	List(ctx context.Context, userID string, unreadOnly bool, limit int) (*NotificationList, error)
	MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error)
	// Open marks the notification read and returns the application reference it links to.
	Open(ctx context.Context, id, userID string) (string, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
