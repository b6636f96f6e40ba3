package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loanflow/origination/internal/core/domain"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if n.ID == "" {
		n.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n domain.Notification
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverID string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"receiver_id": receiverID}
	if unreadOnly {
		filter["status"] = domain.NotificationUnread
	}
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := []*domain.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"receiver_id": receiverID, "status": domain.NotificationUnread})
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, markRead(at))
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiverID string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, bson.M{"receiver_id": receiverID, "status": domain.NotificationUnread}, markRead(at))
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.ModifiedCount, nil
}

func markRead(at time.Time) bson.M {
	return bson.M{"$set": bson.M{"status": domain.NotificationRead, "read_at": at}}
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteByReceiver(ctx context.Context, receiverID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"receiver_id": receiverID})
}

func (r *NotificationRepository) DeleteByReference(ctx context.Context, referenceID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"reference_id": referenceID})
}

func (r *NotificationRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return res.DeletedCount, nil
}
