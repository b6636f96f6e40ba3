package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loanflow/origination/internal/core/domain"
)

type RemarkRepository struct {
	col *mongo.Collection
}

func NewRemarkRepository(db *mongo.Database) *RemarkRepository {
	return &RemarkRepository{col: db.Collection(collectionRemarks)}
}

var (
	oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
)

func (r *RemarkRepository) Create(ctx context.Context, rm *domain.WorkflowRemark) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if rm.ID == "" {
		rm.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, rm); err != nil {
		return fmt.Errorf("insert remark: %w", err)
	}
	return nil
}

func (r *RemarkRepository) FindByID(ctx context.Context, id string) (*domain.WorkflowRemark, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rm domain.WorkflowRemark
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rm); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRemarkNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RemarkRepository) Update(ctx context.Context, rm *domain.WorkflowRemark) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": rm.ID}, rm)
	if err != nil {
		return fmt.Errorf("update remark: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRemarkNotFound
	}
	return nil
}

func (r *RemarkRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete remark: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRemarkNotFound
	}
	return nil
}

func (r *RemarkRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.WorkflowRemark, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"application_id": applicationID}, options.Find().SetSort(oldestFirst))
	if err != nil {
		return nil, fmt.Errorf("list remarks: %w", err)
	}
	out := []*domain.WorkflowRemark{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode remarks: %w", err)
	}
	return out, nil
}

// FindLatest returns nil, nil when the application has no remarks.
func (r *RemarkRepository) FindLatest(ctx context.Context, applicationID string) (*domain.WorkflowRemark, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rm domain.WorkflowRemark
	err := r.col.FindOne(ctx, bson.M{"application_id": applicationID}, options.FindOne().SetSort(newestFirst)).Decode(&rm)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest remark: %w", err)
	}
	return &rm, nil
}

func (r *RemarkRepository) DeleteByApplication(ctx context.Context, applicationID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"application_id": applicationID})
	if err != nil {
		return 0, fmt.Errorf("delete remarks: %w", err)
	}
	return res.DeletedCount, nil
}
