package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

type ApplicationRepository struct {
	col *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{col: db.Collection(collectionApplications)}
}

// Create inserts a new application. A clash on the unique reference_id index
// surfaces as domain.ErrDuplicateReference.
func (r *ApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if a.ID == "" {
		a.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ApplicationRepository) FindByReference(ctx context.Context, referenceID string) (*domain.Application, error) {
	return r.findOne(ctx, bson.M{"reference_id": referenceID})
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Application
	if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) Update(ctx context.Context, a *domain.Application) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

// List returns the newest applications first.
func (r *ApplicationRepository) List(ctx context.Context, f ports.ListApplicationsFilter) ([]*domain.Application, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	out := []*domain.Application{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode applications: %w", err)
	}
	return out, total, nil
}

// listFilter translates the list parameters into a query document.
func listFilter(f ports.ListApplicationsFilter) bson.M {
	filter := scopeFilter(f.Scope)
	if f.ModuleID != "" {
		filter["module_id"] = f.ModuleID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		filter["reference_id"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	return filter
}

// scopeFilter is the query form of domain.ApplicationScope.Allows.
func scopeFilter(s domain.ApplicationScope) bson.M {
	if s.All {
		return bson.M{}
	}
	var or bson.A
	if len(s.AgentIDs) > 0 {
		or = append(or, bson.M{"agent_id": bson.M{"$in": s.AgentIDs}})
	}
	if s.CustomerID != "" {
		or = append(or, bson.M{"customer_id": s.CustomerID})
	}
	if len(or) == 0 {
		// Every document has an _id, so this matches nothing.
		return bson.M{"_id": bson.M{"$exists": false}}
	}
	return bson.M{"$or": or}
}
