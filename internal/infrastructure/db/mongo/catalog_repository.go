package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

type ModuleRepository struct {
	col *mongo.Collection
}

func NewModuleRepository(db *mongo.Database) *ModuleRepository {
	return &ModuleRepository{col: db.Collection(collectionModules)}
}

func (r *ModuleRepository) Create(ctx context.Context, m *domain.LoanModule) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if m.ID == "" {
		m.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSlug
		}
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*domain.LoanModule, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ModuleRepository) FindBySlug(ctx context.Context, slug string) (*domain.LoanModule, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *ModuleRepository) findOne(ctx context.Context, filter bson.M) (*domain.LoanModule, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m domain.LoanModule
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrModuleNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *ModuleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

func (r *ModuleRepository) List(ctx context.Context, f ports.ModuleFilter) ([]*domain.LoanModule, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	out := []*domain.LoanModule{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode modules: %w", err)
	}
	return out, nil
}

func (r *ModuleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrModuleNotFound
	}
	return nil
}

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(collectionProducts)}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if p.ID == "" {
		p.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSlug
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) SlugExists(ctx context.Context, moduleID, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"module_id": moduleID, "slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

func (r *ProductRepository) ListByModule(ctx context.Context, moduleID string) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"module_id": moduleID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := []*domain.Product{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

func (r *ProductRepository) DeleteByModule(ctx context.Context, moduleID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"module_id": moduleID})
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	return res.DeletedCount, nil
}
