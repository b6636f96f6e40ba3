package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

const (
	collectionUsers         = "users"
	collectionModules       = "loan_modules"
	collectionProducts      = "products"
	collectionApplications  = "loan_applications"
	collectionRemarks       = "workflow_remarks"
	collectionNotifications = "notifications"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes every repository relies on. The unique
// indexes back the duplicate checks of users, slugs and reference ids.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	unique := options.Index().SetUnique(true)
	plan := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "master_agent", Value: 1}}},
		},
		collectionModules: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		},
		collectionProducts: {
			{Keys: bson.D{{Key: "module_id", Value: 1}, {Key: "slug", Value: 1}}, Options: unique},
		},
		collectionApplications: {
			{Keys: bson.D{{Key: "reference_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "agent_id", Value: 1}}},
			{Keys: bson.D{{Key: "module_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		collectionRemarks: {
			{Keys: bson.D{{Key: "application_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		collectionNotifications: {
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "reference_id", Value: 1}}},
		},
	}
	for coll, indexes := range plan {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("indexes %s: %w", coll, err)
		}
	}
	return nil
}

// newID allocates a document id. ObjectID hex strings sort in allocation
// order within a process, which settles timestamp ties between remarks.
func newID() string {
	return primitive.NewObjectID().Hex()
}
