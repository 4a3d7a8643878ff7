// Package mongo stores favorites, ranges, collections and users in MongoDB.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"faves_sorter/internal/config"
)

const (
	favoritesCollection   = "favorites"
	rangesCollection      = "ranges"
	collectionsCollection = "collections"
	usersCollection       = "users"
)

// Connect opens a client, pings it and returns the configured database.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes the stores rely on, including the
// unique (owner_id, remote_id) key behind insert-or-ignore saves.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		favoritesCollection: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "remote_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "collection_id", Value: 1}}},
		},
		rangesCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "start_time", Value: -1}}},
		},
		collectionsCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		usersCollection: {
			{
				Keys:    bson.D{{Key: "remote_user_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// TransactionManager runs fn directly. Multi-document transactions need a
// replica set, which a standalone development server does not provide.
type TransactionManager struct{}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
