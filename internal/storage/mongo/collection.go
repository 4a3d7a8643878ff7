package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"faves_sorter/internal/domain"
)

type CollectionStore struct {
	coll *mongo.Collection
}

func NewCollectionStore(db *mongo.Database) *CollectionStore {
	return &CollectionStore{coll: db.Collection(collectionsCollection)}
}

func (s *CollectionStore) Create(ctx context.Context, c *domain.Collection) error {
	_, err := s.coll.InsertOne(ctx, c)
	return err
}

func (s *CollectionStore) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	cs := []domain.Collection{}
	if err := cursor.All(ctx, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *CollectionStore) Get(ctx context.Context, ownerID, id string) (*domain.Collection, error) {
	var c domain.Collection
	err := s.coll.FindOne(ctx, bson.M{"owner_id": ownerID, "_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CollectionStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"owner_id": ownerID, "_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
