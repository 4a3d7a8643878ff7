package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"faves_sorter/internal/domain"
)

type RangeStore struct {
	coll *mongo.Collection
}

func NewRangeStore(db *mongo.Database) *RangeStore {
	return &RangeStore{coll: db.Collection(rangesCollection)}
}

var newestFirst = bson.D{{Key: "start_time", Value: -1}}

func (s *RangeStore) newest(ctx context.Context, filter bson.M) (*domain.Range, error) {
	var r domain.Range
	err := s.coll.FindOne(ctx, filter, options.FindOne().SetSort(newestFirst)).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RangeStore) Newest(ctx context.Context, ownerID string) (*domain.Range, error) {
	return s.newest(ctx, bson.M{"owner_id": ownerID})
}

func (s *RangeStore) NewestBefore(ctx context.Context, ownerID string, t time.Time) (*domain.Range, error) {
	return s.newest(ctx, bson.M{"owner_id": ownerID, "start_time": bson.M{"$lt": t}})
}

func (s *RangeStore) Containing(ctx context.Context, ownerID string, t time.Time) (*domain.Range, error) {
	return s.newest(ctx, bson.M{
		"owner_id":   ownerID,
		"start_time": bson.M{"$gte": t},
		"end_time":   bson.M{"$lte": t},
	})
}

func (s *RangeStore) Create(ctx context.Context, r *domain.Range) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert range: %w", err)
	}
	return nil
}

func (s *RangeStore) MarkLast(ctx context.Context, ownerID, id string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"owner_id": ownerID, "_id": id},
		bson.M{"$set": bson.M{"is_last": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("range %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *RangeStore) Delete(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.DeleteMany(ctx, bson.M{"owner_id": ownerID, "_id": bson.M{"$in": ids}})
	return err
}

func (s *RangeStore) List(ctx context.Context, ownerID string) ([]domain.Range, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	ranges := []domain.Range{}
	if err := cursor.All(ctx, &ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}
