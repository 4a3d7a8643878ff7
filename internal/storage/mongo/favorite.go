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

type FavoriteStore struct {
	coll *mongo.Collection
}

func NewFavoriteStore(db *mongo.Database) *FavoriteStore {
	return &FavoriteStore{coll: db.Collection(favoritesCollection)}
}

func (s *FavoriteStore) Save(ctx context.Context, ownerID string, items []domain.RemoteItem) ([]domain.Favorite, error) {
	if len(items) == 0 {
		return []domain.Favorite{}, nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, len(items))
	remoteIDs := make([]string, len(items))
	for i, item := range items {
		fav := domain.Favorite{
			ID:        domain.NewID(),
			RemoteID:  item.ID,
			OwnerID:   ownerID,
			Text:      item.Text,
			CreatedAt: item.CreatedAt.UTC(),
			CachedAt:  now,
		}
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"owner_id": ownerID, "remote_id": item.ID}).
			SetUpdate(bson.M{"$setOnInsert": fav}).
			SetUpsert(true)
		remoteIDs[i] = item.ID
	}

	_, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("upsert favorites: %w", err)
	}

	cursor, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID, "remote_id": bson.M{"$in": remoteIDs}})
	if err != nil {
		return nil, fmt.Errorf("find saved favorites: %w", err)
	}
	var stored []domain.Favorite
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("decode saved favorites: %w", err)
	}

	byRemote := make(map[string]domain.Favorite, len(stored))
	for _, f := range stored {
		byRemote[f.RemoteID] = f
	}

	saved := make([]domain.Favorite, 0, len(items))
	for _, item := range items {
		if f, ok := byRemote[item.ID]; ok {
			saved = append(saved, f)
		}
	}
	return saved, nil
}

func (s *FavoriteStore) Query(ctx context.Context, filter domain.FavoriteFilter) ([]domain.Favorite, error) {
	q := bson.M{"owner_id": filter.OwnerID}
	if filter.Processed != nil {
		q["processed"] = *filter.Processed
	}
	if filter.CollectionID != "" {
		q["collection_id"] = filter.CollectionID
	}

	createdAt := bson.M{}
	if !filter.Since.IsZero() {
		createdAt["$gte"] = filter.Since
	}
	if !filter.Until.IsZero() {
		createdAt["$lte"] = filter.Until
	}
	if !filter.Before.IsZero() && filter.BeforeRemoteID == "" {
		createdAt["$lt"] = filter.Before
	}
	if len(createdAt) > 0 {
		q["created_at"] = createdAt
	}
	if !filter.Before.IsZero() && filter.BeforeRemoteID != "" {
		q["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": filter.Before}},
			bson.M{"created_at": filter.Before, "$expr": remoteIDBelow(filter.BeforeRemoteID)},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "remote_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find favorites: %w", err)
	}

	favs := []domain.Favorite{}
	if err := cursor.All(ctx, &favs); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return favs, nil
}

func (s *FavoriteStore) Get(ctx context.Context, ownerID, id string) (*domain.Favorite, error) {
	return s.findOne(ctx, bson.M{"owner_id": ownerID, "_id": id}, id)
}

func (s *FavoriteStore) GetByRemoteID(ctx context.Context, ownerID, remoteID string) (*domain.Favorite, error) {
	return s.findOne(ctx, bson.M{"owner_id": ownerID, "remote_id": remoteID}, remoteID)
}

func (s *FavoriteStore) findOne(ctx context.Context, filter bson.M, key string) (*domain.Favorite, error) {
	var f domain.Favorite
	err := s.coll.FindOne(ctx, filter).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("favorite %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FavoriteStore) Update(ctx context.Context, ownerID, id string, patch domain.FavoritePatch) (*domain.Favorite, error) {
	set := bson.M{}
	if patch.Processed != nil {
		set["processed"] = *patch.Processed
	}
	if patch.CollectionID != nil {
		set["collection_id"] = *patch.CollectionID
	}
	if len(set) == 0 {
		return s.Get(ctx, ownerID, id)
	}

	var f domain.Favorite
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"owner_id": ownerID, "_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FavoriteStore) ClearCollection(ctx context.Context, ownerID, collectionID string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"owner_id": ownerID, "collection_id": collectionID},
		bson.M{"$unset": bson.M{"collection_id": ""}},
	)
	return err
}

// remoteIDBelow orders remote ids by length first, then lexically.
func remoteIDBelow(id string) bson.M {
	length := bson.M{"$strLenCP": "$remote_id"}
	return bson.M{"$or": bson.A{
		bson.M{"$lt": bson.A{length, len([]rune(id))}},
		bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{length, len([]rune(id))}},
			bson.M{"$lt": bson.A{"$remote_id", id}},
		}},
	}}
}
