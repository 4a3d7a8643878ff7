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

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

func (s *UserStore) Upsert(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"screen_name":        user.ScreenName,
			"oauth_token":        user.OAuthToken,
			"oauth_token_secret": user.OAuthTokenSecret,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"_id":        domain.NewID(),
			"created_at": now,
		},
	}

	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"remote_user_id": user.RemoteUserID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(user)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", user.RemoteUserID, err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
