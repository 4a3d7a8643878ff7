//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
)

type MongoIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *mongodb.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	owner     *domain.User
}

func (s *MongoIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := mongodb.Run(s.ctx, "mongo:7")
	s.Require().NoError(err)
	s.container = container

	uri, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	client, db, err := Connect(s.ctx, config.MongoConfig{
		URI:            uri,
		Database:       "faves_test",
		ConnectTimeout: 30 * time.Second,
	})
	s.Require().NoError(err)
	s.client = client
	s.db = db

	s.Require().NoError(EnsureIndexes(s.ctx, db))
}

func (s *MongoIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *MongoIntegrationSuite) SetupTest() {
	for _, name := range []string{favoritesCollection, rangesCollection, collectionsCollection, usersCollection} {
		_, err := s.db.Collection(name).DeleteMany(s.ctx, bson.M{})
		s.Require().NoError(err)
	}

	s.owner = &domain.User{RemoteUserID: "123", ScreenName: "test_user", OAuthToken: "t", OAuthTokenSecret: "s"}
	s.Require().NoError(NewUserStore(s.db).Upsert(s.ctx, s.owner))
}

func TestMongoIntegrationSuite(t *testing.T) {
	suite.Run(t, new(MongoIntegrationSuite))
}

func remoteItems(n int) []domain.RemoteItem {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	items := make([]domain.RemoteItem, n)
	for i := range items {
		items[i] = domain.RemoteItem{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
			Text:      domain.String("tweet"),
		}
	}
	return items
}

func (s *MongoIntegrationSuite) TestUserUpsertKeepsIdentity() {
	store := NewUserStore(s.db)
	firstID := s.owner.ID
	s.NotEmpty(firstID)

	again := &domain.User{RemoteUserID: "123", ScreenName: "renamed", OAuthToken: "t2", OAuthTokenSecret: "s2"}
	s.Require().NoError(store.Upsert(s.ctx, again))
	s.Equal(firstID, again.ID)

	got, err := store.Get(s.ctx, firstID)
	s.Require().NoError(err)
	s.Equal("renamed", got.ScreenName)
	s.Equal("t2", got.OAuthToken)

	users, err := store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 1)

	_, err = store.Get(s.ctx, domain.NewID())
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *MongoIntegrationSuite) TestFavoriteSaveIsIdempotent() {
	store := NewFavoriteStore(s.db)
	items := remoteItems(3)

	first, err := store.Save(s.ctx, s.owner.ID, items)
	s.Require().NoError(err)
	s.Require().Len(first, 3)

	second, err := store.Save(s.ctx, s.owner.ID, items[1:])
	s.Require().NoError(err)
	s.Require().Len(second, 2)
	s.Equal(first[1].ID, second[0].ID)

	all, err := store.Query(s.ctx, domain.FavoriteFilter{OwnerID: s.owner.ID})
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Equal("a", all[0].RemoteID)
	s.Equal("c", all[2].RemoteID)
}

func (s *MongoIntegrationSuite) TestFavoriteQueryWindow() {
	store := NewFavoriteStore(s.db)
	items := remoteItems(5)
	_, err := store.Save(s.ctx, s.owner.ID, items)
	s.Require().NoError(err)

	got, err := store.Query(s.ctx, domain.FavoriteFilter{
		OwnerID: s.owner.ID,
		Since:   items[3].CreatedAt,
		Before:  items[0].CreatedAt,
		Limit:   2,
	})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("b", got[0].RemoteID)
	s.Equal("c", got[1].RemoteID)
}

func (s *MongoIntegrationSuite) TestFavoriteQueryBeforeCursorKeepsTies() {
	store := NewFavoriteStore(s.db)
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Save(s.ctx, s.owner.ID, []domain.RemoteItem{
		{ID: "20", CreatedAt: at},
		{ID: "9", CreatedAt: at},
		{ID: "1", CreatedAt: at.Add(-time.Minute)},
	})
	s.Require().NoError(err)

	got, err := store.Query(s.ctx, domain.FavoriteFilter{
		OwnerID:        s.owner.ID,
		Before:         at,
		BeforeRemoteID: "20",
	})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("9", got[0].RemoteID)
	s.Equal("1", got[1].RemoteID)
}

func (s *MongoIntegrationSuite) TestFavoriteFilingAndClear() {
	favs := NewFavoriteStore(s.db)
	colls := NewCollectionStore(s.db)

	saved, err := favs.Save(s.ctx, s.owner.ID, remoteItems(2))
	s.Require().NoError(err)

	c := &domain.Collection{ID: domain.NewID(), OwnerID: s.owner.ID, Name: "Read later", CreatedAt: time.Now().UTC()}
	s.Require().NoError(colls.Create(s.ctx, c))

	updated, err := favs.Update(s.ctx, s.owner.ID, saved[0].ID, domain.FavoritePatch{
		Processed:    domain.Bool(true),
		CollectionID: &c.ID,
	})
	s.Require().NoError(err)
	s.True(updated.Processed)
	s.Require().NotNil(updated.CollectionID)
	s.Equal(c.ID, *updated.CollectionID)

	unprocessed, err := favs.Query(s.ctx, domain.FavoriteFilter{OwnerID: s.owner.ID, Processed: domain.Bool(false)})
	s.Require().NoError(err)
	s.Len(unprocessed, 1)

	filed, err := favs.Query(s.ctx, domain.FavoriteFilter{OwnerID: s.owner.ID, CollectionID: c.ID})
	s.Require().NoError(err)
	s.Len(filed, 1)

	s.Require().NoError(colls.Delete(s.ctx, s.owner.ID, c.ID))
	s.Require().NoError(favs.ClearCollection(s.ctx, s.owner.ID, c.ID))

	got, err := favs.Get(s.ctx, s.owner.ID, saved[0].ID)
	s.Require().NoError(err)
	s.Nil(got.CollectionID)
	s.True(got.Processed)

	_, err = favs.Update(s.ctx, s.owner.ID, domain.NewID(), domain.FavoritePatch{Processed: domain.Bool(true)})
	s.ErrorIs(err, domain.ErrNotFound)

	err = colls.Delete(s.ctx, s.owner.ID, c.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *MongoIntegrationSuite) TestRanges() {
	store := NewRangeStore(s.db)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	none, err := store.Newest(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Nil(none)

	upper := &domain.Range{ID: domain.NewID(), OwnerID: s.owner.ID, StartID: "9", StartTime: base, EndID: "7", EndTime: base.Add(-2 * time.Hour)}
	lower := &domain.Range{ID: domain.NewID(), OwnerID: s.owner.ID, StartID: "5", StartTime: base.Add(-4 * time.Hour), EndID: "3", EndTime: base.Add(-6 * time.Hour)}
	s.Require().NoError(store.Create(s.ctx, upper))
	s.Require().NoError(store.Create(s.ctx, lower))

	newest, err := store.Newest(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal(upper.ID, newest.ID)

	prev, err := store.NewestBefore(s.ctx, s.owner.ID, upper.EndTime)
	s.Require().NoError(err)
	s.Equal(lower.ID, prev.ID)

	containing, err := store.Containing(s.ctx, s.owner.ID, base.Add(-5*time.Hour))
	s.Require().NoError(err)
	s.Equal(lower.ID, containing.ID)

	gap, err := store.Containing(s.ctx, s.owner.ID, base.Add(-3*time.Hour))
	s.Require().NoError(err)
	s.Nil(gap)

	s.Require().NoError(store.MarkLast(s.ctx, s.owner.ID, lower.ID))
	s.Require().NoError(store.Delete(s.ctx, s.owner.ID, []string{upper.ID}))

	rs, err := store.List(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(rs, 1)
	s.True(rs[0].IsLast)

	s.ErrorIs(store.MarkLast(s.ctx, s.owner.ID, upper.ID), domain.ErrNotFound)
}
