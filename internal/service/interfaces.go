package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"faves_sorter/internal/domain"
)

// RemoteSource fetches up to q.Count liked items, newest-first.
type RemoteSource interface {
	ListFavorites(ctx context.Context, q domain.FetchQuery) ([]domain.RemoteItem, error)
}

// FavoriteStore persists cached favorites. Save is insert-or-ignore on
// (owner, remote id) and returns the stored rows in input order.
type FavoriteStore interface {
	Save(ctx context.Context, ownerID string, items []domain.RemoteItem) ([]domain.Favorite, error)
	Query(ctx context.Context, filter domain.FavoriteFilter) ([]domain.Favorite, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Favorite, error)
	GetByRemoteID(ctx context.Context, ownerID, remoteID string) (*domain.Favorite, error)
	Update(ctx context.Context, ownerID, id string, patch domain.FavoritePatch) (*domain.Favorite, error)
	ClearCollection(ctx context.Context, ownerID, collectionID string) error
}

// RangeStore persists synchronized ranges. Lookups return nil, nil when
// nothing matches.
type RangeStore interface {
	Newest(ctx context.Context, ownerID string) (*domain.Range, error)
	NewestBefore(ctx context.Context, ownerID string, t time.Time) (*domain.Range, error)
	Containing(ctx context.Context, ownerID string, t time.Time) (*domain.Range, error)
	Create(ctx context.Context, r *domain.Range) error
	MarkLast(ctx context.Context, ownerID, id string) error
	Delete(ctx context.Context, ownerID string, ids []string) error
	List(ctx context.Context, ownerID string) ([]domain.Range, error)
}

type CollectionStore interface {
	Create(ctx context.Context, c *domain.Collection) error
	List(ctx context.Context, ownerID string) ([]domain.Collection, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Collection, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// UserStore keeps authenticated users. Upsert matches on RemoteUserID and
// fills in ID and CreatedAt.
type UserStore interface {
	Upsert(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, fav *domain.Favorite, action string) error
	Close() error
}
