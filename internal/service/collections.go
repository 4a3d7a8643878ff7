package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"faves_sorter/internal/domain"
)

const invalidCollectionID = "Invalid collection id"

type CollectionService struct {
	collections CollectionStore
	favorites   FavoriteStore
	txManager   TransactionManager
	logger      *slog.Logger
}

func NewCollectionService(
	collections CollectionStore,
	favorites FavoriteStore,
	txManager TransactionManager,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{
		collections: collections,
		favorites:   favorites,
		txManager:   txManager,
		logger:      logger.With("component", "collections"),
	}
}

func (s *CollectionService) List(ctx context.Context, ownerID string) ([]domain.Collection, error) {
	cs, err := s.collections.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cs, nil
}

func (s *CollectionService) Create(ctx context.Context, ownerID, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("Name is required")
	}

	c := &domain.Collection{
		ID:        domain.NewID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.logger.Info("collection created", "owner_id", ownerID, "collection_id", c.ID)
	return c, nil
}

func (s *CollectionService) Get(ctx context.Context, ownerID, id string) (*domain.Collection, error) {
	if !domain.ValidID(id) {
		return nil, domain.NewInvalidIDError(invalidCollectionID)
	}
	c, err := s.collections.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}
	return c, nil
}

// Delete removes the collection. Favorites filed into it stay processed.
func (s *CollectionService) Delete(ctx context.Context, ownerID, id string) error {
	if !domain.ValidID(id) {
		return domain.NewInvalidIDError(invalidCollectionID)
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.collections.Delete(txCtx, ownerID, id); err != nil {
			return fmt.Errorf("delete collection %s: %w", id, err)
		}
		if err := s.favorites.ClearCollection(txCtx, ownerID, id); err != nil {
			return fmt.Errorf("clear collection %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("collection deleted", "owner_id", ownerID, "collection_id", id)
	return nil
}

// Favorites lists the favorites filed into the collection, newest-first.
func (s *CollectionService) Favorites(ctx context.Context, ownerID, id string) ([]domain.Favorite, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}

	favs, err := s.favorites.Query(ctx, domain.FavoriteFilter{
		OwnerID:      ownerID,
		CollectionID: id,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection favorites: %w", err)
	}
	return favs, nil
}
