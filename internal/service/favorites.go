package service

import (
	"context"
	"fmt"
	"log/slog"

	"faves_sorter/internal/domain"
)

// FavoriteService implements filing: marking a favorite processed and
// optionally assigning it to a collection.
type FavoriteService struct {
	favorites   FavoriteStore
	collections CollectionStore
	publisher   Publisher
	logger      *slog.Logger
}

func NewFavoriteService(favorites FavoriteStore, collections CollectionStore, publisher Publisher, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		favorites:   favorites,
		collections: collections,
		publisher:   publisher,
		logger:      logger.With("component", "favorites"),
	}
}

func (s *FavoriteService) File(ctx context.Context, ownerID, id string, patch domain.FavoritePatch) (*domain.Favorite, error) {
	if !domain.ValidID(id) {
		return nil, domain.NewInvalidIDError("id parameter is invalid")
	}

	if patch.CollectionID != nil {
		if !domain.ValidID(*patch.CollectionID) {
			return nil, domain.NewInvalidIDError("collection_id is invalid")
		}
		if _, err := s.collections.Get(ctx, ownerID, *patch.CollectionID); err != nil {
			return nil, fmt.Errorf("find collection %s: %w", *patch.CollectionID, err)
		}
		patch.Processed = domain.Bool(true)
	}

	fav, err := s.favorites.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update favorite %s: %w", id, err)
	}

	s.logger.Info("favorite filed",
		"owner_id", ownerID,
		"favorite_id", fav.ID,
		"processed", fav.Processed,
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, fav, domain.ActionFiled); err != nil {
			s.logger.Warn("publish favorite", "favorite_id", fav.ID, "error", err)
		}
	}

	return fav, nil
}
