package twitter

import (
	"context"
	"fmt"
	"log/slog"

	"faves_sorter/internal/domain"
)

type favoritesAPI interface {
	Favorites(ctx context.Context, q domain.FetchQuery) ([]Tweet, error)
}

// FavoritesSource collects up to Count liked items across as many single-page
// calls as needed. Results are newest-first and strictly older than MaxID.
type FavoritesSource struct {
	api      favoritesAPI
	pageSize int
	logger   *slog.Logger
}

func NewFavoritesSource(api favoritesAPI, pageSize int, logger *slog.Logger) *FavoritesSource {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &FavoritesSource{
		api:      api,
		pageSize: pageSize,
		logger:   logger,
	}
}

func (s *FavoritesSource) ListFavorites(ctx context.Context, q domain.FetchQuery) ([]domain.RemoteItem, error) {
	if q.ScreenName == "" {
		return nil, domain.NewValidationError("missing screen_name param")
	}

	want := q.Count
	if want <= 0 {
		want = s.pageSize
	}

	items := make([]domain.RemoteItem, 0, want)
	seen := make(map[string]struct{}, want)
	cursor := q.MaxID

	// every productive call adds at least one item, so want+1 calls always suffice
	for calls := 0; len(items) < want && calls <= want; calls++ {
		page := q
		page.Count = s.pageSize
		page.MaxID = cursor

		tweets, err := s.api.Favorites(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("list favorites: %w", err)
		}

		advanced := false
		for _, t := range tweets {
			if t.IDStr == cursor {
				continue
			}
			if _, dup := seen[t.IDStr]; dup {
				continue
			}
			advanced = true
			seen[t.IDStr] = struct{}{}

			// a dropped item would sit inside the range recorded for this fetch
			item, err := t.RemoteItem()
			if err != nil {
				s.logger.Warn("malformed favorite", "id_str", t.IDStr, "error", err)
				return nil, fmt.Errorf("%w: malformed favorite %s: %w", domain.ErrRemote, t.IDStr, err)
			}
			items = append(items, item)
			if len(items) == want {
				break
			}
		}

		s.logger.Debug("fetched favorites page",
			"call", calls,
			"returned", len(tweets),
			"total", len(items),
		)

		if !advanced {
			break
		}
		cursor = tweets[len(tweets)-1].IDStr
	}

	return items, nil
}
