package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"faves_sorter/internal/domain"
)

// FavoriteStore keeps favorites in process memory. It backs development
// runs and unit tests.
type FavoriteStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Favorite
	byRemote map[string]string // owner/remote id -> id
	now      func() time.Time
}

func NewFavoriteStore() *FavoriteStore {
	return &FavoriteStore{
		byID:     make(map[string]*domain.Favorite),
		byRemote: make(map[string]string),
		now:      time.Now,
	}
}

func remoteKey(ownerID, remoteID string) string {
	return ownerID + "/" + remoteID
}

func (s *FavoriteStore) Save(_ context.Context, ownerID string, items []domain.RemoteItem) ([]domain.Favorite, error) {
	if len(items) == 0 {
		return []domain.Favorite{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	saved := make([]domain.Favorite, 0, len(items))
	for _, item := range items {
		key := remoteKey(ownerID, item.ID)
		if id, ok := s.byRemote[key]; ok {
			saved = append(saved, *s.byID[id])
			continue
		}

		f := &domain.Favorite{
			ID:        domain.NewID(),
			RemoteID:  item.ID,
			OwnerID:   ownerID,
			Text:      item.Text,
			CreatedAt: item.CreatedAt.UTC(),
			CachedAt:  now,
		}
		s.byID[f.ID] = f
		s.byRemote[key] = f.ID
		saved = append(saved, *f)
	}

	return saved, nil
}

func (s *FavoriteStore) Query(_ context.Context, filter domain.FavoriteFilter) ([]domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Favorite, 0)
	for _, f := range s.byID {
		if filter.Matches(f) {
			matched = append(matched, f)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return domain.Newer(matched[i], matched[j])
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	result := make([]domain.Favorite, len(matched))
	for i, f := range matched {
		result[i] = *f
	}
	return result, nil
}

func (s *FavoriteStore) Get(_ context.Context, ownerID, id string) (*domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.byID[id]
	if !ok || f.OwnerID != ownerID {
		return nil, fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (s *FavoriteStore) GetByRemoteID(_ context.Context, ownerID, remoteID string) (*domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRemote[remoteKey(ownerID, remoteID)]
	if !ok {
		return nil, fmt.Errorf("favorite with remote id %s: %w", remoteID, domain.ErrNotFound)
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *FavoriteStore) Update(_ context.Context, ownerID, id string, patch domain.FavoritePatch) (*domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byID[id]
	if !ok || f.OwnerID != ownerID {
		return nil, fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
	}
	if patch.Processed != nil {
		f.Processed = *patch.Processed
	}
	if patch.CollectionID != nil {
		f.CollectionID = domain.String(*patch.CollectionID)
	}
	cp := *f
	return &cp, nil
}

func (s *FavoriteStore) ClearCollection(_ context.Context, ownerID, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.byID {
		if f.OwnerID == ownerID && f.CollectionID != nil && *f.CollectionID == collectionID {
			f.CollectionID = nil
		}
	}
	return nil
}
