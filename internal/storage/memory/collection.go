package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"faves_sorter/internal/domain"
)

type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string]*domain.Collection
}

func NewCollectionStore() *CollectionStore {
	return &CollectionStore{collections: make(map[string]*domain.Collection)}
}

func (s *CollectionStore) Create(_ context.Context, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.collections[c.ID] = &cp
	return nil
}

func (s *CollectionStore) List(_ context.Context, ownerID string) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Collection, 0)
	for _, c := range s.collections {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *CollectionStore) Get(_ context.Context, ownerID, id string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[id]
	if !ok || c.OwnerID != ownerID {
		return nil, fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *CollectionStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[id]
	if !ok || c.OwnerID != ownerID {
		return fmt.Errorf("collection %s: %w", id, domain.ErrNotFound)
	}
	delete(s.collections, id)
	return nil
}
