package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"faves_sorter/internal/domain"
)

type RangeStore struct {
	mu     sync.RWMutex
	ranges map[string]*domain.Range
}

func NewRangeStore() *RangeStore {
	return &RangeStore{ranges: make(map[string]*domain.Range)}
}

// newestWhere returns the owner's range with the latest start time among
// those accepted by keep.
func (s *RangeStore) newestWhere(ownerID string, keep func(r *domain.Range) bool) *domain.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Range
	for _, r := range s.ranges {
		if r.OwnerID != ownerID || !keep(r) {
			continue
		}
		if best == nil || r.StartTime.After(best.StartTime) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func (s *RangeStore) Newest(_ context.Context, ownerID string) (*domain.Range, error) {
	return s.newestWhere(ownerID, func(*domain.Range) bool { return true }), nil
}

func (s *RangeStore) NewestBefore(_ context.Context, ownerID string, t time.Time) (*domain.Range, error) {
	return s.newestWhere(ownerID, func(r *domain.Range) bool { return r.StartTime.Before(t) }), nil
}

func (s *RangeStore) Containing(_ context.Context, ownerID string, t time.Time) (*domain.Range, error) {
	return s.newestWhere(ownerID, func(r *domain.Range) bool { return r.Contains(t) }), nil
}

func (s *RangeStore) Create(_ context.Context, r *domain.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ranges[r.ID]; exists {
		return fmt.Errorf("range %s already exists", r.ID)
	}
	cp := *r
	s.ranges[r.ID] = &cp
	return nil
}

func (s *RangeStore) MarkLast(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.ranges[id]
	if !ok || r.OwnerID != ownerID {
		return fmt.Errorf("range %s: %w", id, domain.ErrNotFound)
	}
	r.IsLast = true
	return nil
}

func (s *RangeStore) Delete(_ context.Context, ownerID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if r, ok := s.ranges[id]; ok && r.OwnerID == ownerID {
			delete(s.ranges, id)
		}
	}
	return nil
}

// List returns the owner's ranges ordered by start time, newest first.
func (s *RangeStore) List(_ context.Context, ownerID string) ([]domain.Range, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Range, 0)
	for _, r := range s.ranges {
		if r.OwnerID == ownerID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	return result, nil
}
