package session

import (
	"context"
	"sync"
	"time"
)

type memItem struct {
	value   string
	expires time.Time
}

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memItem{}, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.items[key] = memItem{value: value, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	delete(s.items, key)
	if !ok || !s.now().Before(it.expires) {
		return "", notFound(key)
	}
	return it.value, nil
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for k, it := range s.items {
		if !now.Before(it.expires) {
			delete(s.items, k)
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
