package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"faves_sorter/internal/domain"
)

type UserStore struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	byRemote map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:    make(map[string]*domain.User),
		byRemote: make(map[string]string),
	}
}

func (s *UserStore) Upsert(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := s.byRemote[user.RemoteUserID]; ok {
		existing := s.users[id]
		existing.ScreenName = user.ScreenName
		existing.OAuthToken = user.OAuthToken
		existing.OAuthTokenSecret = user.OAuthTokenSecret
		existing.UpdatedAt = now
		*user = *existing
		return nil
	}

	user.ID = domain.NewID()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	s.users[user.ID] = &cp
	s.byRemote[user.RemoteUserID] = user.ID
	return nil
}

func (s *UserStore) Get(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
