//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"faves_sorter/internal/config"
	"faves_sorter/internal/domain"
)

type RedisIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	store     *RedisStore
}

func (s *RedisIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	endpoint, err := container.Endpoint(s.ctx, "")
	s.Require().NoError(err)

	store, err := NewRedisStore(s.ctx, config.RedisConfig{Addr: endpoint})
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisIntegrationSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRedisIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) TestPutTake() {
	s.Require().NoError(s.store.Put(s.ctx, "tok", "sec", time.Minute))

	v, err := s.store.Take(s.ctx, "tok")
	s.Require().NoError(err)
	s.Equal("sec", v)

	_, err = s.store.Take(s.ctx, "tok")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RedisIntegrationSuite) TestExpiry() {
	s.Require().NoError(s.store.Put(s.ctx, "short", "sec", 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	_, err := s.store.Take(s.ctx, "short")
	s.ErrorIs(err, domain.ErrNotFound)
}
