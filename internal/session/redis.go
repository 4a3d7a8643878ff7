package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"faves_sorter/internal/config"
)

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies it answers a PING.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("store handshake: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, key string) (string, error) {
	v, err := s.client.GetDel(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", notFound(key)
	}
	if err != nil {
		return "", fmt.Errorf("load handshake: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
