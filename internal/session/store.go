// Package session keeps short-lived OAuth handshake secrets between the
// sign-in redirect and the callback.
package session

import (
	"context"
	"fmt"
	"time"

	"faves_sorter/internal/domain"
)

type Store interface {
	// Put stores value under key for ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Take returns the value under key and removes it. A missing or expired
	// key yields domain.ErrNotFound.
	Take(ctx context.Context, key string) (string, error)
	Close() error
}

const keyPrefix = "faves:handshake:"

func notFound(key string) error {
	return fmt.Errorf("handshake %s: %w", key, domain.ErrNotFound)
}
