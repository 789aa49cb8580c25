package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that retried submissions are
// not executed twice. Keys expire after their TTL.
type IdempotencyStore interface {
	// Reserve atomically records the key. It returns true when the key was
	// newly recorded and false when it is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Held reports whether the key is currently recorded.
	Held(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
