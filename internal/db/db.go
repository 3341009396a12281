// Package db defines the key-value store contract used for shared caching.
package db

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound marks a cache miss.
var ErrKeyNotFound = errors.New("db: key not found")

// Store is the cache-store facade.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
