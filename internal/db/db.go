// Package db describes the key-value backend bookrag talks to. Only the
// embedding cache uses it; entries themselves live in process memory.
package db

import (
	"context"
	"time"
)

// Store is a connected Valkey or Redis client.
//
// Get returns ErrKeyNotFound for a missing key. SetWithTTL with a
// non-positive ttl behaves like Set.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Ping(ctx context.Context) error
	// WaitForReady polls Ping until it succeeds or timeout elapses.
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}
