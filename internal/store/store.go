package store

import (
	"context"
	"time"
)

// Store defines the interface for the shared key-value store backing the
// response cache and the token entry. Payloads are opaque byte slices; keys
// follow the ":"-joined convention produced by the dispatcher.
type Store interface {
	// Get retrieves a payload from the store.
	// Returns the payload, whether it was found, and any error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a payload under key for the given TTL. Entries are always
	// overwritten whole; the store never mutates an entry in place.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes a payload from the store.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) bool

	// Close releases any resources held by the store.
	Close() error
}
