package store

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// memoryEntry carries the payload with its own deadline so that entries with
// different TTLs can share one otter cache.
type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is an in-memory store implementation using otter. It is intended for
// development and tests; production deployments use the Valkey store so the
// cache survives restarts and is shared between processes.
type Memory struct {
	cache   *otter.Cache[string, memoryEntry]
	counter *stats.Counter
	now     func() time.Time
}

// NewMemory creates a new in-memory store with the specified max size.
func NewMemory(maxSize int) (*Memory, error) {
	counter := stats.NewCounter()
	cache := otter.Must(&otter.Options[string, memoryEntry]{
		MaximumSize:   maxSize,
		StatsRecorder: counter,
	})

	return &Memory{
		cache:   cache,
		counter: counter,
		now:     time.Now,
	}, nil
}

// Get retrieves a payload from the store. Expired entries are invalidated
// lazily and reported as missing.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok := m.cache.GetEntry(key)
	if !ok {
		return nil, false, nil
	}

	if m.now().After(entry.Value.expiresAt) {
		m.cache.Invalidate(key)
		return nil, false, nil
	}

	return entry.Value.payload, true, nil
}

// Set stores a payload with a per-entry TTL.
func (m *Memory) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	m.cache.Set(key, memoryEntry{
		payload:   payload,
		expiresAt: m.now().Add(ttl),
	})
	return nil
}

// Delete removes a payload from the store.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.cache.Invalidate(key)
	return nil
}

// Ping always succeeds for the in-process store.
func (m *Memory) Ping(ctx context.Context) bool {
	return true
}

// Close releases resources held by the store.
func (m *Memory) Close() error {
	m.cache.InvalidateAll()
	return nil
}
