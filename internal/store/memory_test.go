package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGet_NotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemory(100)
	require.NoError(t, err)

	payload, found, err := s.Get(ctx, "nonexistent")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, payload)
}

func TestMemorySetAndGet_Success(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemory(100)
	require.NoError(t, err)

	expected := []byte(`{"total":3}`)

	err = s.Set(ctx, "test-key", expected, time.Minute)
	require.NoError(t, err)

	payload, found, err := s.Get(ctx, "test-key")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, expected, payload)
}

func TestMemoryDelete_RemovesPayload(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemory(100)
	require.NoError(t, err)

	err = s.Set(ctx, "test-key", []byte("data"), time.Minute)
	require.NoError(t, err)

	err = s.Delete(ctx, "test-key")
	require.NoError(t, err)

	_, found, err := s.Get(ctx, "test-key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemory(100)
	require.NoError(t, err)

	// Control the clock so expiry is deterministic.
	now := time.Now()
	s.now = func() time.Time { return now }

	err = s.Set(ctx, "test-key", []byte("data"), time.Minute)
	require.NoError(t, err)

	_, found, err := s.Get(ctx, "test-key")
	assert.NoError(t, err)
	assert.True(t, found)

	now = now.Add(time.Minute + time.Second)

	_, found, err = s.Get(ctx, "test-key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryPerEntryTTL(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemory(100)
	require.NoError(t, err)

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "long", []byte("b"), time.Hour))

	now = now.Add(10 * time.Minute)

	_, found, _ := s.Get(ctx, "short")
	assert.False(t, found)

	_, found, _ = s.Get(ctx, "long")
	assert.True(t, found)
}

func TestMemoryPing(t *testing.T) {
	s, err := NewMemory(100)
	require.NoError(t, err)

	assert.True(t, s.Ping(context.Background()))
}
