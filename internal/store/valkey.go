package store

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey implements Store using a Valkey (Redis-compatible) server. Per-key
// operations are atomic on the server, so the store is safe for concurrent
// use without call-site locking.
type Valkey struct {
	client valkey.Client
}

// NewValkey creates a new Valkey-backed store.
func NewValkey(client valkey.Client) *Valkey {
	return &Valkey{client: client}
}

// Get retrieves a payload from the store.
// Returns the payload, whether it was found, and any error.
func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := v.client.B().Get().Key(key).Build()
	result := v.client.Do(ctx, cmd)

	if err := result.Error(); err != nil {
		// Key not found is not an error in our semantics
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get stored value: %w", err)
	}

	payload, err := result.AsBytes()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stored value: %w", err)
	}

	return payload, true, nil
}

// Set stores a payload with the given TTL.
func (v *Valkey) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	cmd := v.client.B().Set().Key(key).Value(valkey.BinaryString(payload)).ExSeconds(int64(ttl.Seconds())).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set stored value: %w", err)
	}
	return nil
}

// Delete removes a payload from the store.
func (v *Valkey) Delete(ctx context.Context, key string) error {
	cmd := v.client.B().Del().Key(key).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete stored value: %w", err)
	}
	return nil
}

// Ping reports whether the server responds.
func (v *Valkey) Ping(ctx context.Context) bool {
	cmd := v.client.B().Ping().Build()
	return v.client.Do(ctx, cmd).Error() == nil
}

// Close releases the client connection pool.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}
