package store

import (
	"crypto/tls"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
	"github.com/ziouzitsou/etim-mcp-server/internal/config"
)

// NewFromConfig creates a store implementation based on the provided
// configuration. It returns the store and any error encountered.
//
// The store type must be either "valkey" or "memory". Any other value returns
// an error.
func NewFromConfig(storeConfig config.StoreConfig, maxMemorySize int) (Store, error) {
	switch storeConfig.Type {
	case "valkey":
		log.Info().
			Str("store_type", "valkey").
			Str("address", storeConfig.Valkey.Address).
			Bool("tls", storeConfig.Valkey.TLS).
			Msg("initializing distributed store")

		if storeConfig.Valkey.Address == "" {
			return nil, fmt.Errorf("valkey address is required when store type is valkey")
		}

		valkeyOpts := valkey.ClientOption{
			InitAddress: []string{storeConfig.Valkey.Address},
			// The store is addressed per-request with explicit TTLs; no
			// client-side caching layer is used.
			DisableCache: true,
		}

		if storeConfig.Valkey.Username != "" || storeConfig.Valkey.Password != "" {
			valkeyOpts.AuthCredentialsFn = StaticCredentialsFn(
				storeConfig.Valkey.Username,
				storeConfig.Valkey.Password,
			)
		}

		if storeConfig.Valkey.TLS {
			valkeyOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		valkeyClient, err := valkey.NewClient(valkeyOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create valkey client: %w", err)
		}

		return NewInstrumented(NewValkey(valkeyClient), "valkey"), nil

	case "memory":
		log.Info().
			Str("store_type", "memory").
			Msg("initializing in-memory store")

		memory, err := NewMemory(maxMemorySize)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}

		return NewInstrumented(memory, "memory"), nil

	default:
		return nil, fmt.Errorf("invalid store type %q: must be either \"valkey\" or \"memory\"", storeConfig.Type)
	}
}

// StaticCredentialsFn returns an AuthCredentialsFn that always returns the
// configured username and password.
func StaticCredentialsFn(username, password string) func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
	return func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
		return valkey.AuthCredentials{
			Username: username,
			Password: password,
		}, nil
	}
}
