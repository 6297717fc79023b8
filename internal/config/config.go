package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Etim    EtimConfig
	Store   StoreConfig
	Cache   CacheConfig
	Observe ObserveConfig
	Server  ServerConfig
}

// EtimConfig specifies the ETIM API and its OAuth2 token endpoint.
type EtimConfig struct {
	AuthURL string `env:"ETIM_AUTH_URL, default=https://etimauth.etim-international.com"`
	APIURL  string `env:"ETIM_API_URL, default=https://etimapi.etim-international.com"`

	ClientID     string `env:"ETIM_CLIENT_ID, required"`
	ClientSecret string `env:"ETIM_CLIENT_SECRET, required"`
	Scope        string `env:"ETIM_SCOPE, default=EtimApi"`

	DefaultLanguage string `env:"ETIM_DEFAULT_LANGUAGE, default=EN"`

	// TokenExpiryBuffer is subtracted from the token lifetime so a token is
	// never presented close to its upstream expiry.
	TokenExpiryBuffer time.Duration `env:"ETIM_TOKEN_EXPIRY_BUFFER, default=5m"`

	// RequestTimeout bounds every outbound call, token grants included.
	RequestTimeout time.Duration `env:"ETIM_REQUEST_TIMEOUT, default=30s"`
}

// StoreConfig specifies the key-value store backing the response cache.
type StoreConfig struct {
	// Type selects the store implementation: "valkey" (default) or "memory"
	Type string `env:"STORE_TYPE, default=valkey"`

	Valkey ValkeyConfig
}

// ValkeyConfig specifies the distributed store connection.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"VALKEY_ADDRESS"`

	// TLS enables TLS connection to Valkey. Defaults to true so the secure
	// option is the default.
	TLS bool `env:"VALKEY_TLS, default=true"`

	Username string `env:"VALKEY_USERNAME"`
	Password string `env:"VALKEY_PASSWORD"`
}

// CacheConfig holds the response TTL tiers, selected by query volatility.
type CacheConfig struct {
	// SearchTTL applies to search-style queries, which are the most volatile.
	SearchTTL time.Duration `env:"CACHE_SEARCH_TTL, default=1h"`

	// DetailTTL applies to entity detail lookups, which change rarely.
	DetailTTL time.Duration `env:"CACHE_DETAIL_TTL, default=24h"`

	// ReferenceTTL applies to near-static reference data (languages, releases).
	ReferenceTTL time.Duration `env:"CACHE_REFERENCE_TTL, default=168h"`
}

type ObserveConfig struct {
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=etim-mcp-server"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

type ServerConfig struct {
	// DiagnosticsPort exposes the healthcheck endpoint when non-zero. The
	// primary transport is stdio, so this is off by default.
	DiagnosticsPort        int `env:"SERVER_DIAGNOSTICS_PORT, default=0"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Store.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid store configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the store configuration is valid.
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "valkey":
		if c.Valkey.Address == "" {
			return fmt.Errorf("VALKEY_ADDRESS required when STORE_TYPE=valkey")
		}
	case "memory":
		// nothing to check
	default:
		return fmt.Errorf("invalid store type %q: must be either \"valkey\" or \"memory\"", c.Type)
	}

	return nil
}
