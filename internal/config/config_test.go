package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ETIM_CLIENT_ID", "test-client")
	t.Setenv("ETIM_CLIENT_SECRET", "test-secret")
	t.Setenv("STORE_TYPE", "memory")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://etimauth.etim-international.com", cfg.Etim.AuthURL)
	assert.Equal(t, "https://etimapi.etim-international.com", cfg.Etim.APIURL)
	assert.Equal(t, "EtimApi", cfg.Etim.Scope)
	assert.Equal(t, "EN", cfg.Etim.DefaultLanguage)
	assert.Equal(t, 5*time.Minute, cfg.Etim.TokenExpiryBuffer)
	assert.Equal(t, 30*time.Second, cfg.Etim.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.Cache.SearchTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DetailTTL)
	assert.Equal(t, 168*time.Hour, cfg.Cache.ReferenceTTL)
	assert.Equal(t, 0, cfg.Server.DiagnosticsPort)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("STORE_TYPE", "memory")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoad_ValkeyRequiresAddress(t *testing.T) {
	t.Setenv("ETIM_CLIENT_ID", "test-client")
	t.Setenv("ETIM_CLIENT_SECRET", "test-secret")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "VALKEY_ADDRESS required")
}

func TestLoad_Valkey(t *testing.T) {
	t.Setenv("ETIM_CLIENT_ID", "test-client")
	t.Setenv("ETIM_CLIENT_SECRET", "test-secret")
	t.Setenv("VALKEY_ADDRESS", "localhost:6379")
	t.Setenv("VALKEY_TLS", "false")
	t.Setenv("VALKEY_USERNAME", "app")
	t.Setenv("VALKEY_PASSWORD", "hunter2")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	expected := ValkeyConfig{
		Address:  "localhost:6379",
		TLS:      false,
		Username: "app",
		Password: "hunter2",
	}
	assert.Equal(t, "valkey", cfg.Store.Type)
	assert.Equal(t, expected, cfg.Store.Valkey)
}

func TestStoreConfig_InvalidType(t *testing.T) {
	cfg := StoreConfig{Type: "postgres"}
	assert.ErrorContains(t, cfg.Validate(), "invalid store type")
}
