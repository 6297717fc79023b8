package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziouzitsou/etim-mcp-server/internal/etim"
)

type staticHealth struct {
	health etim.Health
}

func (s staticHealth) CheckHealth(ctx context.Context) etim.Health {
	return s.health
}

func TestHealthCheck_Healthy(t *testing.T) {
	handler := diagnosticsHandler(staticHealth{etim.Health{Store: true, Upstream: true}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"store":true,"upstream":true}`, rec.Body.String())
}

func TestHealthCheck_Degraded(t *testing.T) {
	handler := diagnosticsHandler(staticHealth{etim.Health{Store: false, Upstream: true}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"store":false,"upstream":true}`, rec.Body.String())
}

func TestHealthCheck_MethodNotAllowed(t *testing.T) {
	handler := diagnosticsHandler(staticHealth{etim.Health{Store: true, Upstream: true}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthcheck", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
