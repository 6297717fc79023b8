package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/justinas/alice"
	"github.com/rs/zerolog/log"
	"github.com/ziouzitsou/etim-mcp-server/internal/etim"
	"github.com/ziouzitsou/etim-mcp-server/internal/observe"
)

// healthChecker reports collaborator reachability for the diagnostics
// endpoint.
type healthChecker interface {
	CheckHealth(ctx context.Context) etim.Health
}

// diagnosticsHandler builds the handler for the optional diagnostics
// listener. The primary transport is stdio MCP; this surface exists for
// container orchestration probes.
func diagnosticsHandler(checker healthChecker) http.Handler {
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// Diagnostics requests carry no body worth reading.
	requestLimitBytes := int64(4 << 10) // 4 KB
	chain := alice.New(maxRequestSize(requestLimitBytes))

	mux.Handle("GET /healthcheck", chain.Then(handleHealthCheck(checker)))

	return mux
}

func handleHealthCheck(checker healthChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		health := checker.CheckHealth(r.Context())

		status := http.StatusOK
		if !health.Store || !health.Upstream {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(health); err != nil {
			// the status line is already written, logging is all that's left
			log.Info().Msgf("failed to write healthcheck response: %v", err)
		}
	})
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// drainRequestBody discards any remaining request body so HTTP/1 connections
// can be reused.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024)
	}
}
