package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ziouzitsou/etim-mcp-server/internal/auth"
	"github.com/ziouzitsou/etim-mcp-server/internal/config"
	"github.com/ziouzitsou/etim-mcp-server/internal/etim"
	"github.com/ziouzitsou/etim-mcp-server/internal/observe"
	"github.com/ziouzitsou/etim-mcp-server/internal/server"
	"github.com/ziouzitsou/etim-mcp-server/internal/store"
	"github.com/ziouzitsou/etim-mcp-server/internal/tools"
)

const serverVersion = "1.0.0"

// memoryStoreSize bounds the in-memory store backend. Valkey deployments
// ignore it.
const memoryStoreSize = 10_000

func main() {
	configureLogging()

	logBuildInfo()

	if err := launchServer(); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	var hooks server.Hooks

	// configure telemetry, including wrapping the outbound HTTP client
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}
	hooks.Add("telemetry", shutdownTelemetry)

	httpClient := &http.Client{
		Timeout: cfg.Etim.RequestTimeout,
		Transport: observe.HTTPTransport(
			configureHTTPTransport(cfg.Server),
			cfg.Observe,
		),
	}

	cacheStore, err := store.NewFromConfig(cfg.Store, memoryStoreSize)
	if err != nil {
		return fmt.Errorf("store configuration failed: %w", err)
	}
	hooks.AddCloser("store", cacheStore)

	tokens := auth.NewManager(cfg.Etim, cacheStore, httpClient)

	client := etim.NewClient(cfg.Etim, etim.TTLTiers{
		Search:    cfg.Cache.SearchTTL,
		Detail:    cfg.Cache.DetailTTL,
		Reference: cfg.Cache.ReferenceTTL,
	}, cacheStore, tokens, httpClient)

	mcp := mcpserver.NewMCPServer(
		"ETIM MCP",
		serverVersion,
		mcpserver.WithRecovery(),
		mcpserver.WithToolCapabilities(false),
	)
	tools.Register(mcp, client)

	if cfg.Server.DiagnosticsPort > 0 {
		stopDiagnostics := serveDiagnostics(cfg.Server.DiagnosticsPort, diagnosticsHandler(client))
		hooks.Add("diagnostics listener", stopDiagnostics)
	}

	log.Info().Str("version", serverVersion).Msg("serving MCP on stdio")
	serveErr := mcpserver.ServeStdio(mcp)

	shutdownCtx, cancel := context.WithTimeout(ctx,
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	hooks.Run(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("stdio server failed: %w", serveErr)
	}
	return nil
}

// serveDiagnostics starts the diagnostics HTTP listener in the background,
// returning a function that shuts it down gracefully.
func serveDiagnostics(port int, handler http.Handler) func(context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("diagnostics listener starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("diagnostics listener failed")
		}
	}()

	return srv.Shutdown
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to be
	// configured separately. However, it means that any logger that sets its
	// level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info; logs go to stderr because stdout carries the MCP
	// protocol stream
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
