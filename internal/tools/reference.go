package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerReferenceTools(s *server.MCPServer, svc Service) {
	s.AddTool(mcp.NewTool("get_supported_languages",
		mcp.WithDescription("Get the languages enabled for this ETIM account."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(svc.AllowedLanguages(ctx))
	})

	s.AddTool(mcp.NewTool("get_all_languages",
		mcp.WithDescription("Get every language known to ETIM, regardless of account restrictions."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(svc.AllLanguages(ctx))
	})

	s.AddTool(mcp.NewTool("get_etim_releases",
		mcp.WithDescription("Get the list of ETIM release versions."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(svc.Releases(ctx))
	})

	s.AddTool(mcp.NewTool("health_check",
		mcp.WithDescription("Check connectivity to the cache store and the ETIM API."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		health := svc.CheckHealth(ctx)

		status := "healthy"
		if !health.Store || !health.Upstream {
			status = "degraded"
		}

		payload, err := json.Marshal(map[string]any{
			"status":   status,
			"store":    connectionWord(health.Store),
			"etim_api": connectionWord(health.Upstream),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(payload)), nil
	})

	s.AddTool(mcp.NewTool("refresh_token",
		mcp.WithDescription("Force a refresh of the cached ETIM API token."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := svc.RefreshToken(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("token refreshed"), nil
	})
}

func connectionWord(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}
