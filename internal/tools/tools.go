package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxPageSize caps result pages, matching the upstream API limit.
const maxPageSize = 100

// Register adds every tool, resource and prompt to the MCP server.
func Register(s *server.MCPServer, svc Service) {
	registerClassTools(s, svc)
	registerSearchTools(s, svc)
	registerDetailTools(s, svc)
	registerReferenceTools(s, svc)
	registerResources(s, svc)
	registerPrompts(s)
}

// result converts a dispatcher response into a tool result. Classified errors
// become MCP error results rather than protocol failures.
func result(payload json.RawMessage, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// bindSlice decodes a structured argument through a JSON round trip, so array
// and object arguments share the descriptor struct tags.
func bindSlice[T any](req mcp.CallToolRequest, key string) ([]T, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("argument %q is not encodable: %w", key, err)
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("argument %q is malformed: %w", key, err)
	}
	return out, nil
}

func pageSize(req mcp.CallToolRequest) int {
	size := req.GetInt("max_results", 10)
	if size > maxPageSize {
		size = maxPageSize
	}
	return size
}
