package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// codedEntry is the common shape of reference listings (languages, releases).
type codedEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func registerResources(s *server.MCPServer, svc Service) {
	s.AddResource(mcp.NewResource("etim://languages", "Supported languages",
		mcp.WithResourceDescription("Languages enabled for this ETIM account"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload, err := svc.AllowedLanguages(ctx)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      "etim://languages",
			MIMEType: "text/plain",
			Text:     formatListing("Supported Languages", payload),
		}}, nil
	})

	s.AddResource(mcp.NewResource("etim://releases", "ETIM releases",
		mcp.WithResourceDescription("Published ETIM release versions"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload, err := svc.Releases(ctx)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      "etim://releases",
			MIMEType: "text/plain",
			Text:     formatListing("ETIM Releases", payload),
		}}, nil
	})
}

// formatListing renders a reference payload as a titled bullet list. Payloads
// that do not match the expected shape are passed through as-is.
func formatListing(title string, payload json.RawMessage) string {
	var entries []codedEntry
	if err := json.Unmarshal(payload, &entries); err != nil || len(entries) == 0 {
		return title + ":\n" + string(payload)
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString(":")
	for _, entry := range entries {
		sb.WriteString("\n- ")
		sb.WriteString(entry.Code)
		if entry.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(entry.Description)
		}
	}
	return sb.String()
}
