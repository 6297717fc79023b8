package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ziouzitsou/etim-mcp-server/internal/etim"
)

func registerSearchTools(s *server.MCPServer, svc Service) {
	type searchFn func(context.Context, etim.Search) (json.RawMessage, error)

	plainSearches := []struct {
		name        string
		description string
		fn          searchFn
	}{
		{"search_features", "Search ETIM features (product characteristics) by keyword.", svc.SearchFeatures},
		{"search_groups", "Search ETIM product groups by keyword.", svc.SearchGroups},
		{"search_feature_groups", "Search ETIM feature groups by keyword.", svc.SearchFeatureGroups},
	}

	for _, search := range plainSearches {
		fn := search.fn
		s.AddTool(mcp.NewTool(search.name,
			mcp.WithDescription(search.description),
			mcp.WithString("search_text", mcp.Required(), mcp.Description("Search query")),
			mcp.WithString("language", mcp.Description("Language code")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (1-100, default 10)")),
			mcp.WithNumber("offset", mcp.Description("Pagination offset (default 0)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := req.RequireString("search_text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return result(fn(ctx, etim.Search{
				Text:     text,
				Language: req.GetString("language", ""),
				From:     req.GetInt("offset", 0),
				Size:     pageSize(req),
			}))
		})
	}

	type deprecableFn func(context.Context, etim.DeprecableSearch) (json.RawMessage, error)

	deprecableSearches := []struct {
		name        string
		description string
		fn          deprecableFn
	}{
		{"search_values", "Search ETIM feature values by keyword.", svc.SearchValues},
		{"search_units", "Search ETIM measurement units by keyword.", svc.SearchUnits},
	}

	for _, search := range deprecableSearches {
		fn := search.fn
		s.AddTool(mcp.NewTool(search.name,
			mcp.WithDescription(search.description),
			mcp.WithString("search_text", mcp.Required(), mcp.Description("Search query")),
			mcp.WithString("language", mcp.Description("Language code")),
			mcp.WithNumber("max_results", mcp.Description("Maximum number of results (1-100, default 10)")),
			mcp.WithNumber("offset", mcp.Description("Pagination offset (default 0)")),
			mcp.WithBoolean("include_deprecated", mcp.Description("Include deprecated entries (default false)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := req.RequireString("search_text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return result(fn(ctx, etim.DeprecableSearch{
				Text:       text,
				Language:   req.GetString("language", ""),
				From:       req.GetInt("offset", 0),
				Size:       pageSize(req),
				Deprecated: req.GetBool("include_deprecated", false),
			}))
		})
	}
}

func registerDetailTools(s *server.MCPServer, svc Service) {
	type detailsFn func(context.Context, etim.DetailsQuery) (json.RawMessage, error)

	details := []struct {
		name        string
		codeArg     string
		description string
		fn          detailsFn
	}{
		{"get_feature_details", "feature_code",
			"Get details of an ETIM feature (e.g. \"EF007793\"), including its type and values.", svc.FeatureDetails},
		{"get_value_details", "value_code",
			"Get details of an ETIM feature value (e.g. \"EV000139\").", svc.ValueDetails},
		{"get_unit_details", "unit_code",
			"Get details of an ETIM measurement unit (e.g. \"EU570448\").", svc.UnitDetails},
		{"get_feature_group_details", "feature_group_code",
			"Get details of an ETIM feature group.", svc.FeatureGroupDetails},
	}

	for _, detail := range details {
		codeArg := detail.codeArg
		fn := detail.fn
		s.AddTool(mcp.NewTool(detail.name,
			mcp.WithDescription(detail.description),
			mcp.WithString(codeArg, mcp.Required(), mcp.Description("ETIM entity code")),
			mcp.WithString("language", mcp.Description("Language code")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			code, err := req.RequireString(codeArg)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return result(fn(ctx, etim.DetailsQuery{
				Code:     code,
				Language: req.GetString("language", ""),
			}))
		})
	}

	// Group details takes an extra flag, so it cannot share the table above.
	s.AddTool(mcp.NewTool("get_group_details",
		mcp.WithDescription("Get details of an ETIM product group (e.g. \"EG000017\")."),
		mcp.WithString("group_code", mcp.Required(), mcp.Description("ETIM group code")),
		mcp.WithString("language", mcp.Description("Language code")),
		mcp.WithBoolean("include_releases", mcp.Description("Include the releases the group appears in (default false)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("group_code")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return result(svc.GroupDetails(ctx, etim.GroupDetailsQuery{
			Code:            code,
			Language:        req.GetString("language", ""),
			IncludeReleases: req.GetBool("include_releases", false),
		}))
	})
}
