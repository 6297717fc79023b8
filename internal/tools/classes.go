package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ziouzitsou/etim-mcp-server/internal/etim"
)

// compareLimit bounds side-by-side comparisons to keep responses readable.
const compareLimit = 5

// classRefArg is the wire shape of one entry in a batch class argument.
type classRefArg struct {
	Code    string `json:"code"`
	Version *int   `json:"version,omitempty"`
}

func registerClassTools(s *server.MCPServer, svc Service) {
	s.AddTool(mcp.NewTool("search_classes",
		mcp.WithDescription("Search ETIM product classes by keyword. "+
			"Optionally restrict results with a modelling flag or coded filters "+
			"(Release, Group, Class, Feature, Value)."),
		mcp.WithString("search_text", mcp.Required(), mcp.Description("Search query (e.g. \"cable\", \"downlight\")")),
		mcp.WithString("language", mcp.Description("Language code (EN, de-DE, nl-BE, ...)")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (1-100, default 10)")),
		mcp.WithNumber("offset", mcp.Description("Pagination offset (default 0)")),
		mcp.WithBoolean("modelling", mcp.Description("Restrict to modelling classes when set")),
		mcp.WithArray("filters", mcp.Description("Filters as objects with \"code\" and \"values\", "+
			"e.g. [{\"code\":\"Group\",\"values\":[\"EG000017\"]}]")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("search_text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		filters, err := bindSlice[etim.Filter](req, "filters")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		q := etim.ClassSearch{
			Text:     text,
			Language: req.GetString("language", ""),
			From:     req.GetInt("offset", 0),
			Size:     pageSize(req),
			Filters:  filters,
		}
		if _, ok := req.GetArguments()["modelling"]; ok {
			modelling := req.GetBool("modelling", false)
			q.Modelling = &modelling
		}

		return result(svc.SearchClasses(ctx, q))
	})

	s.AddTool(mcp.NewTool("get_class_details",
		mcp.WithDescription("Get detailed information about an ETIM product class, "+
			"including its description, group and optionally its full feature list."),
		mcp.WithString("class_code", mcp.Required(), mcp.Description("ETIM class code (e.g. \"EC001744\")")),
		mcp.WithNumber("version", mcp.Description("Specific version number (latest if omitted)")),
		mcp.WithString("language", mcp.Description("Language code")),
		mcp.WithBoolean("include_features", mcp.Description("Include the full feature list (default true)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("class_code")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		q := etim.ClassDetailsQuery{
			Code:            code,
			Language:        req.GetString("language", ""),
			IncludeFeatures: req.GetBool("include_features", true),
		}
		if _, ok := req.GetArguments()["version"]; ok {
			version := req.GetInt("version", 0)
			q.Version = &version
		}

		return result(svc.ClassDetails(ctx, q))
	})

	s.AddTool(mcp.NewTool("get_class_details_many",
		mcp.WithDescription("Get details for multiple ETIM classes in one request. "+
			"The response array mirrors the request order."),
		mcp.WithArray("classes", mcp.Required(), mcp.Description("Classes as objects with \"code\" and "+
			"optional \"version\", e.g. [{\"code\":\"EC001744\"},{\"code\":\"EC001679\",\"version\":5}]")),
		mcp.WithString("language", mcp.Description("Language code")),
		mcp.WithBoolean("include_features", mcp.Description("Include feature lists (default true)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		refs, err := bindSlice[classRefArg](req, "classes")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		classes := make([]etim.ClassRef, 0, len(refs))
		for _, ref := range refs {
			classes = append(classes, etim.ClassRef{Code: ref.Code, Version: ref.Version})
		}

		return result(svc.ClassDetailsMany(ctx, etim.ClassManyQuery{
			Classes:         classes,
			Language:        req.GetString("language", ""),
			IncludeFeatures: req.GetBool("include_features", true),
		}))
	})

	s.AddTool(mcp.NewTool("get_all_class_versions",
		mcp.WithDescription("Get every published version of an ETIM class."),
		mcp.WithString("class_code", mcp.Required(), mcp.Description("ETIM class code")),
		mcp.WithString("language", mcp.Description("Language code")),
		mcp.WithBoolean("include_features", mcp.Description("Include feature lists (default false)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("class_code")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return result(svc.AllClassVersions(ctx, etim.ClassVersionsQuery{
			Code:            code,
			Language:        req.GetString("language", ""),
			IncludeFeatures: req.GetBool("include_features", false),
		}))
	})

	s.AddTool(mcp.NewTool("get_class_for_release",
		mcp.WithDescription("Get ETIM class details as published in a specific release "+
			"(e.g. \"ETIM-9.0\" or \"DYNAMIC\")."),
		mcp.WithString("class_code", mcp.Required(), mcp.Description("ETIM class code")),
		mcp.WithString("release", mcp.Required(), mcp.Description("ETIM release identifier")),
		mcp.WithString("language", mcp.Description("Language code")),
		mcp.WithBoolean("include_features", mcp.Description("Include feature lists (default false)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("class_code")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		release, err := req.RequireString("release")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return result(svc.ClassForRelease(ctx, etim.ClassReleaseQuery{
			Code:            code,
			Release:         release,
			Language:        req.GetString("language", ""),
			IncludeFeatures: req.GetBool("include_features", false),
		}))
	})

	s.AddTool(mcp.NewTool("get_class_diff",
		mcp.WithDescription("Get ETIM class details with the changes relative to the previous version."),
		mcp.WithString("class_code", mcp.Required(), mcp.Description("ETIM class code")),
		mcp.WithNumber("version", mcp.Required(), mcp.Description("Version to diff against its predecessor")),
		mcp.WithString("language", mcp.Description("Language code")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("class_code")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		version, err := req.RequireInt("version")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return result(svc.ClassDiff(ctx, etim.ClassDiffQuery{
			Code:     code,
			Version:  version,
			Language: req.GetString("language", ""),
		}))
	})

	s.AddTool(mcp.NewTool("compare_classes",
		mcp.WithDescription(fmt.Sprintf("Compare up to %d ETIM product classes side by side, "+
			"fetching full details including features for each.", compareLimit)),
		mcp.WithArray("class_codes", mcp.Required(), mcp.Description("Class codes to compare, "+
			"e.g. [\"EC001744\",\"EC001679\"]")),
		mcp.WithString("language", mcp.Description("Language code")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		codes, err := bindSlice[string](req, "class_codes")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(codes) == 0 {
			return mcp.NewToolResultError("at least one class code is required"), nil
		}
		if len(codes) > compareLimit {
			codes = codes[:compareLimit]
		}

		language := req.GetString("language", "")

		classes := make([]json.RawMessage, 0, len(codes))
		for _, code := range codes {
			payload, err := svc.ClassDetails(ctx, etim.ClassDetailsQuery{
				Code:            code,
				Language:        language,
				IncludeFeatures: true,
			})
			if err != nil {
				// One failing class does not abort the comparison.
				payload, _ = json.Marshal(map[string]string{"code": code, "error": err.Error()})
			}
			classes = append(classes, payload)
		}

		comparison, err := json.Marshal(map[string]any{
			"compared_classes": len(classes),
			"classes":          classes,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(comparison)), nil
	})
}
