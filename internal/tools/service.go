// Package tools exposes the classification API over MCP: tools for every
// query kind, reference resources, and workflow prompts.
package tools

import (
	"context"
	"encoding/json"

	"github.com/ziouzitsou/etim-mcp-server/internal/etim"
)

// Service is the query surface the tool handlers depend on. Payloads are the
// upstream JSON, passed through verbatim.
type Service interface {
	SearchClasses(ctx context.Context, q etim.ClassSearch) (json.RawMessage, error)
	ClassDetails(ctx context.Context, q etim.ClassDetailsQuery) (json.RawMessage, error)
	ClassDetailsMany(ctx context.Context, q etim.ClassManyQuery) (json.RawMessage, error)
	AllClassVersions(ctx context.Context, q etim.ClassVersionsQuery) (json.RawMessage, error)
	ClassForRelease(ctx context.Context, q etim.ClassReleaseQuery) (json.RawMessage, error)
	ClassDiff(ctx context.Context, q etim.ClassDiffQuery) (json.RawMessage, error)

	SearchFeatures(ctx context.Context, q etim.Search) (json.RawMessage, error)
	SearchGroups(ctx context.Context, q etim.Search) (json.RawMessage, error)
	SearchFeatureGroups(ctx context.Context, q etim.Search) (json.RawMessage, error)
	SearchValues(ctx context.Context, q etim.DeprecableSearch) (json.RawMessage, error)
	SearchUnits(ctx context.Context, q etim.DeprecableSearch) (json.RawMessage, error)

	FeatureDetails(ctx context.Context, q etim.DetailsQuery) (json.RawMessage, error)
	GroupDetails(ctx context.Context, q etim.GroupDetailsQuery) (json.RawMessage, error)
	ValueDetails(ctx context.Context, q etim.DetailsQuery) (json.RawMessage, error)
	UnitDetails(ctx context.Context, q etim.DetailsQuery) (json.RawMessage, error)
	FeatureGroupDetails(ctx context.Context, q etim.DetailsQuery) (json.RawMessage, error)

	AllowedLanguages(ctx context.Context) (json.RawMessage, error)
	AllLanguages(ctx context.Context) (json.RawMessage, error)
	Releases(ctx context.Context) (json.RawMessage, error)

	CheckHealth(ctx context.Context) etim.Health
	RefreshToken(ctx context.Context) error
}
