package etim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ziouzitsou/etim-mcp-server/internal/auth"
	"github.com/ziouzitsou/etim-mcp-server/internal/config"
	"github.com/ziouzitsou/etim-mcp-server/internal/store"
)

// maxAuthAttempts bounds the 401-refresh-retry cycle: one forced refresh,
// two upstream attempts, never a third.
const maxAuthAttempts = 2

// TTLTiers holds the cache lifetime per query volatility class.
type TTLTiers struct {
	// Search applies to search-style queries.
	Search time.Duration
	// Detail applies to entity detail lookups.
	Detail time.Duration
	// Reference applies to near-static reference data.
	Reference time.Duration
}

// Health reports reachability of the two external collaborators
// independently: a store outage does not mask a healthy API and vice versa.
type Health struct {
	Store    bool `json:"store"`
	Upstream bool `json:"upstream"`
}

// Client serves logical queries from the store or the upstream API.
//
// Each call follows the cache-aside protocol: derive the key, return a hit
// verbatim, otherwise perform an authenticated request and populate the
// store. Concurrent identical misses are not coalesced; upstream reads are
// idempotent and the last store write wins.
type Client struct {
	store      store.Store
	tokens     *auth.Manager
	httpClient *http.Client

	apiURL          string
	defaultLanguage string
	ttl             TTLTiers
}

// NewClient creates an API client. The HTTP client is shared with the token
// manager and must apply the process-wide request timeout.
func NewClient(cfg config.EtimConfig, ttl TTLTiers, s store.Store, tokens *auth.Manager, httpClient *http.Client) *Client {
	return &Client{
		store:           s,
		tokens:          tokens,
		httpClient:      httpClient,
		apiURL:          cfg.APIURL,
		defaultLanguage: cfg.DefaultLanguage,
		ttl:             ttl,
	}
}

// language applies the configured default when the caller supplied none.
func (c *Client) language(lang string) string {
	if lang == "" {
		return c.defaultLanguage
	}
	return lang
}

// cached implements the cache-aside protocol for one derived key. Store
// failures are soft: a failed read degrades to a miss and a failed write is
// dropped, so a store outage affects performance, not correctness.
func (c *Client) cached(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	payload, found, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("store read failed, treating as miss")
	}
	if found {
		log.Debug().Str("key", key).Msg("cache hit")
		return payload, nil
	}

	result, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, result, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("store write failed, result not cached")
	}

	return result, nil
}

// do performs an authenticated request with a bounded retry on authorization
// failure. The first 401 forces a token refresh and a single repeat; a
// second 401 is terminal.
func (c *Client) do(ctx context.Context, method, path string, body map[string]any) (json.RawMessage, error) {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		var token string
		var err error
		if attempt == 1 {
			token, err = c.tokens.Get(ctx)
		} else {
			token, err = c.tokens.Refresh(ctx)
		}
		if err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if encoded != nil {
			reqBody = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &TransportError{Err: err}
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &TransportError{Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if attempt < maxAuthAttempts {
				log.Warn().Str("path", path).Msg("received 401, refreshing token and retrying")
				continue
			}
			return nil, &auth.AuthenticationError{
				Status: resp.StatusCode,
				Body:   string(respBody),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &UpstreamError{
				Status: resp.StatusCode,
				Body:   string(respBody),
			}
		}

		if !json.Valid(respBody) {
			return nil, &UpstreamError{
				Status: resp.StatusCode,
				Body:   "malformed JSON response",
			}
		}

		return respBody, nil
	}
}

// includeBlock builds the standard "include" request section. All detail
// lookups request descriptions and translations; fields vary per kind.
func includeBlock(fields ...string) map[string]any {
	include := map[string]any{
		"descriptions": true,
		"translations": true,
	}
	if len(fields) > 0 {
		include["fields"] = fields
	}
	return include
}

// SearchClasses searches product classes, optionally constrained by a
// modelling flag and coded filters.
func (c *Client) SearchClasses(ctx context.Context, q ClassSearch) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Search, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("text", q.Text).Str("language", q.Language).
			Int("filters", len(q.Filters)).Msg("searching classes")

		body := map[string]any{
			"languagecode": q.Language,
			"from":         q.From,
			"size":         q.Size,
			"searchString": q.Text,
		}
		if q.Modelling != nil {
			body["modelling"] = *q.Modelling
		}
		if len(q.Filters) > 0 {
			body["filters"] = q.Filters
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Class/Search", body)
	})
}

// ClassDetails fetches a single class, latest version unless pinned.
func (c *Client) ClassDetails(ctx context.Context, q ClassDetailsQuery) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("code", q.Code).Str("language", q.Language).Msg("getting class details")

		body := map[string]any{
			"languagecode": q.Language,
			"code":         q.Code,
		}
		if q.Version != nil {
			body["version"] = *q.Version
		}
		if q.IncludeFeatures {
			body["include"] = includeBlock("Features", "Group")
		} else {
			body["include"] = includeBlock("Group")
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Class/Details", body)
	})
}

// ClassDetailsMany fetches details for multiple classes in one request. The
// response array mirrors the request order.
func (c *Client) ClassDetailsMany(ctx context.Context, q ClassManyQuery) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Int("classes", len(q.Classes)).Str("language", q.Language).
			Msg("getting class details batch")

		classes := make([]map[string]any, 0, len(q.Classes))
		for _, ref := range q.Classes {
			class := map[string]any{"code": ref.Code}
			if ref.Version != nil {
				class["version"] = *ref.Version
			}
			classes = append(classes, class)
		}

		body := map[string]any{
			"classes":      classes,
			"languagecode": q.Language,
		}
		if q.IncludeFeatures {
			body["include"] = includeBlock("Features", "Group", "Releases")
		} else {
			body["include"] = includeBlock("Group", "Releases")
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Class/DetailsMany", body)
	})
}

// AllClassVersions fetches every version of a class.
func (c *Client) AllClassVersions(ctx context.Context, q ClassVersionsQuery) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("code", q.Code).Str("language", q.Language).Msg("getting all class versions")

		body := map[string]any{
			"code":         q.Code,
			"languagecode": q.Language,
		}
		if q.IncludeFeatures {
			body["include"] = includeBlock("Features", "Group", "Releases")
		} else {
			body["include"] = includeBlock("Group", "Releases")
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Class/DetailsManyByCode", body)
	})
}

// ClassForRelease fetches class details pinned to an ETIM release.
func (c *Client) ClassForRelease(ctx context.Context, q ClassReleaseQuery) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("code", q.Code).Str("release", q.Release).
			Str("language", q.Language).Msg("getting class for release")

		body := map[string]any{
			"code":         q.Code,
			"release":      q.Release,
			"languagecode": q.Language,
		}
		if q.IncludeFeatures {
			body["include"] = includeBlock("Features", "Group", "Releases")
		} else {
			body["include"] = includeBlock("Group", "Releases")
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Class/DetailsForRelease", body)
	})
}

// ClassDiff fetches class details with differences against the previous
// version.
func (c *Client) ClassDiff(ctx context.Context, q ClassDiffQuery) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("code", q.Code).Int("version", q.Version).
			Str("language", q.Language).Msg("getting class diff")

		body := map[string]any{
			"languagecode": q.Language,
			"code":         q.Code,
			"version":      q.Version,
			"include":      includeBlock("Group", "Releases", "Features"),
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Class/DetailsDiff", body)
	})
}

// SearchFeatures searches features by text.
func (c *Client) SearchFeatures(ctx context.Context, q Search) (json.RawMessage, error) {
	return c.search(ctx, q, "search:feature", "/api/v2/Feature/Search", nil)
}

// SearchGroups searches product groups by text.
func (c *Client) SearchGroups(ctx context.Context, q Search) (json.RawMessage, error) {
	return c.search(ctx, q, "search:group", "/api/v2/Group/Search", nil)
}

// SearchFeatureGroups searches feature groups by text.
func (c *Client) SearchFeatureGroups(ctx context.Context, q Search) (json.RawMessage, error) {
	return c.search(ctx, q, "search:featuregroup", "/api/v2/FeatureGroup/Search",
		map[string]any{"include": map[string]any{"descriptions": true}})
}

// search is the common plain-search implementation.
func (c *Client) search(ctx context.Context, q Search, prefix, path string, extra map[string]any) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, searchKey(prefix, q), c.ttl.Search, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("text", q.Text).Str("language", q.Language).Str("path", path).Msg("searching")

		body := map[string]any{
			"languagecode": q.Language,
			"from":         q.From,
			"size":         q.Size,
			"searchString": q.Text,
		}
		for k, v := range extra {
			body[k] = v
		}

		return c.do(ctx, http.MethodPost, path, body)
	})
}

// SearchValues searches feature values by text.
func (c *Client) SearchValues(ctx context.Context, q DeprecableSearch) (json.RawMessage, error) {
	return c.deprecableSearch(ctx, q, "search:value", "/api/v2/Value/Search")
}

// SearchUnits searches measurement units by text.
func (c *Client) SearchUnits(ctx context.Context, q DeprecableSearch) (json.RawMessage, error) {
	return c.deprecableSearch(ctx, q, "search:unit", "/api/v2/Unit/Search")
}

func (c *Client) deprecableSearch(ctx context.Context, q DeprecableSearch, prefix, path string) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, deprecableSearchKey(prefix, q), c.ttl.Search, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("text", q.Text).Str("language", q.Language).Str("path", path).Msg("searching")

		body := map[string]any{
			"languagecode": q.Language,
			"from":         q.From,
			"size":         q.Size,
			"searchString": q.Text,
			"deprecated":   q.Deprecated,
			"include":      map[string]any{"descriptions": true},
		}

		return c.do(ctx, http.MethodPost, path, body)
	})
}

// FeatureDetails fetches a single feature.
func (c *Client) FeatureDetails(ctx context.Context, q DetailsQuery) (json.RawMessage, error) {
	return c.details(ctx, q, "feature", "/api/v2/Feature/Details",
		map[string]any{"descriptions": true})
}

// ValueDetails fetches a single value.
func (c *Client) ValueDetails(ctx context.Context, q DetailsQuery) (json.RawMessage, error) {
	return c.details(ctx, q, "value", "/api/v2/Value/Details", includeBlock())
}

// UnitDetails fetches a single unit.
func (c *Client) UnitDetails(ctx context.Context, q DetailsQuery) (json.RawMessage, error) {
	return c.details(ctx, q, "unit", "/api/v2/Unit/Details", includeBlock())
}

// FeatureGroupDetails fetches a single feature group.
func (c *Client) FeatureGroupDetails(ctx context.Context, q DetailsQuery) (json.RawMessage, error) {
	return c.details(ctx, q, "featuregroup", "/api/v2/FeatureGroup/Details", includeBlock())
}

func (c *Client) details(ctx context.Context, q DetailsQuery, prefix, path string, include map[string]any) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, detailsKey(prefix, q), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("code", q.Code).Str("language", q.Language).Str("path", path).Msg("getting details")

		body := map[string]any{
			"languagecode": q.Language,
			"code":         q.Code,
			"include":      include,
		}

		return c.do(ctx, http.MethodPost, path, body)
	})
}

// GroupDetails fetches a single product group.
func (c *Client) GroupDetails(ctx context.Context, q GroupDetailsQuery) (json.RawMessage, error) {
	q.Language = c.language(q.Language)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	return c.cached(ctx, q.key(), c.ttl.Detail, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Str("code", q.Code).Str("language", q.Language).Msg("getting group details")

		body := map[string]any{
			"languagecode": q.Language,
			"code":         q.Code,
			"include":      includeBlock(),
		}
		if q.IncludeReleases {
			body["include"] = includeBlock("Releases")
		}

		return c.do(ctx, http.MethodPost, "/api/v2/Group/Details", body)
	})
}

// AllowedLanguages fetches the languages enabled for this account.
func (c *Client) AllowedLanguages(ctx context.Context) (json.RawMessage, error) {
	return c.cached(ctx, keyAllowedLanguages, c.ttl.Reference, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Msg("getting allowed languages")
		return c.do(ctx, http.MethodGet, "/api/v2/Misc/LanguagesAllowed", nil)
	})
}

// AllLanguages fetches every ETIM language, account restrictions aside.
func (c *Client) AllLanguages(ctx context.Context) (json.RawMessage, error) {
	return c.cached(ctx, keyAllLanguages, c.ttl.Reference, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Msg("getting all languages")
		return c.do(ctx, http.MethodGet, "/api/v2/Misc/Languages", nil)
	})
}

// Releases fetches the list of ETIM releases.
func (c *Client) Releases(ctx context.Context) (json.RawMessage, error) {
	return c.cached(ctx, keyReleases, c.ttl.Reference, func(ctx context.Context) (json.RawMessage, error) {
		log.Info().Msg("getting releases")
		return c.do(ctx, http.MethodGet, "/api/v2/Misc/Releases", nil)
	})
}

// TestConnection reports whether the API is reachable with the current
// credentials.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.AllowedLanguages(ctx)
	return err == nil
}

// CheckHealth reports store and upstream reachability independently.
func (c *Client) CheckHealth(ctx context.Context) Health {
	return Health{
		Store:    c.store.Ping(ctx),
		Upstream: c.TestConnection(ctx),
	}
}

// RefreshToken forces a token refresh. Exposed for operators to invalidate
// the cached token without restarting the process.
func (c *Client) RefreshToken(ctx context.Context) error {
	_, err := c.tokens.Refresh(ctx)
	return err
}
