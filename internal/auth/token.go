package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ziouzitsou/etim-mcp-server/internal/config"
	"github.com/ziouzitsou/etim-mcp-server/internal/store"
)

// tokenKey is the single well-known store entry holding the current access
// token. All processes sharing the store share the token.
const tokenKey = "etim:auth:token"

// Token is the persisted form of an access token. ExpiresAt is absolute so
// validity can be recomputed against the current clock on every read.
type Token struct {
	Value     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// grantResponse is the OAuth2 client-credentials grant response.
type grantResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Manager owns the OAuth2 access-token lifecycle. Tokens are never held
// in-process beyond a single call: every Get re-reads the store and
// recomputes validity, so concurrent processes converge on the same token.
//
// Two callers racing past the expiry buffer may both fetch a new token. This
// is tolerated: grants are idempotent from the client's perspective and the
// last successful write wins.
type Manager struct {
	store      store.Store
	httpClient *http.Client

	authURL      string
	clientID     string
	clientSecret string
	scope        string

	// buffer is subtracted from the token expiry when computing validity, so
	// a token is never presented close enough to expiry for the API to
	// reject it mid-flight.
	buffer time.Duration

	now func() time.Time
}

// NewManager creates a token manager backed by the given store.
func NewManager(cfg config.EtimConfig, s store.Store, httpClient *http.Client) *Manager {
	return &Manager{
		store:        s,
		httpClient:   httpClient,
		authURL:      cfg.AuthURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scope:        cfg.Scope,
		buffer:       cfg.TokenExpiryBuffer,
		now:          time.Now,
	}
}

// Get returns a currently-valid bearer token, fetching a new one from the
// auth server when the cached token is absent or within the expiry buffer.
func (m *Manager) Get(ctx context.Context) (string, error) {
	payload, found, err := m.store.Get(ctx, tokenKey)
	if err != nil {
		// A store failure degrades to a miss: fetch a fresh token instead.
		log.Warn().Err(err).Msg("token read from store failed, fetching new token")
	} else if found {
		var cached Token
		if err := json.Unmarshal(payload, &cached); err != nil {
			log.Warn().Err(err).Msg("cached token is malformed, fetching new token")
		} else if m.now().Before(cached.ExpiresAt.Add(-m.buffer)) {
			log.Debug().Msg("using cached access token")
			return cached.Value, nil
		} else {
			log.Info().Time("expires_at", cached.ExpiresAt).Msg("cached token expiring, fetching new one")
		}
	}

	return m.fetch(ctx)
}

// Refresh deletes the cached token unconditionally and fetches a new one.
// Used when a downstream call reports the current token invalid.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	log.Info().Msg("forcing token refresh")
	if err := m.store.Delete(ctx, tokenKey); err != nil {
		log.Warn().Err(err).Msg("token delete from store failed, continuing with refresh")
	}
	return m.fetch(ctx)
}

// fetch performs the client-credentials grant and persists the result. Auth
// failures are never retried here; retry policy belongs to the dispatcher.
func (m *Manager) fetch(ctx context.Context) (string, error) {
	log.Info().Msg("fetching new access token")

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"scope":         {m.scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.authURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthenticationError{
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	var grant grantResponse
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", &AuthenticationError{
			Status: resp.StatusCode,
			Body:   "malformed grant response: " + err.Error(),
		}
	}
	if grant.AccessToken == "" || grant.ExpiresIn <= 0 {
		return "", &AuthenticationError{
			Status: resp.StatusCode,
			Body:   "grant response missing access_token or expires_in",
		}
	}

	expiresIn := time.Duration(grant.ExpiresIn) * time.Second
	token := Token{
		Value:     grant.AccessToken,
		ExpiresAt: m.now().Add(expiresIn),
	}

	// The store entry disappears slightly before the token would be
	// considered stale, aligning storage lifetime with logical validity.
	if cacheTTL := expiresIn - m.buffer; cacheTTL > 0 {
		payload, err := json.Marshal(token)
		if err != nil {
			return "", fmt.Errorf("marshalling token: %w", err)
		}
		if err := m.store.Set(ctx, tokenKey, payload, cacheTTL); err != nil {
			// Best effort: a store outage costs extra grants, not correctness.
			log.Warn().Err(err).Msg("token write to store failed")
		}
	}

	log.Info().Dur("expires_in", expiresIn).Msg("new access token obtained")
	return token.Value, nil
}
