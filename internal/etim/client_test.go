package etim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziouzitsou/etim-mcp-server/internal/auth"
	"github.com/ziouzitsou/etim-mcp-server/internal/config"
)

// recordingStore is an in-memory store that records write TTLs and can
// simulate a complete outage.
type recordingStore struct {
	entries map[string]recordedEntry
	failing bool
}

type recordedEntry struct {
	payload []byte
	ttl     time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{entries: map[string]recordedEntry{}}
}

func (r *recordingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.failing {
		return nil, false, errors.New("store unreachable")
	}
	e, ok := r.entries[key]
	if !ok {
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (r *recordingStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if r.failing {
		return errors.New("store unreachable")
	}
	r.entries[key] = recordedEntry{payload: payload, ttl: ttl}
	return nil
}

func (r *recordingStore) Delete(ctx context.Context, key string) error {
	if r.failing {
		return errors.New("store unreachable")
	}
	delete(r.entries, key)
	return nil
}

func (r *recordingStore) Ping(ctx context.Context) bool { return !r.failing }
func (r *recordingStore) Close() error                  { return nil }

var testTTL = TTLTiers{
	Search:    time.Hour,
	Detail:    24 * time.Hour,
	Reference: 168 * time.Hour,
}

// newTestClient wires a client against an httptest API handler and a stub
// auth server that always grants.
func newTestClient(t *testing.T, s *recordingStore, apiHandler http.Handler) (*Client, *atomic.Int32) {
	t.Helper()

	var grants atomic.Int32
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grants.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(authServer.Close)

	apiServer := httptest.NewServer(apiHandler)
	t.Cleanup(apiServer.Close)

	cfg := config.EtimConfig{
		AuthURL:           authServer.URL,
		APIURL:            apiServer.URL,
		ClientID:          "client",
		ClientSecret:      "secret",
		Scope:             "EtimApi",
		DefaultLanguage:   "EN",
		TokenExpiryBuffer: 300 * time.Second,
	}

	tokens := auth.NewManager(cfg, s, http.DefaultClient)
	return NewClient(cfg, testTTL, s, tokens, http.DefaultClient), &grants
}

func TestSearchClasses_CacheAsideIdempotence(t *testing.T) {
	var apiCalls atomic.Int32
	client, _ := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		require.Equal(t, "/api/v2/Class/Search", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cable", body["searchString"])
		assert.Equal(t, "EN", body["languagecode"])

		w.Write([]byte(`{"total":1,"classes":[{"code":"EC002883"}]}`))
	}))

	q := ClassSearch{Text: "cable", Size: 10}

	first, err := client.SearchClasses(context.Background(), q)
	require.NoError(t, err)

	second, err := client.SearchClasses(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, int32(1), apiCalls.Load(), "second call must be served from the store")
	assert.Equal(t, []byte(first), []byte(second), "cached payload must be byte-identical")
}

func TestDo_RefreshRetryOn401(t *testing.T) {
	var apiCalls atomic.Int32
	client, grants := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"code":"EC002883"}`))
	}))

	payload, err := client.ClassDetails(context.Background(), ClassDetailsQuery{Code: "EC002883"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"code":"EC002883"}`, string(payload))
	assert.Equal(t, int32(2), apiCalls.Load())
	assert.Equal(t, int32(2), grants.Load(), "the retry must use a freshly granted token")
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	var apiCalls atomic.Int32
	client, grants := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		http.Error(w, `{"error":"forbidden"}`, http.StatusUnauthorized)
	}))

	_, err := client.ClassDetails(context.Background(), ClassDetailsQuery{Code: "EC002883"})

	var authErr *auth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, int32(2), apiCalls.Load(), "never a third attempt")
	assert.Equal(t, int32(2), grants.Load())
}

func TestDo_UpstreamErrorNotRetried(t *testing.T) {
	var apiCalls atomic.Int32
	client, _ := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))

	_, err := client.SearchFeatures(context.Background(), Search{Text: "voltage", Size: 10})

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusInternalServerError, upstreamErr.Status)
	assert.Contains(t, upstreamErr.Body, "boom")
	assert.Equal(t, int32(1), apiCalls.Load())
}

func TestDo_MalformedResponseBody(t *testing.T) {
	client, _ := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := client.Releases(context.Background())

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Contains(t, upstreamErr.Body, "malformed")
}

func TestDo_TransportFailure(t *testing.T) {
	s := newRecordingStore()
	client, _ := newTestClient(t, s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Point the client at a server that no longer exists.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()
	client.apiURL = dead.URL

	_, err := client.Releases(context.Background())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Error(t, transportErr.Unwrap())
}

func TestValidation_RejectedBeforeNetwork(t *testing.T) {
	var apiCalls atomic.Int32
	client, grants := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
	}))

	cases := []error{
		func() error {
			_, err := client.SearchClasses(context.Background(), ClassSearch{Text: "", Size: 10})
			return err
		}(),
		func() error {
			_, err := client.SearchClasses(context.Background(), ClassSearch{Text: "cable", Size: 0})
			return err
		}(),
		func() error {
			_, err := client.ClassDetails(context.Background(), ClassDetailsQuery{Code: ""})
			return err
		}(),
		func() error {
			_, err := client.ClassDetailsMany(context.Background(), ClassManyQuery{})
			return err
		}(),
	}

	for _, err := range cases {
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	}

	assert.Equal(t, int32(0), apiCalls.Load(), "validation failures must not reach the network")
	assert.Equal(t, int32(0), grants.Load())
}

func TestStoreOutage_QueriesStillServed(t *testing.T) {
	var apiCalls atomic.Int32
	s := newRecordingStore()
	s.failing = true

	client, _ := newTestClient(t, s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.Write([]byte(`{"total":0}`))
	}))

	for range 2 {
		payload, err := client.SearchClasses(context.Background(), ClassSearch{Text: "cable", Size: 10})
		require.NoError(t, err)
		assert.JSONEq(t, `{"total":0}`, string(payload))
	}

	// Without the store every call goes upstream, but still succeeds.
	assert.Equal(t, int32(2), apiCalls.Load())
}

func TestCheckHealth_ReportsCollaboratorsIndependently(t *testing.T) {
	s := newRecordingStore()
	s.failing = true

	client, _ := newTestClient(t, s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"code":"EN"}]`))
	}))

	health := client.CheckHealth(context.Background())

	assert.False(t, health.Store)
	assert.True(t, health.Upstream, "a store outage must not mask a healthy API")
}

func TestTTLTiers_RecordedPerKind(t *testing.T) {
	s := newRecordingStore()
	client, _ := newTestClient(t, s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	ctx := context.Background()

	_, err := client.SearchClasses(ctx, ClassSearch{Text: "cable", Size: 10})
	require.NoError(t, err)

	_, err = client.ClassDetails(ctx, ClassDetailsQuery{Code: "EC002883"})
	require.NoError(t, err)

	_, err = client.Releases(ctx)
	require.NoError(t, err)

	assert.Equal(t, testTTL.Search, s.entries[(ClassSearch{Text: "cable", Language: "EN", Size: 10}).key()].ttl)
	assert.Equal(t, testTTL.Detail, s.entries[(ClassDetailsQuery{Code: "EC002883", Language: "EN"}).key()].ttl)
	assert.Equal(t, testTTL.Reference, s.entries[keyReleases].ttl)
}

func TestLanguageDefaulting(t *testing.T) {
	var seen atomic.Value
	client, _ := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen.Store(body["languagecode"])
		w.Write([]byte(`{}`))
	}))

	_, err := client.GroupDetails(context.Background(), GroupDetailsQuery{Code: "EG000017"})
	require.NoError(t, err)
	assert.Equal(t, "EN", seen.Load())

	_, err = client.GroupDetails(context.Background(), GroupDetailsQuery{Code: "EG000017", Language: "DE"})
	require.NoError(t, err)
	assert.Equal(t, "DE", seen.Load())
}

func TestRefreshToken_AlwaysGrants(t *testing.T) {
	client, grants := newTestClient(t, newRecordingStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	require.NoError(t, client.RefreshToken(context.Background()))
	require.NoError(t, client.RefreshToken(context.Background()))

	assert.Equal(t, int32(2), grants.Load())
}
