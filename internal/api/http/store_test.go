package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/hostwatch/internal/dispatch"
	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/observability"
	"github.com/hostwatch/hostwatch/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Registry, *observability.StoreStats) {
	t.Helper()

	registry := store.NewRegistry()
	require.NoError(t, registry.Register(store.NewEphemeral()))
	require.NoError(t, registry.SetActive(store.EphemeralBackend))

	stats := observability.NewStoreStats()
	srv := httptest.NewServer(NewStoreServer(registry, stats, nil).Routes())
	t.Cleanup(func() {
		srv.Close()
		_ = registry.Shutdown()
	})
	return srv, registry, stats
}

func postDatabase(t *testing.T, srv *httptest.Server, req dispatch.Request) (*http.Response, CallResult) {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/database", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result CallResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func TestStoreServer_PutGetRoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, result := postDatabase(t, srv, dispatch.Request{
		"action": "put", "domain": "queries", "key": "k1", "value": "v1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, result.Status)
	assert.Equal(t, "OK", result.Message)

	resp, result = postDatabase(t, srv, dispatch.Request{
		"action": "get", "domain": "queries", "key": "k1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dispatch.Response{{"v": "v1"}}, result.Response)
}

func TestStoreServer_ProtocolErrorIsBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, result := postDatabase(t, srv, dispatch.Request{"action": "bogus"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, result.Status)
	assert.Equal(t, hwerrors.CodeUnknownAction, result.Code)
	assert.NotEmpty(t, result.Message)
}

func TestStoreServer_MalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/database", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStoreServer_RequestIDHeader(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var health HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, store.EphemeralBackend, health.Backend)
	assert.False(t, health.Checking)
}

func TestStoreServer_StatsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	postDatabase(t, srv, dispatch.Request{"action": "put", "domain": "d", "key": "k", "value": "v"})
	postDatabase(t, srv, dispatch.Request{"action": "get", "domain": "d", "key": "k"})

	resp, err := http.Get(srv.URL + "/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snapshot []observability.OpStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Len(t, snapshot, 2)
}

func TestClient_RemoteDispatcherRoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	d := dispatch.NewRemote(NewClient(srv.URL))

	require.NoError(t, d.SetValue(ctx, store.DomainEvents, "e1", "payload"))
	require.NoError(t, d.SetValue(ctx, store.DomainEvents, "e2", "payload"))

	v, err := d.GetValue(ctx, store.DomainEvents, "e1")
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	keys, err := d.ScanKeys(ctx, store.DomainEvents, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, keys)

	require.NoError(t, d.DeleteValue(ctx, store.DomainEvents, "e1"))
	keys, err = d.ScanKeys(ctx, store.DomainEvents, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, keys)
}

func TestClient_ProtocolErrorCodeSurvivesTransport(t *testing.T) {
	srv, _, _ := newTestServer(t)

	c := NewClient(srv.URL)
	_, err := c.Call(context.Background(), dispatch.Request{
		"action": "scan", "domain": "d", "max": "abc",
	})
	require.Error(t, err)
	assert.Equal(t, hwerrors.CodeInvalidMax, hwerrors.GetCode(err))
	assert.Equal(t, hwerrors.ErrCategoryProtocol, hwerrors.GetCategory(err))
}

func TestClient_ServerUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Call(context.Background(), dispatch.Request{"action": "get", "domain": "d", "key": "k"})
	require.Error(t, err)
	assert.Equal(t, hwerrors.CodeBackendUnavailable, hwerrors.GetCode(err))
}
