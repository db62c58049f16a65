package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat64lab/dns64ng/internal/querylog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestStore(t *testing.T) *querylog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "querylog.db")
	store, err := querylog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHealthReturnsOK(t *testing.T) {
	h := NewHandler(nil, nil)
	r := gin.New()
	r.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestStatsIncludesDNSStatsWhenFuncSet(t *testing.T) {
	statsFunc := func() DNSStatsResponse {
		return DNSStatsResponse{QueriesTotal: 42, Synthesized: 7}
	}
	h := NewHandler(nil, statsFunc)
	r := gin.New()
	r.GET("/stats", h.Stats)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(42), body.DNS.QueriesTotal)
	assert.Equal(t, uint64(7), body.DNS.Synthesized)
	assert.GreaterOrEqual(t, body.NumCPU, 1)
}

func TestStatsOmitsDNSStatsWhenFuncNil(t *testing.T) {
	h := NewHandler(nil, nil)
	r := gin.New()
	r.GET("/stats", h.Stats)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(0), body.DNS.QueriesTotal)
}

func TestQueryLogEndpointReturnsEmptySliceWhenNoStore(t *testing.T) {
	h := NewHandler(nil, nil)
	r := gin.New()
	r.GET("/querylog", h.QueryLogEndpoint)

	req := httptest.NewRequest(http.MethodGet, "/querylog", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestQueryLogEndpointReturnsRecentEntries(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Append(context.Background(), querylog.Entry{
		ProcessedAt: time.Now(),
		ClientAddr:  "[2001:db8::1]:5555",
		QName:       "example.dns64perf.test.",
		QType:       28,
		Synthesized: true,
		RCode:       0,
		LatencyUs:   150,
	}))

	h := NewHandler(store, nil)
	r := gin.New()
	r.GET("/querylog", h.QueryLogEndpoint)

	req := httptest.NewRequest(http.MethodGet, "/querylog?limit=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []QueryLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.True(t, body[0].Synthesized)
	assert.Equal(t, "example.dns64perf.test.", body[0].QName)
}
