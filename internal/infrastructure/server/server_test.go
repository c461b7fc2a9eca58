package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Bridge.Mode = config.ModeSimulator
	cfg.Bridge.Shots = 64
	cfg.Bridge.MaxRetries = 0
	cfg.Bridge.RetryBackoff = 0
	cfg.Collector.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Logging.Level = "error"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"root", http.MethodGet, "/", nil, http.StatusOK},
		{"health", http.MethodGet, "/health", nil, http.StatusOK},
		{"services", http.MethodGet, "/services", nil, http.StatusOK},
		{"bridge state", http.MethodGet, "/bridge/state", nil, http.StatusOK},
		{"optimize", http.MethodPost, "/bridge/optimize", map[string]interface{}{"resources": []float64{0.9, 0.1, 0.7}}, http.StatusOK},
		{"optimize empty", http.MethodPost, "/bridge/optimize", map[string]interface{}{"resources": []float64{}}, http.StatusBadRequest},
		{"history", http.MethodGet, "/bridge/history", nil, http.StatusOK},
		{"summary", http.MethodGet, "/performance/summary", nil, http.StatusOK},
		{"metrics json", http.MethodGet, "/metrics/json", nil, http.StatusOK},
		{"prometheus", http.MethodGet, "/metrics", nil, http.StatusOK},
		{"unknown", http.MethodGet, "/nope", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestServerExposesPrometheusMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	do(t, srv, http.MethodGet, "/health", nil)
	w := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "backend_http_requests_total")
}

func TestServerRegistersProviders(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	stats := srv.registry.Stats()
	assert.Equal(t, 3, stats["total_services"])

	for _, id := range []string{"quantum", "browser", "system"} {
		_, ok := srv.registry.Get(id)
		assert.True(t, ok, id)
	}
}

func TestServerFallsBackWhenBackendIsMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bridge.Mode = config.ModeProcess
	cfg.Bridge.Executable = filepath.Join(t.TempDir(), "missing-solver")
	srv := newTestServer(t, cfg)

	w := do(t, srv, http.MethodPost, "/bridge/optimize", map[string]interface{}{
		"resources": []float64{0.8, 0.6, 0.4, 0.2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Allocation     []int  `json:"allocation"`
		Source         string `json:"source"`
		FallbackReason string `json:"fallbackReason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []int{1, 1, 0, 0}, out.Allocation)
	assert.Equal(t, "classical", out.Source)
	assert.NotEmpty(t, out.FallbackReason)

	w = do(t, srv, http.MethodGet, "/health", nil)
	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)

	w = do(t, srv, http.MethodPost, "/bridge/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"variant":"primary"`)

	// the classical outcome landed in history
	w = do(t, srv, http.MethodGet, "/bridge/history", nil)
	assert.Contains(t, w.Body.String(), "classical")
}
