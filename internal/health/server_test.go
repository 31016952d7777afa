package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(Config{ServiceName: "mat-ingest", Version: "1.0.0", Port: "0"})

	rec := serve(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
}

func TestReadyReflectsStateAndDatabase(t *testing.T) {
	s := NewServer(Config{ServiceName: "mat-ingest", Port: "0", DB: stubPinger{}})
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, s, "/ready").Code)

	s.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(t, s, "/ready").Code)

	failing := NewServer(Config{ServiceName: "mat-ingest", Port: "0", DB: stubPinger{err: errors.New("down")}})
	failing.SetReady(true)
	rec := serve(t, failing, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error: down", resp.Checks["database"])
}

func TestMetricsAndStatusEndpoints(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mat_rankings_runs_total 1\n"))
	})
	s := NewServer(Config{ServiceName: "mat-ingest", Port: "0", Metrics: metrics})
	s.RecordRun("2024-25/utah", RunStatus{FinishedAt: time.Now(), Complete: true, PercentComplete: 100})

	assert.Contains(t, serve(t, s, "/metrics").Body.String(), "mat_rankings_runs_total")

	rec := serve(t, s, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs map[string]RunStatus `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Runs["2024-25/utah"].Complete)
}

func TestMetricsNotServedWithoutHandler(t *testing.T) {
	s := NewServer(Config{ServiceName: "mat-ingest", Port: "0"})
	assert.Equal(t, http.StatusNotFound, serve(t, s, "/metrics").Code)
}
