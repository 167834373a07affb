package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deusflow/dealwatch/internal/dashboard"
	"github.com/deusflow/dealwatch/internal/metrics"
	"github.com/deusflow/dealwatch/internal/pipeline"
	"github.com/deusflow/dealwatch/internal/sec"
)

type fakeBackend struct {
	view       dashboard.View
	err        error
	generation uint64
}

func (f *fakeBackend) Dashboard(context.Context) (dashboard.View, error) { return f.view, f.err }

func (f *fakeBackend) Filings(context.Context) pipeline.FilingsResult {
	return pipeline.FilingsResult{Filings: []sec.Filing{{Form: "425", Date: "2025-12-09"}}}
}

func (f *fakeBackend) Refresh() uint64 {
	f.generation++
	return f.generation
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s %s: invalid json %q", method, path, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("%s %s: content type %q", method, path, ct)
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	m := metrics.New()
	h := New(&fakeBackend{}, m, nil).Handler()

	rec, body := do(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthy: %d %v", rec.Code, body)
	}

	m.SetError("no data available")
	rec, body = do(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "error" || body["last_error"] != "no data available" {
		t.Fatalf("unhealthy: %d %v", rec.Code, body)
	}
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	m.RecordRun(4, 1, 0)
	rec, body := do(t, New(&fakeBackend{}, m, nil).Handler(), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || body["pipeline_runs"] != float64(1) {
		t.Fatalf("metrics: %d %v", rec.Code, body)
	}
}

func TestDashboard(t *testing.T) {
	b := &fakeBackend{view: dashboard.View{RunID: "r1", NoData: true}}
	h := New(b, metrics.New(), nil).Handler()

	rec, body := do(t, h, http.MethodGet, "/api/dashboard")
	if rec.Code != http.StatusOK || body["run_id"] != "r1" || body["no_data"] != true {
		t.Fatalf("dashboard: %d %v", rec.Code, body)
	}

	b.err = errors.New("boom")
	rec, body = do(t, h, http.MethodGet, "/api/dashboard")
	if rec.Code != http.StatusServiceUnavailable || body["error"] != "no data available" {
		t.Fatalf("dashboard error: %d %v", rec.Code, body)
	}
}

func TestFilingsAndRefresh(t *testing.T) {
	h := New(&fakeBackend{}, metrics.New(), nil).Handler()

	rec, body := do(t, h, http.MethodGet, "/api/filings")
	if rec.Code != http.StatusOK || len(body["filings"].([]any)) != 1 {
		t.Fatalf("filings: %d %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusAccepted || body["generation"] != float64(1) {
		t.Fatalf("refresh: %d %v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh = %d", rec.Code)
	}
}
