// Package httpapi serves the dashboard view, filings, refresh and the
// monitoring endpoints as JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/dealwatch/internal/dashboard"
	"github.com/deusflow/dealwatch/internal/metrics"
	"github.com/deusflow/dealwatch/internal/pipeline"
)

// Backend is the service behind the API.
type Backend interface {
	Dashboard(ctx context.Context) (dashboard.View, error)
	Filings(ctx context.Context) pipeline.FilingsResult
	Refresh() uint64
}

type Server struct {
	backend Backend
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(backend Backend, m *metrics.Metrics, logger *slog.Logger) *Server {
	if m == nil {
		m = metrics.Global
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{backend: backend, metrics: m, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /metrics", s.metricsHandler)
	mux.HandleFunc("GET /api/dashboard", s.dashboardHandler)
	mux.HandleFunc("GET /api/filings", s.filingsHandler)
	mux.HandleFunc("POST /api/refresh", s.refreshHandler)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.metrics.GetStats()

	status := "ok"
	code := http.StatusOK
	if !s.metrics.Healthy() {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetStats())
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	view, err := s.backend.Dashboard(r.Context())
	if err != nil {
		s.logger.Error("dashboard build failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data available"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) filingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Filings(r.Context()))
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	gen := s.backend.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]uint64{"generation": gen})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
