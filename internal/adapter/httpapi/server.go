// Package httpapi exposes the service over HTTP: health and readiness
// probes, Prometheus metrics, the events query endpoint, and on-demand scans.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trafficlens/traffic-event-finder/internal/domain"
)

const dateLayout = "2006-01-02"

// Core is the application surface the API serves.
type Core interface {
	ScanCity(ctx context.Context, city string, days int) (int, error)
	Events(ctx context.Context, city string, start, end *time.Time) ([]domain.StoredEvent, error)
	Ready() error
}

// Server exposes the HTTP API.
type Server struct {
	httpServer *http.Server
	core       Core
	logger     *slog.Logger
}

// NewServer creates the API server. Scans can take minutes against a live
// model, so the write timeout is generous.
func NewServer(addr string, core Core, logger *slog.Logger) *Server {
	s := &Server{
		core:   core,
		logger: logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if err := s.core.Ready(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleEvents answers GET /events?city=...&start=YYYY-MM-DD&end=YYYY-MM-DD.
// start and end are optional and inclusive.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeError(w, http.StatusBadRequest, "city query parameter is required")
		return
	}

	start, ok := parseDateParam(w, r, "start")
	if !ok {
		return
	}
	end, ok := parseDateParam(w, r, "end")
	if !ok {
		return
	}

	events, err := s.core.Events(r.Context(), city, start, end)
	if err != nil {
		s.logger.Error("events query failed", "city", city, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if events == nil {
		events = []domain.StoredEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"city":   city,
		"count":  len(events),
		"events": events,
	})
}

type scanRequest struct {
	City string `json:"city"`
	Days int    `json:"days"`
}

// handleScan answers POST /scan with a JSON body naming the city. The scan
// runs synchronously and reports how many events were appended.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.City == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}
	if req.Days <= 0 {
		req.Days = 7
	}

	count, err := s.core.ScanCity(r.Context(), req.City, req.Days)
	if err != nil {
		s.logger.Error("scan failed", "city", req.City, "error", err)
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"city":            req.City,
		"events_appended": count,
	})
}

func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be a YYYY-MM-DD date")
		return nil, false
	}
	return &t, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
