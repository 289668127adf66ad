package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/rockfall-monitor/internal/auth"
	"github.com/couchcryptid/rockfall-monitor/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// API is the monitoring surface exposed over HTTP.
type API interface {
	GetUserMines(ctx context.Context) ([]domain.MineWithRole, error)
	GetMineDetails(ctx context.Context, mineID string) (domain.MineWithRole, error)
	GetRiskZones(ctx context.Context, mineID string) ([]domain.RiskZone, error)
	GetLatestForecast(ctx context.Context, mineID string) (*domain.Forecast, error)
	GenerateRiskForecast(ctx context.Context, mineID string) (domain.Forecast, error)
	GetEnvironmentalData(ctx context.Context, mineID string, hours int) ([]domain.EnvironmentalReading, error)
	GetUserAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
	GetAlertSummary(ctx context.Context) (domain.AlertSummary, error)
	MarkAlertAsRead(ctx context.Context, alertID string) error
	InitializeUserAccess(ctx context.Context) error
}

// Server exposes the monitoring API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, api API, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("GET /api/v1/mines", s.identified(s.handleListMines))
	mux.Handle("GET /api/v1/mines/{id}", s.identified(s.handleGetMine))
	mux.Handle("GET /api/v1/mines/{id}/zones", s.identified(s.handleGetZones))
	mux.Handle("GET /api/v1/mines/{id}/forecast", s.identified(s.handleGetForecast))
	mux.Handle("POST /api/v1/mines/{id}/forecast", s.identified(s.handleGenerateForecast))
	mux.Handle("GET /api/v1/mines/{id}/environmental", s.identified(s.handleGetEnvironmental))
	mux.Handle("GET /api/v1/alerts", s.identified(s.handleListAlerts))
	mux.Handle("GET /api/v1/alerts/summary", s.identified(s.handleAlertSummary))
	mux.Handle("POST /api/v1/alerts/{id}/read", s.identified(s.handleMarkAlertRead))
	mux.Handle("POST /api/v1/access/bootstrap", s.identified(s.handleBootstrap))

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

// identified copies the gateway-supplied X-User-ID header into the request
// context. Requests without the header reach the service unauthenticated and
// are rejected there.
func (s *Server) identified(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			r = r.WithContext(auth.WithUser(r.Context(), userID))
		}
		next(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListMines(w http.ResponseWriter, r *http.Request) {
	mines, err := s.api.GetUserMines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mines)
}

func (s *Server) handleGetMine(w http.ResponseWriter, r *http.Request) {
	mine, err := s.api.GetMineDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

func (s *Server) handleGetZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.api.GetRiskZones(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

func (s *Server) handleGetForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := s.api.GetLatestForecast(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleGenerateForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := s.api.GenerateRiskForecast(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, forecast)
}

func (s *Server) handleGetEnvironmental(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	readings, err := s.api.GetEnvironmentalData(r.Context(), r.PathValue("id"), hours)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	alerts, err := s.api.GetUserAlerts(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAlertSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.api.GetAlertSummary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	if err := s.api.MarkAlertAsRead(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if err := s.api.InitializeUserAccess(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %q must be an integer", domain.ErrInvalidInput, name)
	}
	return v, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
