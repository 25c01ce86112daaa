// Package httpapi serves the two read-only operational endpoints:
// /healthz (per-venue status as JSON) and /metrics (Prometheus exposition).
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbiscan/internal/domain"
	"github.com/sawpanic/arbiscan/internal/telemetry"
)

// Config holds the server's listen address and timeouts.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns the local-only defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-only operational HTTP surface.
type Server struct {
	router *mux.Router
	server *http.Server
	health func() map[string]domain.VenueHealth
}

// NewServer builds a Server. health supplies the current per-venue
// VenueHealth snapshot for /healthz, normally
// internal/ingest.Supervisor.Health. metrics is the Prometheus registry
// served at /metrics.
func NewServer(cfg Config, health func() map[string]domain.VenueHealth, metrics *telemetry.Registry) *Server {
	s := &Server{router: mux.NewRouter(), health: health}

	s.router.Use(loggingMiddleware)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(handleNotFound)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("httpapi listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthzResponse struct {
	Status    string                         `json:"status"`
	Timestamp time.Time                      `json:"timestamp"`
	Venues    map[string]venueHealthResponse `json:"venues"`
}

type venueHealthResponse struct {
	StreamConnected bool     `json:"stream_connected"`
	RestOK          bool     `json:"rest_ok"`
	ReconnectCount  int      `json:"reconnect_count"`
	ErrorRate       float64  `json:"error_rate"`
	QueueDepth      int      `json:"queue_depth"`
	CoalescedCount  int64    `json:"coalesced_count"`
	SchedulerLagMS  int64    `json:"scheduler_lag_ms"`
	Symbols         []string `json:"subscribed_symbols"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	venues := make(map[string]venueHealthResponse)
	status := "healthy"

	for name, h := range s.health() {
		if !h.StreamConnected && !h.RestOK {
			status = "degraded"
		}
		venues[name] = venueHealthResponse{
			StreamConnected: h.StreamConnected,
			RestOK:          h.RestOK,
			ReconnectCount:  h.ReconnectCount,
			ErrorRate:       h.ErrorRate,
			QueueDepth:      h.QueueDepth,
			CoalescedCount:  h.CoalescedCount,
			SchedulerLagMS:  h.SchedulerLagMS,
			Symbols:         h.SubscribedSymbols,
		}
	}

	resp := healthzResponse{Status: status, Timestamp: time.Now().UTC(), Venues: venues}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Err(err).Msg("failed to encode /healthz response")
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("duration", time.Since(start)).Msg("httpapi request")
	})
}
