package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-events-service/internal/domain"
	"github.com/couchcryptid/disaster-events-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EventService is the use-case layer behind the event endpoints.
type EventService interface {
	sharedobs.ReadinessChecker
	Create(ctx context.Context, in domain.NewEvent) (domain.Event, error)
	List(ctx context.Context) domain.EventListing
	Get(ctx context.Context, id int64) (domain.EventLookup, error)
}

// Server exposes the event API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	events     EventService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /events routes and the
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, events EventService, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestLogging(logger, metrics)(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		events: events,
		logger: logger,
	}

	// Both spellings of the collection path are accepted.
	mux.HandleFunc("POST /events/{$}", s.handleCreate)
	mux.HandleFunc("POST /events", s.handleCreate)
	mux.HandleFunc("GET /events/{$}", s.handleList)
	mux.HandleFunc("GET /events", s.handleList)
	mux.HandleFunc("GET /events/{event_id}", s.handleGet)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(events))
	mux.Handle("GET /metrics", promhttp.Handler())

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
