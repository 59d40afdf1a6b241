package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the JSON API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server routing /api/* to api and serving
// /healthz, /readyz, and /metrics.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	router := mux.NewRouter()
	h := &handler{api: api, logger: logger}

	r := router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/buildings", h.registerBuilding).Methods(http.MethodPost)
	r.HandleFunc("/buildings", h.listBuildings).Methods(http.MethodGet)
	r.HandleFunc("/buildings/{id}/recommendations", h.getRecommendations).Methods(http.MethodGet)
	r.HandleFunc("/simulations", h.submitSimulation).Methods(http.MethodPost)
	r.HandleFunc("/simulations/{id}", h.getSimulation).Methods(http.MethodGet)
	r.HandleFunc("/climate", h.getClimateProfile).Methods(http.MethodGet)

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handlers.CombinedLoggingHandler(os.Stdout, recovery(router)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
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
