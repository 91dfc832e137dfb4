package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	chatapi "finsight/internal/api/chat"
	"finsight/internal/api/companies"
	"finsight/internal/api/health"
	queryapi "finsight/internal/api/query"
	reportapi "finsight/internal/api/report"
	"finsight/internal/api/response"
	statementsapi "finsight/internal/api/statements"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port         int
	ServiceName  string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handlers are the endpoint groups mounted by the server. Statements, Reports and Companies are optional.
type Handlers struct {
	Health     *health.Handler
	Query      *queryapi.Handler
	Chat       *chatapi.Handler
	Statements *statementsapi.Handler
	Reports    *reportapi.Handler
	Companies  *companies.Handler
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, handlers Handlers, log *logger.Logger) *Server {
	port := 5000
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      recoverer(log, NewRouter(cfg, handlers)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// NewRouter builds the route table.
func NewRouter(cfg ServerConfig, handlers Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes liveness and readiness)
	mux.HandleFunc("GET /health", handlers.Health.HandleHealth)
	mux.HandleFunc("GET /ready", handlers.Health.HandleReadiness)
	mux.HandleFunc("GET /live", handlers.Health.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /api/query", handlers.Query)
	handlers.Chat.Register(mux)
	if handlers.Statements != nil {
		handlers.Statements.Register(mux)
	}
	if handlers.Reports != nil {
		handlers.Reports.Register(mux)
	}
	if handlers.Companies != nil {
		handlers.Companies.Register(mux)
	}

	// Root endpoint (service info)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{
			"service": cfg.ServiceName,
			"version": cfg.Version,
			"status":  "running",
		})
	})

	return mux
}

// recoverer turns a handler panic into a 500 instead of a dropped connection.
func recoverer(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.ErrorWithContext(r.Context(), fmt.Errorf("handler panic on %s %s: %v", r.Method, r.URL.Path, rec),
					map[string]string{"component": "http"})
				response.JSON(w, http.StatusInternalServerError, response.ErrorBody{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}
