// Package server exposes the reconciliation service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fjacquet/camt-recon/internal/importer"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/reconciler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ActorHeader carries the operator id on mutating requests.
const ActorHeader = "X-Actor-ID"

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
	Logger         logging.Logger
	Reconciler     *reconciler.Service
	Importer       *importer.Importer
	Health         HealthChecker
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        logging.Logger
	reconciler *reconciler.Service
	importer   *importer.Importer
	health     HealthChecker
	port       int
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Logger.WithField(logging.FieldComponent, "server"),
		reconciler: cfg.Reconciler,
		importer:   cfg.Importer,
		health:     cfg.Health,
		port:       cfg.Port,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(allowedOrigins []string) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", ActorHeader},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/statements", func(r chi.Router) {
			r.Post("/", s.handleImportStatement)
			r.Post("/{id}/reconcile", s.handleReconcile)
		})

		r.Post("/payments", s.handleImportPayments)
		r.Get("/reports", s.handleListReports)

		r.Route("/exceptions", func(r chi.Router) {
			r.Get("/", s.handleListExceptions)
			r.Post("/", s.handleCreateException)
			r.Post("/{id}/resolve", s.handleResolveException)
			r.Post("/{id}/investigate", s.handleInvestigateException)
			r.Post("/{id}/ignore", s.handleIgnoreException)
		})

		r.Post("/matches/manual", s.handleManualMatch)
		r.Get("/statistics", s.handleStatistics)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", logging.F("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info("HTTP request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("bytes", ww.BytesWritten()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()),
			logging.F("request_id", middleware.GetReqID(r.Context())))
	})
}
