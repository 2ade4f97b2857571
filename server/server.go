// Package server wires the chi router, its middleware chain and the HTTP
// server lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/giygas/automedication-api/config"
	"github.com/giygas/automedication-api/handlers"
	"github.com/giygas/automedication-api/interfaces"
	"github.com/giygas/automedication-api/logging"
	"github.com/giygas/automedication-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const rateLimiterCleanupInterval = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler interfaces.HTTPHandler
	limiter *RateLimiter
	config  *config.Config

	// stops the rate limiter cleanup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server serving handler
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Address + ":" + cfg.Port,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    int(cfg.MaxHeaderSize),
		},
		router:  router,
		handler: handler,
		limiter: NewRateLimiter(),
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Router exposes the configured router (used by tests)
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Env == config.EnvProduction {
		// must see the original RemoteAddr
		s.router.Use(BlockDirectAccessMiddleware)
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Default()))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config.MaxRequestBody, s.config.MaxHeaderSize))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.limiter.Middleware)
}

func (s *Server) setupRoutes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/drugs/search", s.handler.SearchDrugs)
		r.Get("/drugs/{id}", s.handler.FindDrugByID)
		r.Get("/substances/{code}/tags", s.handler.SubstanceTags)
		r.Get("/substances/{code}/questions", s.handler.SubstanceQuestions)
		r.Post("/automedication/score", s.handler.EvaluateRisk)
	})

	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Start serves until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	go s.limiter.RunCleanup(s.ctx, rateLimiterCleanupInterval)

	if s.config.Env == config.EnvDevelopment {
		startProfilingServer()
	}

	logging.Info("Starting server", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer exposes pprof on localhost in development
func startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
