// Package api provides the HTTP API server and handlers for the PageSync server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pagesync/pagesync-server/internal/sse"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *sqlite.Store
	services        *Services
	sseHandler      *sse.Handler
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *sqlite.Store, services *Services, sseHandler *sse.Handler, logger *slog.Logger) *Server {
	s := &Server{
		store:           store,
		services:        services,
		sseHandler:      sseHandler,
		router:          chi.NewRouter(),
		logger:          logger,
		authRateLimiter: NewRateLimiter(30, time.Minute, 15),
	}

	// chi requires the middleware stack before any route is mounted,
	// including the OpenAPI routes humachi registers on creation.
	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("PageSync API", "1.0.0")
	// Sync clients expect the exact legacy body shapes; drop the default
	// transformer that injects a $schema link into every response object.
	humaConfig.Transformers = nil
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	// Typed routes go through huma; the device sync protocol fixes its
	// wire shapes ("{}" or a bare object) so those are registered
	// directly on chi, same as the SSE stream.
	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerAdminRoutes()
	s.setupSyncRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The dashboard is a browser app that may be served from a different
	// origin than the sync server.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Auth-User", "X-Auth-Key"},
		MaxAge:         300,
	}))

	s.router.Use(limitCredentialPaths(s.authRateLimiter, s.logger))
}
