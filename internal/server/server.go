// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nrkno/sofie-core-sub006/internal/api"
	"github.com/nrkno/sofie-core-sub006/internal/config"
	"github.com/nrkno/sofie-core-sub006/internal/db"
	"github.com/nrkno/sofie-core-sub006/internal/logger"
	"github.com/nrkno/sofie-core-sub006/internal/metrics"
	"github.com/nrkno/sofie-core-sub006/internal/middleware"
	"github.com/nrkno/sofie-core-sub006/internal/rundown"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	metrics        *metrics.Metrics
	rundownService *rundown.Service
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	m := metrics.New()
	rundownService := rundown.NewService(repos, m, rundown.Options{
		DefaultPartDuration:          cfg.Timing.DefaultPartDuration,
		CountdownUsesDisplayDuration: cfg.Timing.CountdownUsesDisplayDuration,
	})

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		metrics:        m,
		rundownService: rundownService,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create new Gin router
	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger())           // Custom zerolog request logger
	s.router.Use(middleware.RequestMetrics(s.metrics)) // Prometheus request counters
	s.router.Use(gin.Recovery())                       // Panic recovery
	s.router.Use(cors.Default())                       // CORS support (allows all origins)

	// Prometheus scrape endpoint
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler(nil)))

	// Create API route group
	apiGroup := s.router.Group("/api")

	// Register service routes
	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupPlaylistRoutes(apiGroup, s.rundownService)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
