// Package server assembles the application: database, task store,
// notification center, capture runner, and the HTTP router.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/snaptodo/snaptodo/api"
	"github.com/snaptodo/snaptodo/config"
	"github.com/snaptodo/snaptodo/db"
	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/notifications"
	"github.com/snaptodo/snaptodo/pipeline"
	"github.com/snaptodo/snaptodo/tasks"
)

// Server owns and coordinates all application components
type Server struct {
	cfg *config.Config

	store  *tasks.Store
	center *notifications.Center
	events *notifications.Service
	runner *pipeline.Runner

	router *gin.Engine
	http   *http.Server
}

// New creates a server with all components initialized
func New() (*Server, error) {
	cfg := config.Get()
	s := &Server{cfg: cfg}

	log.Info().Msg("initializing database")
	if db.GetDB() == nil {
		return nil, fmt.Errorf("database initialization failed")
	}

	s.events = notifications.NewService()
	s.store = tasks.NewStore(tasks.NewSettingsPersistence())
	s.center = notifications.NewCenter(s.store, s.events)
	s.runner = pipeline.NewRunner(s.store, s.center, db.LoadAIConfig)

	s.setupRouter()

	log.Info().Msg("server initialized")
	return s, nil
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter() {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(log.GinLogger())

	if s.cfg.IsDevelopment() {
		s.router.Use(corsMiddleware())
	}

	// Gzip compression, skipping the SSE stream
	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/api/notifications/stream",
	})))

	s.router.SetTrustedProxies(nil)

	api.SetupRoutes(s.router, &api.Handlers{
		Runner: s.runner,
		Store:  s.store,
		Center: s.center,
		Events: s.events,
	})
}

// Start launches the capture runner and the HTTP server. Blocks until the
// HTTP server exits.
func (s *Server) Start() error {
	s.runner.Start()

	// Restore notifications for tasks persisted before the restart
	s.center.Rebuild()

	s.http = &http.Server{
		Addr:     fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:  s.router,
		ErrorLog: log.StdLogger(zerolog.ErrorLevel),
	}

	log.Info().
		Str("addr", s.http.Addr).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	return s.http.ListenAndServe()
}

// Shutdown stops components in reverse order of startup
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	// Cancel any capture in flight before taking the API away
	s.runner.Stop()

	// Disconnect SSE clients cleanly, then give them a moment
	s.events.Shutdown()
	time.Sleep(100 * time.Millisecond)

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
		return err
	}

	log.Info().Msg("server shutdown complete")
	return nil
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// corsMiddleware handles CORS for development environments
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
