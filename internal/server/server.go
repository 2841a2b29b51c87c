package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chathub/internal/hub"
	"chathub/pkg/log"
	"chathub/pkg/redis"
)

// Server wraps the HTTP server carrying the websocket endpoint and the
// operational routes.
type Server struct {
	config Config
	server *http.Server
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	Router      *gin.Engine
	Logger      log.Logger
	Hub         *hub.Hub
	RedisClient *redis.Client // nil when the redis ingest path is disabled
	Subscriber  SubscriberHealthProvider
}

// New creates a new Server instance.
func New(cfg Config) *Server {
	setupRoutes(cfg)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:        cfg.Router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return &Server{
		config: cfg,
		server: server,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.config.Logger.Infof(context.Background(), "starting HTTP server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info(ctx, "shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(cfg Config) {
	cfg.Router.GET("/health", func(c *gin.Context) {
		healthHandler(c, cfg.Logger, cfg.Hub, cfg.RedisClient, cfg.Subscriber)
	})
	cfg.Router.GET("/metrics", func(c *gin.Context) {
		metricsHandler(c, cfg.Hub)
	})
}
