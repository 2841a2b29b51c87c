package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chathub/config"
	"chathub/internal/hub"
	ingesthttp "chathub/internal/ingest/http"
	ingestredis "chathub/internal/ingest/redis"
	"chathub/internal/server"
	"chathub/pkg/jwt"
	"chathub/pkg/log"
	"chathub/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}

	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx := context.Background()
	logger.Info(ctx, "starting chathub")

	jwtValidator := jwt.NewValidator(jwt.Config{SecretKey: cfg.JWT.SecretKey})

	h := hub.NewHub(logger, hub.Config{MaxConnections: cfg.WebSocket.MaxConnections})
	go h.Run()
	logger.Info(ctx, "hub started")

	// Redis ingest is optional; when disabled the message service POSTs
	// to /internal/fanout instead.
	var redisClient *redis.Client
	var subscriber *ingestredis.Subscriber
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:            cfg.Redis.Host,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			UseTLS:          cfg.Redis.UseTLS,
			MaxRetries:      cfg.Redis.MaxRetries,
			MinIdleConns:    cfg.Redis.MinIdleConns,
			PoolSize:        cfg.Redis.PoolSize,
			PoolTimeout:     cfg.Redis.PoolTimeout,
			ConnMaxIdleTime: cfg.Redis.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Redis.ConnMaxLifetime,
		})
		if err != nil {
			logger.Fatalf(ctx, "failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		logger.Infof(ctx, "redis connected to %s", cfg.Redis.Host)

		subscriber = ingestredis.NewSubscriber(redisClient, h, logger)
		if err := subscriber.Start(); err != nil {
			logger.Fatalf(ctx, "failed to start redis subscriber: %v", err)
		}
		logger.Info(ctx, "redis subscriber started")
	}

	wsHandler := hub.NewHandler(h, jwtValidator, logger, hub.HandlerConfig{
		Timings: hub.ConnTimings{
			PongWait:       cfg.WebSocket.PongWait,
			PingPeriod:     cfg.WebSocket.PingInterval,
			WriteWait:      cfg.WebSocket.WriteWait,
			MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		},
		SendBufferSize:  cfg.WebSocket.SendBufferSize,
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
	})

	ingestHandler := ingesthttp.New(h, logger, cfg.Ingest.ServiceToken)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	wsHandler.SetupRoutes(router)
	ingestHandler.SetupRoutes(router)

	var subscriberHealth server.SubscriberHealthProvider
	if subscriber != nil {
		subscriberHealth = subscriber
	}
	srv := server.New(server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Router:      router,
		Logger:      logger,
		Hub:         h,
		RedisClient: redisClient,
		Subscriber:  subscriberHealth,
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Errorf(ctx, "server error: %v", err)
		}
	}()

	logger.Infof(ctx, "chathub listening on %s:%d", cfg.Server.Host, cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if subscriber != nil {
		if err := subscriber.Shutdown(shutdownCtx); err != nil {
			logger.Errorf(ctx, "error shutting down redis subscriber: %v", err)
		}
	}
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "error shutting down hub: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "error shutting down server: %v", err)
	}

	logger.Info(ctx, "shutdown complete")
}
