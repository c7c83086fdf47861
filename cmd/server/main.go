package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/blog/internal/config"
	"github.com/Skotchmaster/blog/internal/db"
	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/logging"
	loggingmw "github.com/Skotchmaster/blog/internal/middleware/logging"
	metricsmw "github.com/Skotchmaster/blog/internal/middleware/metrics"
	"github.com/Skotchmaster/blog/internal/observability"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/service"
	"github.com/Skotchmaster/blog/internal/tokens"
	httpserver "github.com/Skotchmaster/blog/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("store init failed", "error", err)
		os.Exit(1)
	}
	log.Info("store ready", "storage", cfg.Storage())

	metrics := observability.NewMetrics()

	var posts repo.PostRepo = store
	if cfg.PostCacheTTL > 0 {
		posts = repo.NewCachedPosts(store, cfg.PostCacheTTL, metrics)
		log.Info("post cache enabled", "ttl", cfg.PostCacheTTL)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers, metrics)
		log.Info("event publishing enabled", "brokers", cfg.KafkaBrokers)
	}

	deps := &httpserver.Deps{
		Auth: &service.AuthService{
			Users:  store,
			Tokens: tokens.NewService(cfg.JWTSecret, cfg.AccessTokenTTL),
			Events: publisher,
		},
		Posts:   &service.PostService{Posts: posts, Events: publisher},
		Store:   store,
		Metrics: metrics.Handler(),
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		metricsmw.Prometheus(metrics),
		loggingmw.RequestLogger(log),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
			AllowCredentials: true,
		}),
		middleware.Secure(),
	)
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		log.Error("event producer close error", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("store close error", "error", err)
	}
	log.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config) (repo.Store, error) {
	if cfg.Storage() == config.StorageMemory {
		return repo.NewMemoryRepo(), nil
	}

	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}

	gdb, err := db.Open(ctx, cfg.DatabaseURL, db.Options{
		PostgresDriver: cfg.PostgresDriver,
		LogLevel:       level,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return repo.NewGormRepo(gdb), nil
}
