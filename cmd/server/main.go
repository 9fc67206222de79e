package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/audit"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/handlers"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/notify"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	logger, err := newLogger(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	// Connect to database
	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get database handle", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Cache: Redis when configured, in-process otherwise
	var store cache.Cache
	if cfg.RedisURL != "" {
		rc := cache.NewRedis(cfg.RedisURL)
		defer rc.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable at startup, reads will go to the database", zap.Error(err))
		}
		cancel()
		store = rc
	} else {
		store = cache.NewMemory()
	}

	// Sentry error tracking
	var extra []gin.HandlerFunc
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Release:          cfg.AppVersion,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
			extra = append(extra, sentrygin.New(sentrygin.Options{Repanic: true}))
		}
	}

	m := metrics.New()
	hub := notify.NewHub(logger, m)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	repo := repository.NewStore(db)
	deps := services.Deps{
		Store:    repo,
		Cache:    store,
		CacheTTL: cfg.CacheTTL,
		Notifier: hub,
		Audit:    audit.NewRecorder(repo.Logs(), logger, m),
		Logger:   logger,
		Metrics:  m,
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	userService := services.NewUserService(deps)

	r := handlers.NewRouter(handlers.RouterConfig{
		Logger:       logger,
		Metrics:      m,
		Tokens:       tokens,
		LoginLimiter: middleware.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginRateBurst),
		Progress:     hub,
		Middleware:   extra,
		Auth:         handlers.NewAuthHandler(services.NewAuthService(deps, tokens), userService),
		Users:        handlers.NewUserHandler(userService),
		Projects:     handlers.NewProjectHandler(services.NewProjectService(deps)),
		Tasks:        handlers.NewTaskHandler(services.NewTaskService(deps, aiService)),
		Health:       handlers.NewHealthHandler(sqlDB, cfg.AppVersion),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", cfg.AppVersion))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
