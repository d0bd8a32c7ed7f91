package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/runway-bfa/internal/config"
	"github.com/boddenberg/runway-bfa/internal/handler"
	"github.com/boddenberg/runway-bfa/internal/infra/cache"
	"github.com/boddenberg/runway-bfa/internal/infra/observability"
	"github.com/boddenberg/runway-bfa/internal/infra/resilience"
	"github.com/boddenberg/runway-bfa/internal/infra/sqlstore"
	"github.com/boddenberg/runway-bfa/internal/infra/supabase"
	"github.com/boddenberg/runway-bfa/internal/port"
	"github.com/boddenberg/runway-bfa/internal/service"

	"go.uber.org/zap"
)

// backend is what the services need from a store adapter.
type backend interface {
	port.FinanceStore
	port.UserStore
}

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Int("horizon_months", cfg.DefaultHorizonMonths),
		zap.Strings("cors_origins", cfg.CORSOrigins),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Store ---
	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	var store backend
	switch cfg.StoreBackend {
	case config.StoreSupabase:
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		guard := resilience.NewGuard(supabase.BackendName, resilienceCfg)
		store = supabase.NewClient(httpClient, cfg.SupabaseURL, cfg.SupabaseServiceKey, guard, logger)
	default:
		logger.Info("using SQLite as data backend", zap.String("path", cfg.DatabasePath))
		guard := resilience.NewGuard(sqlstore.BackendName, resilienceCfg)
		db, err := sqlstore.Open(startCtx, cfg.DatabasePath, guard, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer db.Close()
		store = db
	}

	// --- Cache ---
	var dashboardCache port.Cache[*service.Dashboard]
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rdb, err := cache.NewRedisClient(startCtx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		dashboardCache = cache.NewRedis[*service.Dashboard](rdb, "runway:", cfg.CacheTTL, logger)
		logger.Info("dashboard cache: redis")
	default:
		mem := cache.New[*service.Dashboard](cfg.CacheTTL)
		defer mem.Close()
		dashboardCache = mem
		logger.Info("dashboard cache: in-memory")
	}

	// --- Services ---
	financeSvc := service.NewFinanceService(store, dashboardCache, metrics, logger, cfg.DefaultHorizonMonths)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Router ---
	router := handler.NewRouter(financeSvc, authSvc, metrics, cfg.CORSOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
