package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/salescope-core/internal/api"
	"github.com/platformbuilds/salescope-core/internal/config"
	"github.com/platformbuilds/salescope-core/internal/services"
	"github.com/platformbuilds/salescope-core/internal/storage/postgres"
	"github.com/platformbuilds/salescope-core/internal/tenant"
	"github.com/platformbuilds/salescope-core/pkg/cache"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting salescope-core", "environment", cfg.Environment)

	// Result cache; a missing Redis degrades to the in-process cache so the
	// API stays up.
	cacheTTL := time.Duration(cfg.Cache.TTL) * time.Second
	var resultCache cache.ResultCache
	if cfg.Cache.Addr != "" {
		resultCache, err = cache.NewRedisResultCache(cfg.Cache.Addr, cfg.Cache.DB, cfg.Cache.Password, cacheTTL, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process result cache", "error", err)
			resultCache = cache.NewNoopResultCache(logger)
		} else {
			logger.Info("Redis result cache initialized", "addr", cfg.Cache.Addr)
		}
	} else {
		logger.Info("No cache address configured, using in-process result cache")
		resultCache = cache.NewNoopResultCache(logger)
	}

	db, err := postgres.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", "error", err)
	}
	logger.Info("Postgres pool initialized")

	executor := postgres.NewScopedExecutor(db, logger)
	store := postgres.NewStore(executor)
	directory := postgres.NewTenantDirectory(db)
	resolver := tenant.NewResolver(directory, time.Duration(cfg.Tenants.CacheTTL)*time.Second, logger)

	analyticsService := services.NewAnalyticsService(resolver, store, resultCache, cfg.Analytics, cacheTTL, logger)

	apiServer := api.NewServer(cfg, logger, resultCache, db, analyticsService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("salescope-core shutdown complete")
}
