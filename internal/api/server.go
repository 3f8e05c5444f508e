// Package api wires the HTTP surface: routing, middleware and lifecycle.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/salescope-core/internal/api/handlers"
	"github.com/platformbuilds/salescope-core/internal/api/middleware"
	"github.com/platformbuilds/salescope-core/internal/config"
	"github.com/platformbuilds/salescope-core/internal/monitoring"
	"github.com/platformbuilds/salescope-core/internal/services"
	"github.com/platformbuilds/salescope-core/internal/storage/postgres"
	"github.com/platformbuilds/salescope-core/pkg/cache"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.ResultCache
	db         *postgres.Client
	analytics  *services.AnalyticsService
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	resultCache cache.ResultCache,
	db *postgres.Client,
	analytics *services.AnalyticsService,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:    cfg,
		logger:    log,
		cache:     resultCache,
		db:        db,
		analytics: analytics,
		router:    gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(monitoring.HTTPMetricsMiddleware())
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.db.DB, s.cache, s.logger)
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	analyticsHandler := handlers.NewAnalyticsHandler(s.analytics, s.logger)

	// All metric routes are tenant-scoped; the tenant key in the path is the
	// only tenant input honored anywhere downstream.
	tenantGroup := s.router.Group("/api/v1/:tenant")
	tenantGroup.Use(middleware.TenantContext())
	tenantGroup.Use(middleware.RateLimiter(s.cache, s.config.RateLimit))

	metrics := tenantGroup.Group("/analytics")
	metrics.GET("/revenue-curve", analyticsHandler.RevenueCurve)
	metrics.GET("/goal-attainment", analyticsHandler.GoalAttainment)
	metrics.GET("/risk", analyticsHandler.Risk)
	metrics.GET("/timeseries", analyticsHandler.TimeSeries)
	metrics.GET("/associations", analyticsHandler.Associations)
	metrics.GET("/overview", analyticsHandler.Overview)

	tenantGroup.POST("/cache/invalidate", analyticsHandler.InvalidateCache)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("salescope-core REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down salescope-core gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close store pool", "error", err)
	}

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
