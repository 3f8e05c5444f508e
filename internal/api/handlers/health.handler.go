package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/salescope-core/pkg/cache"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// Pinger is the storage liveness probe. Satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	cache  cache.ResultCache
	logger logger.Logger
}

func NewHealthHandler(db Pinger, c cache.ResultCache, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: c, logger: log}
}

// GET /health - quick liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "salescope-core",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - readiness check. The store is required; the cache is reported
// but not required, since metrics degrade to uncached computation without it.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	dbStatus := "up"
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("Readiness probe failed against store", "error", err)
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	cacheStatus := "up"
	if err := h.cache.HealthCheck(ctx); err != nil {
		cacheStatus = "degraded"
	}

	c.JSON(status, gin.H{
		"ready":     status == http.StatusOK,
		"database":  dbStatus,
		"cache":     cacheStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
