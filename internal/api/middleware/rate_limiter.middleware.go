package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/salescope-core/internal/config"
	"github.com/platformbuilds/salescope-core/pkg/cache"
)

// Anonymous tenant ID for requests outside the tenant-scoped routes.
const AnonymousTenantID = "anonymous"

// RateLimiter implements per-tenant rate limiting on fixed one-minute
// windows, counted in the shared cache so all replicas see the same budget.
// Counter failures fail open; throttling must never take the API down.
func RateLimiter(c cache.ResultCache, cfg config.RateLimitConfig) gin.HandlerFunc {
	maxRequests := int64(cfg.RequestsPerMinute)

	return func(gc *gin.Context) {
		if !cfg.Enabled {
			gc.Next()
			return
		}

		tenantID := gc.GetString("tenant_id")
		if tenantID == "" {
			tenantID = AnonymousTenantID
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("rate_limit:%s:%d", tenantID, window)

		var currentCount int64
		if countBytes, err := c.Get(gc.Request.Context(), key); err == nil {
			if count, err := strconv.ParseInt(string(countBytes), 10, 64); err == nil {
				currentCount = count
			}
		}

		if currentCount >= maxRequests {
			gc.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
			gc.Header("X-Rate-Limit-Remaining", "0")
			gc.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

			gc.JSON(http.StatusTooManyRequests, gin.H{
				"status":      "error",
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			gc.Abort()
			return
		}

		newCount := currentCount + 1
		_ = c.Set(gc.Request.Context(), key, newCount, 2*time.Minute)

		gc.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
		gc.Header("X-Rate-Limit-Remaining", strconv.FormatInt(maxRequests-newCount, 10))
		gc.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

		gc.Next()
	}
}
