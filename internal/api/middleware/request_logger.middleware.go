package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// RequestLogger logs every HTTP request with tenant context when available.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		tenant := "unknown"
		if param.Keys != nil {
			if t, exists := param.Keys["tenant_id"]; exists {
				if ts, ok := t.(string); ok && ts != "" {
					tenant = ts
				}
			}
		}

		fields := []interface{}{
			"method", param.Method,
			"path", param.Path,
			"status", param.StatusCode,
			"latency", param.Latency,
			"client_ip", param.ClientIP,
			"tenant", tenant,
			"request_id", param.Request.Header.Get("X-Request-ID"),
		}
		if param.ErrorMessage != "" {
			fields = append(fields, "error", param.ErrorMessage)
		}

		switch {
		case param.StatusCode >= 500:
			log.Error("HTTP Request", fields...)
		case param.StatusCode >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}

		return ""
	})
}
