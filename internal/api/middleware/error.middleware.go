package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// ErrorResponse is the standardized error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorHandler translates domain errors attached via c.Error into HTTP
// responses. Status codes come from the typed error taxonomy, not from
// message text, so wording changes can never flip a response class.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		statusCode, code := classifyError(err)

		message := err.Error()
		if statusCode >= 500 {
			// Internal detail stays in the logs.
			message = http.StatusText(statusCode)
		}

		logError(log, statusCode, err, c)
		c.JSON(statusCode, ErrorResponse{Error: message, Code: code})
	}
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTenantNotFound):
		return http.StatusNotFound, "TENANT_NOT_FOUND"
	case errors.Is(err, models.ErrTenantDisabled):
		return http.StatusForbidden, "TENANT_DISABLED"
	case errors.Is(err, models.ErrInvalidParameter):
		return http.StatusBadRequest, "INVALID_REQUEST"
	}

	var dataErr *models.DataAccessError
	if errors.As(err, &dataErr) {
		if dataErr.Transient {
			return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
		}
		return http.StatusInternalServerError, "STORE_ERROR"
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func logError(log logger.Logger, statusCode int, err error, c *gin.Context) {
	fields := []interface{}{
		"status", statusCode,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"error", err.Error(),
	}
	if tenantID := c.GetString("tenant_id"); tenantID != "" {
		fields = append(fields, "tenant_id", tenantID)
	}

	if statusCode >= 500 {
		log.Error("HTTP Error", fields...)
	} else {
		log.Warn("HTTP Error", fields...)
	}
}
