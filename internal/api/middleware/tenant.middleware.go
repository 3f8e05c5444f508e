package middleware

import "github.com/gin-gonic/gin"

// TenantContext copies the tenant path parameter into the request context so
// downstream middleware and loggers can attribute the request without parsing
// the URL again.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenant := c.Param("tenant"); tenant != "" {
			c.Set("tenant_id", tenant)
		}
		c.Next()
	}
}
