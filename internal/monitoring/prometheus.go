// Package monitoring provides Prometheus metrics for the salescope-core API.
//
// Usage:
//
//  1. Setup metrics in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Add HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
//  3. Record custom metrics in your code:
//
//     // Database operations
//     start := time.Now()
//     // ... your DB code ...
//     monitoring.RecordDBOperation("select", "orders", time.Since(start), true)
//
//     // Cache operations
//     monitoring.RecordCacheOperation("get", "hit")
//
//     // Analytics queries
//     monitoring.RecordAnalyticsQuery("revenue_curve", tenantID, time.Since(start), true)
package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescope_core_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "tenant_id"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salescope_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "tenant_id"},
	)

	dbOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescope_core_db_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "table", "status"},
	)

	dbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salescope_core_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "table"},
	)

	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescope_core_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error, success
	)

	analyticsQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescope_core_analytics_queries_total",
			Help: "Total number of analytics queries executed",
		},
		[]string{"metric", "tenant_id", "status"},
	)

	analyticsQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salescope_core_analytics_query_duration_seconds",
			Help:    "Analytics query duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"metric", "tenant_id"},
	)

	tenantLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescope_core_tenant_lookups_total",
			Help: "Total number of tenant schema resolutions",
		},
		[]string{"result"}, // result: cached, fetched, not_found, disabled, error
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescope_core_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

// SetupPrometheusMetrics registers salescope-core metrics and mounts /metrics.
func SetupPrometheusMetrics(router gin.IRoutes) {
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "salescope_core_build_info",
		Help: "Build information for salescope-core",
		ConstLabels: prometheus.Labels{
			"component": "salescope-core",
		},
	}, func() float64 { return 1 }))

	_ = prometheus.Register(httpRequestsTotal)
	_ = prometheus.Register(httpRequestDuration)
	_ = prometheus.Register(dbOperationsTotal)
	_ = prometheus.Register(dbOperationDuration)
	_ = prometheus.Register(cacheOperationsTotal)
	_ = prometheus.Register(analyticsQueriesTotal)
	_ = prometheus.Register(analyticsQueryDuration)
	_ = prometheus.Register(tenantLookupsTotal)
	_ = prometheus.Register(errorsTotal)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics per tenant.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := normalizeEndpoint(c.Request.URL.Path)

		c.Next()

		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = "unknown"
		}

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(method, endpoint, status, tenantID).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint, tenantID).Observe(time.Since(start).Seconds())
	}
}

// RecordDBOperation records a database operation metric.
func RecordDBOperation(operation, table string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("db", "storage").Inc()
	}
	dbOperationsTotal.WithLabelValues(operation, table, status).Inc()
	dbOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache operation with its result
// (hit, miss, error, success).
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", "result_cache").Inc()
	}
}

// RecordAnalyticsQuery records an analytics metric computation.
func RecordAnalyticsQuery(metric, tenantID string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("analytics", metric).Inc()
	}
	analyticsQueriesTotal.WithLabelValues(metric, tenantID, status).Inc()
	analyticsQueryDuration.WithLabelValues(metric, tenantID).Observe(duration.Seconds())
}

// RecordTenantLookup records a tenant schema resolution outcome.
func RecordTenantLookup(result string) {
	tenantLookupsTotal.WithLabelValues(result).Inc()
}

// normalizeEndpoint collapses tenant keys and numeric path segments so metric
// cardinality stays bounded.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.Atoi(p); err == nil {
			parts[i] = ":id"
			continue
		}
		// /api/v1/<tenant>/analytics/... -> tenant segment follows v1
		if i > 0 && parts[i-1] == "v1" && p != "health" && p != "ready" {
			parts[i] = ":tenant"
		}
	}
	return strings.Join(parts, "/")
}
