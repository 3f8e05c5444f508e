package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/salescope-core/internal/api/middleware"
	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// fakeAnalytics returns canned payloads and records the params it saw.
type fakeAnalytics struct {
	payload []byte
	hit     bool
	err     error

	lastTenant      string
	lastCurveParams models.CurveParams
	invalidated     []string
}

func (f *fakeAnalytics) RevenueCurve(ctx context.Context, tenantKey string, p models.CurveParams) ([]byte, bool, error) {
	f.lastTenant = tenantKey
	f.lastCurveParams = p
	return f.payload, f.hit, f.err
}

func (f *fakeAnalytics) GoalAttainment(ctx context.Context, tenantKey string, p models.AttainmentParams) ([]byte, bool, error) {
	f.lastTenant = tenantKey
	return f.payload, f.hit, f.err
}

func (f *fakeAnalytics) Risk(ctx context.Context, tenantKey string, p models.RiskParams) ([]byte, bool, error) {
	f.lastTenant = tenantKey
	return f.payload, f.hit, f.err
}

func (f *fakeAnalytics) TimeSeries(ctx context.Context, tenantKey string, p models.TimeSeriesParams) ([]byte, bool, error) {
	f.lastTenant = tenantKey
	return f.payload, f.hit, f.err
}

func (f *fakeAnalytics) Associations(ctx context.Context, tenantKey string, p models.AssociationParams) ([]byte, bool, error) {
	f.lastTenant = tenantKey
	return f.payload, f.hit, f.err
}

func (f *fakeAnalytics) Overview(ctx context.Context, tenantKey string, year int) ([]byte, bool, error) {
	f.lastTenant = tenantKey
	return f.payload, f.hit, f.err
}

func (f *fakeAnalytics) InvalidateCache(ctx context.Context, tenantKey string, metrics ...string) error {
	f.lastTenant = tenantKey
	f.invalidated = metrics
	return f.err
}

func newTestRouter(service AnalyticsAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(logger.Noop()))

	h := NewAnalyticsHandler(service, logger.Noop())
	tenantGroup := router.Group("/api/v1/:tenant")
	tenantGroup.Use(middleware.TenantContext())

	metrics := tenantGroup.Group("/analytics")
	metrics.GET("/revenue-curve", h.RevenueCurve)
	metrics.GET("/goal-attainment", h.GoalAttainment)
	metrics.GET("/risk", h.Risk)
	metrics.GET("/timeseries", h.TimeSeries)
	metrics.GET("/associations", h.Associations)
	metrics.GET("/overview", h.Overview)
	tenantGroup.POST("/cache/invalidate", h.InvalidateCache)

	return router
}

func doRequest(router *gin.Engine, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRevenueCurveEndpoint(t *testing.T) {
	service := &fakeAnalytics{payload: []byte(`{"totalRevenue":100}`), hit: true}
	router := newTestRouter(service)

	w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/revenue-curve?year=2025&month=3&industry=7", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"totalRevenue":100}`, w.Body.String())
	assert.Equal(t, "acme", service.lastTenant)
	assert.Equal(t, 2025, service.lastCurveParams.Year)
	assert.Equal(t, 3, service.lastCurveParams.Month)
	assert.Equal(t, int64(7), service.lastCurveParams.Industry.ID)
}

func TestRevenueCurveEndpoint_BadParams(t *testing.T) {
	router := newTestRouter(&fakeAnalytics{payload: []byte(`{}`)})

	t.Run("missing year", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/revenue-curve", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("month out of range", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/revenue-curve?year=2025&month=13", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed industry falls back to all", func(t *testing.T) {
		service := &fakeAnalytics{payload: []byte(`{}`)}
		router := newTestRouter(service)
		w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/revenue-curve?year=2025&industry=banana", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, service.lastCurveParams.Industry.All)
	})
}

func TestTenantErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown tenant", fmt.Errorf("%w: ghost", models.ErrTenantNotFound), http.StatusNotFound, "TENANT_NOT_FOUND"},
		{"disabled tenant", fmt.Errorf("%w: acme", models.ErrTenantDisabled), http.StatusForbidden, "TENANT_DISABLED"},
		{"transient store failure", models.NewDataAccessError("query", true, fmt.Errorf("connection reset")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"permanent store failure", models.NewDataAccessError("query", false, fmt.Errorf("relation missing")), http.StatusInternalServerError, "STORE_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeAnalytics{err: tc.err})
			w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/timeseries?year=2025", "")

			assert.Equal(t, tc.status, w.Code)

			var resp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestGoalAttainmentEndpoint_RequiresVendor(t *testing.T) {
	router := newTestRouter(&fakeAnalytics{payload: []byte(`{}`)})

	w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/goal-attainment?year=2025", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/acme/analytics/goal-attainment?year=2025&vendor=9", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRiskEndpoint_WindowValidation(t *testing.T) {
	router := newTestRouter(&fakeAnalytics{payload: []byte(`{}`)})

	w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/risk?window=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/acme/analytics/risk", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
}

func TestAssociationsEndpoint_ThresholdValidation(t *testing.T) {
	router := newTestRouter(&fakeAnalytics{payload: []byte(`{}`)})

	w := doRequest(router, http.MethodGet, "/api/v1/acme/analytics/associations?year=2025&min_support=1.5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/acme/analytics/associations?year=2025&min_support=0.05&min_confidence=0.3", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	t.Run("with metric list", func(t *testing.T) {
		service := &fakeAnalytics{}
		router := newTestRouter(service)

		w := doRequest(router, http.MethodPost, "/api/v1/acme/cache/invalidate", `{"metrics":["revenue_curve"]}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"revenue_curve"}, service.invalidated)
	})

	t.Run("empty body drops everything", func(t *testing.T) {
		service := &fakeAnalytics{}
		router := newTestRouter(service)

		w := doRequest(router, http.MethodPost, "/api/v1/acme/cache/invalidate", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, service.invalidated)
	})

	t.Run("unknown metric rejected", func(t *testing.T) {
		service := &fakeAnalytics{err: fmt.Errorf("%w: unknown metric", models.ErrInvalidParameter)}
		router := newTestRouter(service)

		w := doRequest(router, http.MethodPost, "/api/v1/acme/cache/invalidate", `{"metrics":["bogus"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
