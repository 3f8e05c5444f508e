package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// AnalyticsAPI is the service surface the handler needs. Satisfied by
// services.AnalyticsService.
type AnalyticsAPI interface {
	RevenueCurve(ctx context.Context, tenantKey string, p models.CurveParams) ([]byte, bool, error)
	GoalAttainment(ctx context.Context, tenantKey string, p models.AttainmentParams) ([]byte, bool, error)
	Risk(ctx context.Context, tenantKey string, p models.RiskParams) ([]byte, bool, error)
	TimeSeries(ctx context.Context, tenantKey string, p models.TimeSeriesParams) ([]byte, bool, error)
	Associations(ctx context.Context, tenantKey string, p models.AssociationParams) ([]byte, bool, error)
	Overview(ctx context.Context, tenantKey string, year int) ([]byte, bool, error)
	InvalidateCache(ctx context.Context, tenantKey string, metrics ...string) error
}

// AnalyticsHandler exposes the tenant-scoped metric endpoints. Results come
// from the service as marshaled JSON and are passed through unchanged, with
// an X-Cache header reporting hit or miss.
type AnalyticsHandler struct {
	service AnalyticsAPI
	logger  logger.Logger
}

func NewAnalyticsHandler(service AnalyticsAPI, log logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: log}
}

// GET /api/v1/:tenant/analytics/revenue-curve
func (h *AnalyticsHandler) RevenueCurve(c *gin.Context) {
	year, err := models.ParseYear(c.Query("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	month, err := models.ParseMonth(c.Query("month"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	p := models.CurveParams{
		Year:     year,
		Month:    month,
		Industry: models.ParseIDFilter(c.Query("industry")),
	}
	data, hit, err := h.service.RevenueCurve(c.Request.Context(), c.Param("tenant"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeResult(c, data, hit)
}

// GET /api/v1/:tenant/analytics/goal-attainment
func (h *AnalyticsHandler) GoalAttainment(c *gin.Context) {
	vendorID, err := parsePositiveInt(c.Query("vendor"), "vendor")
	if err != nil {
		_ = c.Error(err)
		return
	}
	year, err := models.ParseYear(c.Query("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	month, err := models.ParseMonth(c.Query("month"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	p := models.AttainmentParams{
		VendorID: vendorID,
		Year:     year,
		Month:    month,
		Industry: models.ParseIDFilter(c.Query("industry")),
	}
	data, hit, err := h.service.GoalAttainment(c.Request.Context(), c.Param("tenant"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeResult(c, data, hit)
}

// GET /api/v1/:tenant/analytics/risk
func (h *AnalyticsHandler) Risk(c *gin.Context) {
	var p models.RiskParams
	if raw := strings.TrimSpace(c.Query("window")); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil || window < 1 || window > 36 {
			_ = c.Error(fmt.Errorf("%w: window %q", models.ErrInvalidParameter, raw))
			return
		}
		p.WindowMonths = window
	}

	data, hit, err := h.service.Risk(c.Request.Context(), c.Param("tenant"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeResult(c, data, hit)
}

// GET /api/v1/:tenant/analytics/timeseries
func (h *AnalyticsHandler) TimeSeries(c *gin.Context) {
	year, err := models.ParseYear(c.Query("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	data, hit, err := h.service.TimeSeries(c.Request.Context(), c.Param("tenant"), models.TimeSeriesParams{Year: year})
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeResult(c, data, hit)
}

// GET /api/v1/:tenant/analytics/associations
func (h *AnalyticsHandler) Associations(c *gin.Context) {
	year, err := models.ParseYear(c.Query("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	month, err := models.ParseMonth(c.Query("month"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	minSupport, err := parseRatio(c.Query("min_support"), "min_support")
	if err != nil {
		_ = c.Error(err)
		return
	}
	minConfidence, err := parseRatio(c.Query("min_confidence"), "min_confidence")
	if err != nil {
		_ = c.Error(err)
		return
	}

	p := models.AssociationParams{
		Year:          year,
		Month:         month,
		MinSupport:    minSupport,
		MinConfidence: minConfidence,
	}
	data, hit, err := h.service.Associations(c.Request.Context(), c.Param("tenant"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeResult(c, data, hit)
}

// GET /api/v1/:tenant/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	year, err := models.ParseYear(c.Query("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	data, hit, err := h.service.Overview(c.Request.Context(), c.Param("tenant"), year)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeResult(c, data, hit)
}

type invalidateRequest struct {
	Metrics []string `json:"metrics"`
}

// POST /api/v1/:tenant/cache/invalidate
func (h *AnalyticsHandler) InvalidateCache(c *gin.Context) {
	var req invalidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(fmt.Errorf("%w: %s", models.ErrInvalidParameter, err.Error()))
			return
		}
	}

	tenant := c.Param("tenant")
	if err := h.service.InvalidateCache(c.Request.Context(), tenant, req.Metrics...); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"tenant":  tenant,
		"metrics": req.Metrics,
	})
}

func writeResult(c *gin.Context, data []byte, hit bool) {
	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func parsePositiveInt(raw, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s %q", models.ErrInvalidParameter, name, raw)
	}
	return v, nil
}

// parseRatio parses an optional (0, 1] threshold override. Empty means the
// configured default.
func parseRatio(raw, name string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > 1 {
		return 0, fmt.Errorf("%w: %s %q", models.ErrInvalidParameter, name, raw)
	}
	return v, nil
}
