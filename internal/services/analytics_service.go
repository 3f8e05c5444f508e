// Package services orchestrates one analytics request: resolve the tenant,
// fetch fact rows from the tenant's schema, run the aggregation and memoize
// the result.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/platformbuilds/salescope-core/internal/analytics"
	"github.com/platformbuilds/salescope-core/internal/config"
	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/internal/monitoring"
	"github.com/platformbuilds/salescope-core/pkg/cache"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// Metric names used in cache keys, metrics labels and the invalidation API.
const (
	MetricRevenueCurve   = "revenue_curve"
	MetricGoalAttainment = "goal_attainment"
	MetricRisk           = "risk"
	MetricTimeSeries     = "timeseries"
	MetricAssociations   = "associations"
	MetricOverview       = "overview"
)

var knownMetrics = map[string]bool{
	MetricRevenueCurve:   true,
	MetricGoalAttainment: true,
	MetricRisk:           true,
	MetricTimeSeries:     true,
	MetricAssociations:   true,
	MetricOverview:       true,
}

// KnownMetric reports whether name is a valid metric identifier.
func KnownMetric(name string) bool { return knownMetrics[name] }

// Store is the tenant-scoped fact reader. Implemented by postgres.Store; the
// schema argument selects which tenant's rows are visible.
type Store interface {
	ProductRevenue(ctx context.Context, schema string, year, month int, industry models.IDFilter) ([]models.ProductRevenue, error)
	Catalog(ctx context.Context, schema string, industry models.IDFilter) ([]models.Product, error)
	Goal(ctx context.Context, schema string, vendorID int64, year int, industry models.IDFilter) (*models.Goal, error)
	VendorSales(ctx context.Context, schema string, vendorID int64, year, month int, industry models.IDFilter) (float64, error)
	MonthlyRollup(ctx context.Context, schema string, year int) ([]analytics.MonthlyRow, error)
	OrderLines(ctx context.Context, schema string, year, month int) ([]models.OrderLine, error)
	ProductActivity(ctx context.Context, schema string) ([]analytics.ProductActivity, error)
	ClientActivity(ctx context.Context, schema string) ([]analytics.ClientActivity, error)
}

// SchemaResolver maps an inbound tenant key to its schema name.
type SchemaResolver interface {
	Resolve(ctx context.Context, tenantKey string) (string, error)
}

// AnalyticsService computes the tenant-scoped metrics. Results are returned
// as marshaled JSON straight from the cache layer; handlers pass the bytes
// through unchanged.
type AnalyticsService struct {
	resolver SchemaResolver
	store    Store
	cache    cache.ResultCache
	cfg      config.AnalyticsConfig
	ttl      time.Duration
	logger   logger.Logger

	now func() time.Time
}

func NewAnalyticsService(resolver SchemaResolver, store Store, c cache.ResultCache, cfg config.AnalyticsConfig, ttl time.Duration, log logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		resolver: resolver,
		store:    store,
		cache:    c,
		cfg:      cfg,
		ttl:      ttl,
		logger:   log,
		now:      time.Now,
	}
}

// Config exposes the aggregation defaults so handlers can fill optional
// parameters.
func (s *AnalyticsService) Config() config.AnalyticsConfig { return s.cfg }

// RevenueCurve classifies the tenant's products into revenue tiers for a
// period. The bool reports a cache hit.
func (s *AnalyticsService) RevenueCurve(ctx context.Context, tenantKey string, p models.CurveParams) ([]byte, bool, error) {
	return s.cached(ctx, tenantKey, MetricRevenueCurve, p, func(ctx context.Context, schema string) (interface{}, error) {
		return s.computeCurve(ctx, schema, p)
	})
}

// GoalAttainment reports a vendor's sales against their configured target.
func (s *AnalyticsService) GoalAttainment(ctx context.Context, tenantKey string, p models.AttainmentParams) ([]byte, bool, error) {
	return s.cached(ctx, tenantKey, MetricGoalAttainment, p, func(ctx context.Context, schema string) (interface{}, error) {
		return s.computeAttainment(ctx, schema, p)
	})
}

// Risk flags dead stock and at-risk clients over a trailing window.
func (s *AnalyticsService) Risk(ctx context.Context, tenantKey string, p models.RiskParams) ([]byte, bool, error) {
	if p.WindowMonths <= 0 {
		p.WindowMonths = s.cfg.RiskWindowMonths
	}
	return s.cached(ctx, tenantKey, MetricRisk, p, func(ctx context.Context, schema string) (interface{}, error) {
		return s.computeRisk(ctx, schema, p.WindowMonths)
	})
}

// TimeSeries returns the twelve-month revenue rollup of one year.
func (s *AnalyticsService) TimeSeries(ctx context.Context, tenantKey string, p models.TimeSeriesParams) ([]byte, bool, error) {
	return s.cached(ctx, tenantKey, MetricTimeSeries, p, func(ctx context.Context, schema string) (interface{}, error) {
		return s.computeTimeSeries(ctx, schema, p.Year)
	})
}

// Associations mines directed product association rules from order lines.
func (s *AnalyticsService) Associations(ctx context.Context, tenantKey string, p models.AssociationParams) ([]byte, bool, error) {
	if p.MinSupport <= 0 {
		p.MinSupport = s.cfg.MinSupport
	}
	if p.MinConfidence <= 0 {
		p.MinConfidence = s.cfg.MinConfidence
	}
	return s.cached(ctx, tenantKey, MetricAssociations, p, func(ctx context.Context, schema string) (interface{}, error) {
		return s.computeAssociations(ctx, schema, p)
	})
}

// Overview combines curve, time series and risk into one dashboard payload.
// A metric that fails to compute degrades to a warning instead of failing the
// whole response.
func (s *AnalyticsService) Overview(ctx context.Context, tenantKey string, year int) ([]byte, bool, error) {
	p := models.OverviewParams{Year: year, WindowMonths: s.cfg.RiskWindowMonths}
	return s.cached(ctx, tenantKey, MetricOverview, p, func(ctx context.Context, schema string) (interface{}, error) {
		result := models.OverviewResult{Year: year}

		if curve, err := s.computeCurve(ctx, schema, models.CurveParams{Year: year, Industry: models.AllIDs()}); err != nil {
			s.logger.Error("Overview metric failed", "metric", MetricRevenueCurve, "schema", schema, "error", err)
			result.Warnings = append(result.Warnings, MetricRevenueCurve+": temporarily unavailable")
		} else {
			result.Curve = &curve
		}

		if series, err := s.computeTimeSeries(ctx, schema, year); err != nil {
			s.logger.Error("Overview metric failed", "metric", MetricTimeSeries, "schema", schema, "error", err)
			result.Warnings = append(result.Warnings, MetricTimeSeries+": temporarily unavailable")
		} else {
			result.TimeSeries = &series
		}

		if risk, err := s.computeRisk(ctx, schema, p.WindowMonths); err != nil {
			s.logger.Error("Overview metric failed", "metric", MetricRisk, "schema", schema, "error", err)
			result.Warnings = append(result.Warnings, MetricRisk+": temporarily unavailable")
		} else {
			result.Risk = &risk
		}

		if result.Curve == nil && result.TimeSeries == nil && result.Risk == nil {
			return nil, fmt.Errorf("all overview metrics failed")
		}
		return result, nil
	})
}

// InvalidateCache drops cached results for a tenant. With metrics given, only
// those metric families are dropped; unknown names are rejected.
func (s *AnalyticsService) InvalidateCache(ctx context.Context, tenantKey string, metrics ...string) error {
	if _, err := s.resolver.Resolve(ctx, tenantKey); err != nil {
		return err
	}
	for _, m := range metrics {
		if !KnownMetric(m) {
			return fmt.Errorf("%w: unknown metric %q", models.ErrInvalidParameter, m)
		}
	}
	if err := s.cache.Invalidate(ctx, tenantKey, metrics...); err != nil {
		return fmt.Errorf("invalidate cache for %s: %w", tenantKey, err)
	}
	s.logger.Info("Cache invalidated", "tenant", tenantKey, "metrics", metrics)
	return nil
}

// cached resolves the tenant and serves the metric through the result cache.
func (s *AnalyticsService) cached(ctx context.Context, tenantKey, metric string, params interface{}, compute func(ctx context.Context, schema string) (interface{}, error)) ([]byte, bool, error) {
	schema, err := s.resolver.Resolve(ctx, tenantKey)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	data, hit, err := s.cache.GetOrCompute(ctx, tenantKey, metric, params, s.ttl, func(ctx context.Context) (interface{}, error) {
		return compute(ctx, schema)
	})
	monitoring.RecordAnalyticsQuery(metric, tenantKey, time.Since(start), err == nil)
	if err != nil {
		return nil, false, err
	}
	return data, hit, nil
}

func (s *AnalyticsService) computeCurve(ctx context.Context, schema string, p models.CurveParams) (models.RevenueCurveResult, error) {
	sold, err := s.store.ProductRevenue(ctx, schema, p.Year, p.Month, p.Industry)
	if err != nil {
		return models.RevenueCurveResult{}, err
	}
	catalog, err := s.store.Catalog(ctx, schema, p.Industry)
	if err != nil {
		return models.RevenueCurveResult{}, err
	}

	result := analytics.ClassifyABC(sold, catalog)
	result.Warnings = append(result.Warnings, analytics.DetectDuplicateCatalog(catalog)...)
	return result, nil
}

func (s *AnalyticsService) computeAttainment(ctx context.Context, schema string, p models.AttainmentParams) (models.AttainmentResult, error) {
	vendorID := int64(p.VendorID)
	goal, err := s.store.Goal(ctx, schema, vendorID, p.Year, p.Industry)
	if err != nil {
		return models.AttainmentResult{}, err
	}
	sales, err := s.store.VendorSales(ctx, schema, vendorID, p.Year, p.Month, p.Industry)
	if err != nil {
		return models.AttainmentResult{}, err
	}
	return analytics.GoalAttainment(vendorID, p.Year, p.Month, p.Industry, sales, goal), nil
}

func (s *AnalyticsService) computeRisk(ctx context.Context, schema string, windowMonths int) (models.RiskResult, error) {
	products, err := s.store.ProductActivity(ctx, schema)
	if err != nil {
		return models.RiskResult{}, err
	}
	clients, err := s.store.ClientActivity(ctx, schema)
	if err != nil {
		return models.RiskResult{}, err
	}

	now := s.now()
	return models.RiskResult{
		WindowMonths: windowMonths,
		DeadStock:    analytics.DetectDeadStock(products, now, windowMonths),
		ClientRisk:   analytics.DetectClientRisk(clients, now, windowMonths),
	}, nil
}

func (s *AnalyticsService) computeTimeSeries(ctx context.Context, schema string, year int) (models.TimeSeriesResult, error) {
	rows, err := s.store.MonthlyRollup(ctx, schema, year)
	if err != nil {
		return models.TimeSeriesResult{}, err
	}
	return analytics.MonthlySeries(year, rows), nil
}

func (s *AnalyticsService) computeAssociations(ctx context.Context, schema string, p models.AssociationParams) (models.AssociationResult, error) {
	lines, err := s.store.OrderLines(ctx, schema, p.Year, p.Month)
	if err != nil {
		return models.AssociationResult{}, err
	}
	cfg := analytics.CorrelationConfig{
		MinSupport:    p.MinSupport,
		MinConfidence: p.MinConfidence,
		MaxOrderLines: s.cfg.MaxOrderLines,
	}
	return analytics.AssociateProducts(lines, cfg, s.logger), nil
}
