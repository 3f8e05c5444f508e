package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/salescope-core/pkg/logger"
)

type curveParams struct {
	Year     int `json:"year"`
	Month    int `json:"month"`
	Industry int `json:"industry"`
}

func TestResultKey_TenantAlwaysInKey(t *testing.T) {
	a, err := ResultKey("alpha", "revenue_curve", curveParams{Year: 2025})
	require.NoError(t, err)
	b, err := ResultKey("beta", "revenue_curve", curveParams{Year: 2025})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, ":alpha:")
	assert.Contains(t, b, ":beta:")
}

func TestResultKey_CanonicalParamOrdering(t *testing.T) {
	// Two representations of the same parameters must hash identically.
	a, err := ResultKey("t1", "m", map[string]interface{}{"year": 2025, "month": 3})
	require.NoError(t, err)
	b, err := ResultKey("t1", "m", map[string]interface{}{"month": 3, "year": 2025})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Struct and equivalent map also agree.
	c, err := ResultKey("t1", "m", struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}{Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestResultKey_DifferentParamsDifferentKeys(t *testing.T) {
	a, _ := ResultKey("t1", "m", curveParams{Year: 2025, Month: 1})
	b, _ := ResultKey("t1", "m", curveParams{Year: 2025, Month: 2})
	assert.NotEqual(t, a, b)
}

func TestNoopCache_GetOrCompute(t *testing.T) {
	c := NewNoopResultCache(logger.New("error"))
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context) (interface{}, error) {
		calls++
		return map[string]int{"total": 42}, nil
	}

	data, hit, err := c.GetOrCompute(ctx, "acme", "revenue_curve", curveParams{Year: 2025}, time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, calls)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 42, decoded["total"])

	_, hit, err = c.GetOrCompute(ctx, "acme", "revenue_curve", curveParams{Year: 2025}, time.Minute, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestNoopCache_ComputeErrorNotCached(t *testing.T) {
	c := NewNoopResultCache(logger.New("error"))
	ctx := context.Background()

	boom := errors.New("store down")
	_, _, err := c.GetOrCompute(ctx, "acme", "risk", curveParams{Year: 2025}, time.Minute,
		func(ctx context.Context) (interface{}, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	// Next call recomputes.
	_, hit, err := c.GetOrCompute(ctx, "acme", "risk", curveParams{Year: 2025}, time.Minute,
		func(ctx context.Context) (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNoopCache_InvalidateByTenantAndMetric(t *testing.T) {
	c := NewNoopResultCache(logger.New("error"))
	ctx := context.Background()
	compute := func(v string) ComputeFunc {
		return func(ctx context.Context) (interface{}, error) { return v, nil }
	}

	_, _, _ = c.GetOrCompute(ctx, "acme", "revenue_curve", curveParams{Year: 2025}, time.Minute, compute("a"))
	_, _, _ = c.GetOrCompute(ctx, "acme", "timeseries", curveParams{Year: 2025}, time.Minute, compute("b"))
	_, _, _ = c.GetOrCompute(ctx, "globex", "revenue_curve", curveParams{Year: 2025}, time.Minute, compute("c"))

	// Invalidate one metric for one tenant.
	require.NoError(t, c.Invalidate(ctx, "acme", "revenue_curve"))

	_, hit, _ := c.GetOrCompute(ctx, "acme", "revenue_curve", curveParams{Year: 2025}, time.Minute, compute("a2"))
	assert.False(t, hit, "invalidated metric must recompute")
	_, hit, _ = c.GetOrCompute(ctx, "acme", "timeseries", curveParams{Year: 2025}, time.Minute, compute("b2"))
	assert.True(t, hit, "other metric for same tenant must survive")
	_, hit, _ = c.GetOrCompute(ctx, "globex", "revenue_curve", curveParams{Year: 2025}, time.Minute, compute("c2"))
	assert.True(t, hit, "other tenant must be untouched")

	// Invalidate whole tenant.
	require.NoError(t, c.Invalidate(ctx, "acme"))
	_, hit, _ = c.GetOrCompute(ctx, "acme", "timeseries", curveParams{Year: 2025}, time.Minute, compute("b3"))
	assert.False(t, hit)
}

func TestNoopCache_TTLExpiry(t *testing.T) {
	c := NewNoopResultCache(logger.New("error"))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.Error(t, err, "expired entry must miss")
}
