package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ComputeFunc produces a metric result on a cache miss. The returned value is
// JSON-marshaled for storage.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// ResultCache memoizes aggregator outputs keyed by (tenant, metric, params).
// The tenant is always part of the key, so stale reads can never cross tenant
// boundaries. Implementations are process-local from the caller's point of
// view; no cross-process coherency is guaranteed.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// GetOrCompute returns the cached result for (tenant, metric, params) or
	// runs compute, stores the result with the given TTL and returns it. The
	// bool reports a cache hit. Concurrent computation of the same missing key
	// is tolerated as redundant work.
	GetOrCompute(ctx context.Context, tenant, metric string, params interface{}, ttl time.Duration, compute ComputeFunc) ([]byte, bool, error)

	// Invalidate removes cached entries for a tenant; with metrics given, only
	// entries for those metric names are removed.
	Invalidate(ctx context.Context, tenant string, metrics ...string) error

	HealthCheck(ctx context.Context) error
}

const (
	resultKeyPrefix = "analytics"
	indexKeyPrefix  = "analytics_keys"
)

// ResultKey builds the cache key for a metric computation. Params are
// canonicalized through a map round-trip so key ordering and formatting never
// produce spurious misses.
func ResultKey(tenant, metric string, params interface{}) (string, error) {
	canonical, err := canonicalParams(params)
	if err != nil {
		return "", fmt.Errorf("canonicalize params for %s/%s: %w", tenant, metric, err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%s:%s:%s", resultKeyPrefix, tenant, metric, hex.EncodeToString(sum[:])), nil
}

// metricKeyPrefix is the shared prefix of every key for (tenant, metric).
func metricKeyPrefix(tenant, metric string) string {
	return fmt.Sprintf("%s:%s:%s:", resultKeyPrefix, tenant, metric)
}

// tenantIndexKey names the per-tenant set that tracks live result keys so
// invalidation does not need a keyspace scan.
func tenantIndexKey(tenant string) string {
	return fmt.Sprintf("%s:%s", indexKeyPrefix, tenant)
}

// canonicalParams produces deterministic JSON: structs are round-tripped
// through a map so encoding/json emits keys in sorted order.
func canonicalParams(params interface{}) ([]byte, error) {
	if params == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		// Non-object params (scalars, arrays) are already deterministic.
		return raw, nil
	}
	return json.Marshal(m)
}
