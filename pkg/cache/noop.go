package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// noopResultCache is an in-memory, process-local fallback that satisfies
// ResultCache when the external cache is unavailable. Intended for development
// and degraded operation; entries honor TTL but are lost on restart.
type noopResultCache struct {
	mu      sync.RWMutex
	entries map[string]noopEntry
	index   map[string]map[string]struct{} // tenant -> keys
	logger  logger.Logger
}

type noopEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewNoopResultCache(log logger.Logger) ResultCache {
	log.Warn("Result cache unavailable; using in-memory fallback (noop)")
	return &noopResultCache{
		entries: make(map[string]noopEntry),
		index:   make(map[string]map[string]struct{}),
		logger:  log,
	}
}

func (n *noopResultCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	entry, ok := n.entries[key]
	n.mu.RUnlock()
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return entry.data, nil
}

func (n *noopResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	entry := noopEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	n.mu.Lock()
	n.entries[key] = entry
	n.mu.Unlock()
	return nil
}

func (n *noopResultCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.entries, key)
	n.mu.Unlock()
	return nil
}

func (n *noopResultCache) GetOrCompute(ctx context.Context, tenant, metric string, params interface{}, ttl time.Duration, compute ComputeFunc) ([]byte, bool, error) {
	key, err := ResultKey(tenant, metric, params)
	if err != nil {
		return nil, false, err
	}

	if cached, err := n.Get(ctx, key); err == nil {
		return cached, true, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, false, err
	}

	if err := n.Set(ctx, key, data, ttl); err != nil {
		return data, false, nil
	}
	n.mu.Lock()
	if n.index[tenant] == nil {
		n.index[tenant] = make(map[string]struct{})
	}
	n.index[tenant][key] = struct{}{}
	n.mu.Unlock()

	return data, false, nil
}

func (n *noopResultCache) Invalidate(ctx context.Context, tenant string, metrics ...string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for key := range n.index[tenant] {
		if len(metrics) > 0 && !matchesMetric(tenant, key, metrics) {
			continue
		}
		delete(n.entries, key)
		delete(n.index[tenant], key)
	}
	return nil
}

func matchesMetric(tenant, key string, metrics []string) bool {
	for _, metric := range metrics {
		if strings.HasPrefix(key, metricKeyPrefix(tenant, metric)) {
			return true
		}
	}
	return false
}

// HealthCheck reports an error so readiness probes surface that the external
// cache is not connected.
func (n *noopResultCache) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("noop result cache in use (external cache not connected)")
}
