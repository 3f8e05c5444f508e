package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platformbuilds/salescope-core/internal/monitoring"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// redisResultCache implements ResultCache against a single Redis/Valkey node.
type redisResultCache struct {
	client *redis.Client
	logger logger.Logger
	ttl    time.Duration
}

func NewRedisResultCache(addr string, db int, password string, defaultTTL time.Duration, log logger.Logger) (ResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to result cache: %w", err)
	}

	return &redisResultCache{
		client: client,
		logger: log,
		ttl:    defaultTTL,
	}, nil
}

func (r *redisResultCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		monitoring.RecordCacheOperation("get", "error")
		return nil, err
	}
	monitoring.RecordCacheOperation("get", "hit")
	return b, nil
}

func (r *redisResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return fmt.Errorf("marshal value for key %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (r *redisResultCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		monitoring.RecordCacheOperation("delete", "error")
		return err
	}
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

func (r *redisResultCache) GetOrCompute(ctx context.Context, tenant, metric string, params interface{}, ttl time.Duration, compute ComputeFunc) ([]byte, bool, error) {
	key, err := ResultKey(tenant, metric, params)
	if err != nil {
		return nil, false, err
	}

	if cached, err := r.Get(ctx, key); err == nil {
		return cached, true, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, false, fmt.Errorf("marshal result for %s: %w", key, err)
	}

	// Cache write failures degrade to uncached operation, never to a request
	// failure.
	if err := r.Set(ctx, key, data, ttl); err != nil {
		r.logger.Warn("Result cache write failed", "key", key, "error", err)
		return data, false, nil
	}
	if err := r.client.SAdd(ctx, tenantIndexKey(tenant), key).Err(); err != nil {
		r.logger.Warn("Result cache index update failed", "tenant", tenant, "error", err)
	}

	return data, false, nil
}

func (r *redisResultCache) Invalidate(ctx context.Context, tenant string, metrics ...string) error {
	indexKey := tenantIndexKey(tenant)
	keys, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		monitoring.RecordCacheOperation("invalidate", "error")
		return fmt.Errorf("list cached keys for tenant %s: %w", tenant, err)
	}

	victims := keys
	if len(metrics) > 0 {
		victims = victims[:0]
		for _, key := range keys {
			for _, metric := range metrics {
				if strings.HasPrefix(key, metricKeyPrefix(tenant, metric)) {
					victims = append(victims, key)
					break
				}
			}
		}
	}

	if len(victims) == 0 {
		monitoring.RecordCacheOperation("invalidate", "success")
		return nil
	}

	if err := r.client.Del(ctx, victims...).Err(); err != nil {
		monitoring.RecordCacheOperation("invalidate", "error")
		return err
	}
	if err := r.client.SRem(ctx, indexKey, toInterfaces(victims)...).Err(); err != nil {
		r.logger.Warn("Result cache index cleanup failed", "tenant", tenant, "error", err)
	}

	monitoring.RecordCacheOperation("invalidate", "success")
	return nil
}

func (r *redisResultCache) HealthCheck(ctx context.Context) error {
	if ctx == nil {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = c
	}
	return r.client.Ping(ctx).Err()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch x := value.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return json.Marshal(x)
	}
}

func toInterfaces(keys []string) []interface{} {
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
