// Package tenant resolves inbound tenant keys to their schema names.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/internal/monitoring"
	"github.com/platformbuilds/salescope-core/pkg/logger"
)

// Entry is one tenant-directory row.
type Entry struct {
	Schema string
	Active bool
}

// Directory is the external provisioning collaborator. Lookup returns
// models.ErrTenantNotFound when the key is unknown.
type Directory interface {
	Lookup(ctx context.Context, tenantKey string) (*Entry, error)
}

type cachedEntry struct {
	entry     Entry
	fetchedAt time.Time
}

// Resolver maps tenant keys to schema names with a TTL-bounded lookup cache.
// There is deliberately no fallback to a default schema: an unknown or
// disabled tenant is a hard error, since a silent fallback would leak data
// across tenants.
type Resolver struct {
	dir    Directory
	ttl    time.Duration
	logger logger.Logger

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

func NewResolver(dir Directory, ttl time.Duration, log logger.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{
		dir:    dir,
		ttl:    ttl,
		logger: log,
		cache:  make(map[string]cachedEntry),
	}
}

// Resolve returns the schema name for a tenant key. The mapping is immutable
// for the lifetime of a request; callers hold the returned schema, not the
// key, for all subsequent statements.
func (r *Resolver) Resolve(ctx context.Context, tenantKey string) (string, error) {
	key := strings.TrimSpace(tenantKey)
	if key == "" {
		return "", fmt.Errorf("%w: empty tenant key", models.ErrTenantNotFound)
	}

	if entry, ok := r.cached(key); ok {
		monitoring.RecordTenantLookup("cached")
		if !entry.Active {
			return "", fmt.Errorf("%w: %s", models.ErrTenantDisabled, key)
		}
		return entry.Schema, nil
	}

	entry, err := r.dir.Lookup(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrTenantNotFound) {
			monitoring.RecordTenantLookup("not_found")
		} else {
			monitoring.RecordTenantLookup("error")
		}
		return "", err
	}

	r.mu.Lock()
	r.cache[key] = cachedEntry{entry: *entry, fetchedAt: time.Now()}
	r.mu.Unlock()
	monitoring.RecordTenantLookup("fetched")

	if !entry.Active {
		monitoring.RecordTenantLookup("disabled")
		r.logger.Warn("Tenant is disabled", "tenant", key)
		return "", fmt.Errorf("%w: %s", models.ErrTenantDisabled, key)
	}

	r.logger.Debug("Tenant schema resolved", "tenant", key, "schema", entry.Schema)
	return entry.Schema, nil
}

// Invalidate drops the cached mapping for one tenant key. Used by the
// provisioning collaborator when a tenant is re-homed or toggled.
func (r *Resolver) Invalidate(tenantKey string) {
	r.mu.Lock()
	delete(r.cache, strings.TrimSpace(tenantKey))
	r.mu.Unlock()
}

// InvalidateAll clears the whole mapping cache.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]cachedEntry)
	r.mu.Unlock()
}

func (r *Resolver) cached(key string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cache[key]
	if !ok || time.Since(c.fetchedAt) > r.ttl {
		return Entry{}, false
	}
	return c.entry, true
}
