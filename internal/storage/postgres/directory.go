package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platformbuilds/salescope-core/internal/models"
	"github.com/platformbuilds/salescope-core/internal/tenant"
)

// TenantDirectory reads the shared tenant registry in the public schema. The
// registry is maintained by the provisioning service; this side only reads.
type TenantDirectory struct {
	db *sql.DB
}

func NewTenantDirectory(client *Client) *TenantDirectory {
	return &TenantDirectory{db: client.DB}
}

func (d *TenantDirectory) Lookup(ctx context.Context, tenantKey string) (*tenant.Entry, error) {
	query := `
        SELECT schema_name, active
        FROM public.tenants
        WHERE tenant_key = $1
    `

	var entry tenant.Entry
	err := d.db.QueryRowContext(ctx, query, tenantKey).Scan(&entry.Schema, &entry.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrTenantNotFound, tenantKey)
		}
		return nil, models.NewDataAccessError("lookup tenant", isTransientErr(err), err)
	}

	return &entry, nil
}
