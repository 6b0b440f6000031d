package rbacstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/pg"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

const tenantColumns = `id, name, description, type, created_at`

func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*rbac.Tenant, error) {
	return s.scanTenant(s.q.QueryRowContext(ctx, `
		select `+tenantColumns+` from tenants where id = $1
	`, id))
}

func (s *Store) GetPlatformTenant(ctx context.Context) (*rbac.Tenant, error) {
	return s.scanTenant(s.q.QueryRowContext(ctx, `
		select `+tenantColumns+` from tenants where type = 'PLATFORM' limit 1
	`))
}

func (s *Store) scanTenant(row *sql.Row) (*rbac.Tenant, error) {
	var t rbac.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbac.NotFoundError(rbac.ErrTenantNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTenant(ctx context.Context, tenant *rbac.Tenant) error {
	id := newID(tenant.ID)
	now := s.timestamp()

	_, err := s.q.ExecContext(ctx, `
		insert into tenants (`+tenantColumns+`) values ($1, $2, $3, $4, $5)
	`, id, tenant.Name, tenant.Description, tenant.Type, now)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return rbac.ErrAlreadyExists
		}
		return err
	}

	tenant.ID = id
	tenant.CreatedAt = now
	return nil
}

// EnsurePlatformTenant inserts the platform tenant unless one exists and
// returns whichever row is stored. Concurrent callers converge on one row
// through the partial unique index on type.
func (s *Store) EnsurePlatformTenant(ctx context.Context, name, description string) (*rbac.Tenant, error) {
	_, err := s.q.ExecContext(ctx, `
		insert into tenants (`+tenantColumns+`) values ($1, $2, $3, 'PLATFORM', $4)
		on conflict do nothing
	`, uuid.New(), name, description, s.timestamp())
	if err != nil {
		return nil, err
	}
	return s.GetPlatformTenant(ctx)
}
