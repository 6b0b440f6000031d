package rbacstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/rbac"
)

const roleQuery = `
	select r.id, r.name, r.scope, r.level, r.description,
	       p.id, p.name, p.description
	from roles r
	left join role_permissions rp on rp.role_id = r.id
	left join permissions p on p.id = rp.permission_id
`

func (s *Store) GetRoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	roles, err := s.queryRoles(ctx, roleQuery+`where r.name = $1 order by rp.position`, name)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, rbac.NotFoundError(rbac.ErrRoleNotFound)
	}
	return &roles[0], nil
}

// ListRoles returns roles by level, highest first, then by name.
func (s *Store) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	return s.queryRoles(ctx, roleQuery+`order by r.level desc, r.name, rp.position`)
}

func (s *Store) queryRoles(ctx context.Context, query string, args ...any) ([]rbac.Role, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []rbac.Role{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			r        rbac.Role
			permID   uuid.NullUUID
			permName sql.NullString
			permDesc sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Scope, &r.Level, &r.Description, &permID, &permName, &permDesc); err != nil {
			return nil, err
		}

		i, ok := index[r.ID]
		if !ok {
			i = len(roles)
			index[r.ID] = i
			roles = append(roles, r)
		}
		if permID.Valid {
			roles[i].Permissions = append(roles[i].Permissions, rbac.Permission{
				ID:          permID.UUID,
				Name:        permName.String,
				Description: permDesc.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	rows, err := s.q.QueryContext(ctx, `
		select id, name, description from permissions order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []rbac.Permission{}
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// SeedCatalog upserts permissions and roles by name and rewrites each role's
// permission links, all in one transaction.
func (s *Store) SeedCatalog(ctx context.Context, catalog rbac.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}

	return s.WithTx(ctx, func(tx rbac.Store) error {
		q := tx.(*Store).q

		permIDs := make(map[string]uuid.UUID, len(catalog.Permissions))
		for _, p := range catalog.Permissions {
			var id uuid.UUID
			err := q.QueryRowContext(ctx, `
				insert into permissions (id, name, description)
				values ($1, $2, $3)
				on conflict (name) do update set description = excluded.description
				returning id
			`, newID(p.ID), p.Name, p.Description).Scan(&id)
			if err != nil {
				return err
			}
			permIDs[p.Name] = id
		}

		for _, r := range catalog.Roles {
			var roleID uuid.UUID
			err := q.QueryRowContext(ctx, `
				insert into roles (id, name, scope, level, description)
				values ($1, $2, $3, $4, $5)
				on conflict (name) do update
				set scope = excluded.scope, level = excluded.level, description = excluded.description
				returning id
			`, newID(r.ID), r.Name, r.Scope, r.Level, r.Description).Scan(&roleID)
			if err != nil {
				return err
			}

			if _, err := q.ExecContext(ctx, `delete from role_permissions where role_id = $1`, roleID); err != nil {
				return err
			}
			for pos, p := range r.Permissions {
				if _, err := q.ExecContext(ctx, `
					insert into role_permissions (role_id, permission_id, position)
					values ($1, $2, $3)
				`, roleID, permIDs[p.Name], pos); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
