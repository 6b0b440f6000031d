package rbacstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/pg"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// UpsertRoleAssignment inserts the triple unless it exists. A missing user,
// role or tenant is reported through the violated foreign key.
func (s *Store) UpsertRoleAssignment(ctx context.Context, userID, roleID, tenantID uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `
		insert into user_roles (user_id, role_id, tenant_id, created_at)
		values ($1, $2, $3, $4)
		on conflict do nothing
	`, userID, roleID, tenantID, s.timestamp())
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return foreignKeyError(pg.ConstraintName(err))
		}
		return err
	}
	return nil
}

func (s *Store) DeleteRoleAssignment(ctx context.Context, userID, roleID, tenantID uuid.UUID) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		delete from user_roles where user_id = $1 and role_id = $2 and tenant_id = $3
	`, userID, roleID, tenantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func foreignKeyError(constraint string) error {
	switch constraint {
	case "user_roles_role_id_fkey":
		return rbac.NotFoundError(rbac.ErrRoleNotFound)
	case "user_roles_tenant_id_fkey":
		return rbac.NotFoundError(rbac.ErrTenantNotFound)
	default:
		return rbac.NotFoundError(rbac.ErrUserNotFound)
	}
}
