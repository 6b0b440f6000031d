package rbacstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/pg"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// userAggregateQuery loads a user with every assignment, the assigned role,
// the role's permissions and the tenant in one round trip. The WHERE clause
// is appended by the caller.
const userAggregateQuery = `
	select u.id, u.email, u.first_name, u.last_name, u.avatar_url, u.password_hash,
	       u.email_verified, u.status, u.created_at, u.updated_at,
	       ur.created_at,
	       r.id, r.name, r.scope, r.level, r.description,
	       t.id, t.name, t.description, t.type, t.created_at,
	       p.id, p.name, p.description
	from users u
	left join user_roles ur on ur.user_id = u.id
	left join roles r on r.id = ur.role_id
	left join tenants t on t.id = ur.tenant_id
	left join role_permissions rp on rp.role_id = r.id
	left join permissions p on p.id = rp.permission_id
`

const userAggregateOrder = `
	order by ur.created_at, r.level desc, t.id, r.name, rp.position`

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*rbac.User, error) {
	return s.loadUser(ctx, userAggregateQuery+`where u.id = $1`+userAggregateOrder, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*rbac.User, error) {
	return s.loadUser(ctx, userAggregateQuery+`where lower(u.email) = lower($1)`+userAggregateOrder, email)
}

// ListUsers returns a page of users without their assignments.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]rbac.User, error) {
	var bound any
	if limit > 0 {
		bound = limit
	}
	rows, err := s.q.QueryContext(ctx, `
		select id, email, first_name, last_name, avatar_url, password_hash,
		       email_verified, status, created_at, updated_at
		from users
		order by created_at, id
		limit $1 offset $2
	`, bound, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []rbac.User{}
	for rows.Next() {
		var u rbac.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL, &u.PasswordHash,
			&u.EmailVerified, &u.Status, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListTenantUsers returns the members of tenantID. Filtering on ur.tenant_id
// keeps only the assignments made in that tenant.
func (s *Store) ListTenantUsers(ctx context.Context, tenantID uuid.UUID) ([]rbac.User, error) {
	users, err := s.loadUsers(ctx, userAggregateQuery+`where ur.tenant_id = $1
	order by u.created_at, u.id, ur.created_at, r.level desc, r.name, rp.position`, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]rbac.User, len(users))
	for i, u := range users {
		out[i] = *u
	}
	return out, nil
}

type assignmentRef struct {
	userID   uuid.UUID
	roleID   uuid.UUID
	tenantID uuid.UUID
}

func (s *Store) loadUser(ctx context.Context, query string, arg any) (*rbac.User, error) {
	users, err := s.loadUsers(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, rbac.NotFoundError(rbac.ErrUserNotFound)
	}
	return users[0], nil
}

// loadUsers folds aggregate rows into users, keeping the order in which each
// user first appears.
func (s *Store) loadUsers(ctx context.Context, query string, args ...any) ([]*rbac.User, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		users []*rbac.User
		byID  = make(map[uuid.UUID]*rbac.User)
		index = make(map[assignmentRef]int)
	)
	for rows.Next() {
		var (
			u          rbac.User
			assignedAt sql.NullTime
			roleID     uuid.NullUUID
			roleName   sql.NullString
			roleScope  sql.NullString
			roleLevel  sql.NullInt64
			roleDesc   sql.NullString
			tenantID   uuid.NullUUID
			tenantName sql.NullString
			tenantDesc sql.NullString
			tenantType sql.NullString
			tenantAt   sql.NullTime
			permID     uuid.NullUUID
			permName   sql.NullString
			permDesc   sql.NullString
		)
		if err := rows.Scan(
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL, &u.PasswordHash,
			&u.EmailVerified, &u.Status, &u.CreatedAt, &u.UpdatedAt,
			&assignedAt,
			&roleID, &roleName, &roleScope, &roleLevel, &roleDesc,
			&tenantID, &tenantName, &tenantDesc, &tenantType, &tenantAt,
			&permID, &permName, &permDesc,
		); err != nil {
			return nil, err
		}

		user, ok := byID[u.ID]
		if !ok {
			user = &u
			byID[u.ID] = user
			users = append(users, user)
		}
		if !roleID.Valid || !tenantID.Valid {
			continue
		}

		ref := assignmentRef{userID: user.ID, roleID: roleID.UUID, tenantID: tenantID.UUID}
		i, ok := index[ref]
		if !ok {
			i = len(user.Assignments)
			index[ref] = i
			user.Assignments = append(user.Assignments, rbac.RoleAssignment{
				UserID: user.ID,
				Role: rbac.Role{
					ID:          roleID.UUID,
					Name:        roleName.String,
					Scope:       rbac.Scope(roleScope.String),
					Level:       int(roleLevel.Int64),
					Description: roleDesc.String,
				},
				Tenant: rbac.Tenant{
					ID:          tenantID.UUID,
					Name:        tenantName.String,
					Description: tenantDesc.String,
					Type:        rbac.TenantType(tenantType.String),
					CreatedAt:   tenantAt.Time,
				},
				CreatedAt: assignedAt.Time,
			})
		}
		if permID.Valid {
			role := &user.Assignments[i].Role
			role.Permissions = append(role.Permissions, rbac.Permission{
				ID:          permID.UUID,
				Name:        permName.String,
				Description: permDesc.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *rbac.User) error {
	id := newID(user.ID)
	status := user.Status
	if status == "" {
		status = rbac.UserStatusPendingVerification
	}
	now := s.timestamp()

	_, err := s.q.ExecContext(ctx, `
		insert into users (id, email, first_name, last_name, avatar_url, password_hash,
		                   email_verified, status, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, id, strings.TrimSpace(user.Email), user.FirstName, user.LastName, user.AvatarURL,
		user.PasswordHash, user.EmailVerified, status, now)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return rbac.ErrAlreadyExists
		}
		return err
	}

	user.ID = id
	user.Status = status
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (s *Store) UpdateUserStatus(ctx context.Context, id uuid.UUID, status rbac.UserStatus) error {
	res, err := s.q.ExecContext(ctx, `
		update users set status = $2, updated_at = $3 where id = $1
	`, id, status, s.timestamp())
	if err != nil {
		return err
	}
	return requireRow(res, rbac.ErrUserNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return rbac.NotFoundError(notFound)
	}
	return nil
}
