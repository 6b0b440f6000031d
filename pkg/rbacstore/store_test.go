package rbacstore_test

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/rbacstore"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*rbacstore.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return rbacstore.New(db, rbacstore.WithClock(func() time.Time { return fixedNow })), mock
}

var aggregateColumns = []string{
	"id", "email", "first_name", "last_name", "avatar_url", "password_hash",
	"email_verified", "status", "created_at", "updated_at",
	"ur_created_at",
	"r_id", "r_name", "r_scope", "r_level", "r_description",
	"t_id", "t_name", "t_description", "t_type", "t_created_at",
	"p_id", "p_name", "p_description",
}

// aggregateRow builds one row of the user aggregate query. A nil role stands
// for a user without assignments; a nil perm for a role without permissions.
func aggregateRow(userID uuid.UUID, role *rbac.Role, tenant *rbac.Tenant, perm *rbac.Permission) []driver.Value {
	vals := []driver.Value{
		userID.String(), "jane@example.com", "Jane", "Doe", "", "hash",
		true, "active", fixedNow, fixedNow,
	}
	if role == nil {
		return append(vals, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	}
	vals = append(vals,
		fixedNow,
		role.ID.String(), role.Name, string(role.Scope), int64(role.Level), role.Description,
		tenant.ID.String(), tenant.Name, tenant.Description, string(tenant.Type), fixedNow,
	)
	if perm == nil {
		return append(vals, nil, nil, nil)
	}
	return append(vals, perm.ID.String(), perm.Name, perm.Description)
}

var (
	roleColumns = []string{"id", "name", "scope", "level", "description", "p_id", "p_name", "p_description"}
	tenantCols  = []string{"id", "name", "description", "type", "created_at"}
)

func tenantRow(t rbac.Tenant) []driver.Value {
	return []driver.Value{t.ID.String(), t.Name, t.Description, string(t.Type), fixedNow}
}

func TestNew_NilDBPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { rbacstore.New(nil) })
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := rbacstore.Migrations.ReadDir(rbacstore.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := rbacstore.Migrations.ReadFile(rbacstore.MigrationsDir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "users_email_lower_key")
	assert.Contains(t, string(data), "user_roles_tenant_id_fkey")
}
