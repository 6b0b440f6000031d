package rbac

import (
	"context"

	"github.com/google/uuid"
)

// Store is the entity store behind the RBAC core.
//
// Lookups that miss return ErrNotFound joined with ErrUserNotFound,
// ErrRoleNotFound or ErrTenantNotFound. GetUser and GetUserByEmail return the
// full aggregate: assignments with their role, role permissions and tenant.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateUserStatus(ctx context.Context, id uuid.UUID, status UserStatus) error
	// ListUsers returns a page of users ordered by creation time. Assignments
	// are not loaded. A non-positive limit returns every user after offset.
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	// ListTenantUsers returns the users holding a role in tenantID, each with
	// only the assignments made in that tenant.
	ListTenantUsers(ctx context.Context, tenantID uuid.UUID) ([]User, error)

	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)

	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetPlatformTenant(ctx context.Context) (*Tenant, error)
	CreateTenant(ctx context.Context, tenant *Tenant) error
	// EnsurePlatformTenant returns the platform tenant, creating it if missing.
	EnsurePlatformTenant(ctx context.Context, name, description string) (*Tenant, error)

	// UpsertRoleAssignment is idempotent: an existing triple is left untouched.
	UpsertRoleAssignment(ctx context.Context, userID, roleID, tenantID uuid.UUID) error
	// DeleteRoleAssignment reports whether a row was removed.
	DeleteRoleAssignment(ctx context.Context, userID, roleID, tenantID uuid.UUID) (bool, error)

	// SeedCatalog upserts permissions and roles by name and replaces each
	// role's permission links. It runs in a single transaction.
	SeedCatalog(ctx context.Context, catalog Catalog) error

	// WithTx runs fn inside a transaction. The Store passed to fn is bound to
	// that transaction; fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
