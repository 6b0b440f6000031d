package rbac

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/authengine/pkg/scopes"
)

// Built-in role names.
const (
	RoleSuperAdmin    = "SUPER_ADMIN"
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleTenantOwner   = "TENANT_OWNER"
	RoleTenantAdmin   = "TENANT_ADMIN"
	RoleTenantManager = "TENANT_MANAGER"
	RoleTenantUser    = "TENANT_USER"
)

// Built-in permission names.
const (
	PermPlatformUsersView     = "platform.users.view"
	PermPlatformUsersManage   = "platform.users.manage"
	PermPlatformTenantsView   = "platform.tenants.view"
	PermPlatformTenantsManage = "platform.tenants.manage"
	PermPlatformRolesAssign   = "platform.roles.assign"
	PermPlatformAuditView     = "platform.audit.view"

	PermTenantView        = "tenant.view"
	PermTenantUpdate      = "tenant.update"
	PermTenantDelete      = "tenant.delete"
	PermTenantUsersView   = "tenant.users.view"
	PermTenantUsersManage = "tenant.users.manage"
	PermTenantRolesView   = "tenant.roles.view"
	PermTenantRolesAssign = "tenant.roles.assign"
)

// SuperAdminLevel is the level of the protected SUPER_ADMIN role.
const SuperAdminLevel = 100

// Catalog is the full set of permissions and roles seeded at startup.
// Role.Permissions entries only need Name; ids are assigned by the store.
type Catalog struct {
	Permissions []Permission
	Roles       []Role
}

// Validate checks that names are unique, scopes are known, every role
// permission exists in the catalog and SUPER_ADMIN is present exactly as
// expected.
func (c Catalog) Validate() error {
	known := make([]string, 0, len(c.Permissions))
	seen := make(map[string]bool, len(c.Permissions))
	for _, p := range c.Permissions {
		if p.Name == "" {
			return errors.Join(ErrInvalidCatalog, errors.New("permission name is empty"))
		}
		if seen[p.Name] {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate permission %q", p.Name))
		}
		seen[p.Name] = true
		known = append(known, p.Name)
	}

	roles := make(map[string]bool, len(c.Roles))
	for _, r := range c.Roles {
		if r.Name == "" {
			return errors.Join(ErrInvalidCatalog, errors.New("role name is empty"))
		}
		if roles[r.Name] {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate role %q", r.Name))
		}
		roles[r.Name] = true

		if r.Scope != ScopePlatform && r.Scope != ScopeTenant {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("role %q has unknown scope %q", r.Name, r.Scope))
		}
		if err := scopes.Validate(r.PermissionNames(), known); err != nil {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("role %q: %w", r.Name, err))
		}
		if r.IsProtected() && (r.Scope != ScopePlatform || r.Level != SuperAdminLevel) {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("role %q must be PLATFORM scoped with level %d", r.Name, SuperAdminLevel))
		}
	}

	if !roles[RoleSuperAdmin] {
		return errors.Join(ErrInvalidCatalog, fmt.Errorf("role %q is required", RoleSuperAdmin))
	}
	return nil
}

// DefaultCatalog returns the built-in permission catalog and role table.
func DefaultCatalog() Catalog {
	perms := []Permission{
		{Name: PermPlatformUsersView, Description: "View all users across the platform"},
		{Name: PermPlatformUsersManage, Description: "Manage all users across the platform"},
		{Name: PermPlatformTenantsView, Description: "View all tenants"},
		{Name: PermPlatformTenantsManage, Description: "Create and manage tenants"},
		{Name: PermPlatformRolesAssign, Description: "Assign platform roles"},
		{Name: PermPlatformAuditView, Description: "View the platform audit log"},
		{Name: PermTenantView, Description: "View tenant details"},
		{Name: PermTenantUpdate, Description: "Update tenant details"},
		{Name: PermTenantDelete, Description: "Delete tenant"},
		{Name: PermTenantUsersView, Description: "View tenant users"},
		{Name: PermTenantUsersManage, Description: "Manage tenant users"},
		{Name: PermTenantRolesView, Description: "View tenant roles"},
		{Name: PermTenantRolesAssign, Description: "Assign roles within tenant"},
	}

	return Catalog{
		Permissions: perms,
		Roles: []Role{
			{
				Name:        RoleSuperAdmin,
				Scope:       ScopePlatform,
				Level:       SuperAdminLevel,
				Description: "Full system access",
				Permissions: perms,
			},
			{
				Name:        RolePlatformAdmin,
				Scope:       ScopePlatform,
				Level:       80,
				Description: "Platform administration",
				Permissions: named(
					PermPlatformUsersView,
					PermPlatformTenantsView,
					PermPlatformTenantsManage,
					PermPlatformAuditView,
					PermTenantView,
					PermTenantUsersView,
				),
			},
			{
				Name:        RoleTenantOwner,
				Scope:       ScopeTenant,
				Level:       60,
				Description: "Tenant owner with full tenant access",
				Permissions: named(
					PermTenantView,
					PermTenantUpdate,
					PermTenantDelete,
					PermTenantUsersView,
					PermTenantUsersManage,
					PermTenantRolesView,
					PermTenantRolesAssign,
				),
			},
			{
				Name:        RoleTenantAdmin,
				Scope:       ScopeTenant,
				Level:       50,
				Description: "Tenant administrator",
				Permissions: named(
					PermTenantView,
					PermTenantUpdate,
					PermTenantUsersView,
					PermTenantUsersManage,
					PermTenantRolesView,
					PermTenantRolesAssign,
				),
			},
			{
				Name:        RoleTenantManager,
				Scope:       ScopeTenant,
				Level:       30,
				Description: "Tenant manager",
				Permissions: named(
					PermTenantView,
					PermTenantUsersView,
					PermTenantRolesView,
					PermTenantRolesAssign,
				),
			},
			{
				Name:        RoleTenantUser,
				Scope:       ScopeTenant,
				Level:       10,
				Description: "Regular tenant user",
				Permissions: named(PermTenantView),
			},
		},
	}
}

func named(names ...string) []Permission {
	perms := make([]Permission, len(names))
	for i, n := range names {
		perms[i] = Permission{Name: n}
	}
	return perms
}
