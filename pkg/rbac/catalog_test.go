package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/rbac"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog := rbac.DefaultCatalog()
	require.NoError(t, catalog.Validate())

	levels := map[string]int{}
	for _, r := range catalog.Roles {
		levels[r.Name] = r.Level
	}
	assert.Equal(t, map[string]int{
		rbac.RoleSuperAdmin:    100,
		rbac.RolePlatformAdmin: 80,
		rbac.RoleTenantOwner:   60,
		rbac.RoleTenantAdmin:   50,
		rbac.RoleTenantManager: 30,
		rbac.RoleTenantUser:    10,
	}, levels)

	super := catalog.Roles[0]
	assert.True(t, super.IsProtected())
	assert.Len(t, super.Permissions, len(catalog.Permissions))
	assert.True(t, super.Grants(rbac.PermPlatformRolesAssign))

	for _, r := range catalog.Roles[1:] {
		assert.False(t, r.Grants(rbac.PermPlatformRolesAssign), "%s must not assign platform roles", r.Name)
	}
}

func TestCatalog_Validate(t *testing.T) {
	t.Parallel()

	super := rbac.Role{Name: rbac.RoleSuperAdmin, Scope: rbac.ScopePlatform, Level: rbac.SuperAdminLevel}
	perms := []rbac.Permission{{Name: "a.read"}}

	tests := []struct {
		name    string
		catalog rbac.Catalog
	}{
		{
			name:    "missing super admin",
			catalog: rbac.Catalog{Permissions: perms},
		},
		{
			name: "duplicate permission",
			catalog: rbac.Catalog{
				Permissions: []rbac.Permission{{Name: "a.read"}, {Name: "a.read"}},
				Roles:       []rbac.Role{super},
			},
		},
		{
			name: "empty permission name",
			catalog: rbac.Catalog{
				Permissions: []rbac.Permission{{Name: ""}},
				Roles:       []rbac.Role{super},
			},
		},
		{
			name: "duplicate role",
			catalog: rbac.Catalog{
				Permissions: perms,
				Roles:       []rbac.Role{super, super},
			},
		},
		{
			name: "unknown scope",
			catalog: rbac.Catalog{
				Permissions: perms,
				Roles:       []rbac.Role{super, {Name: "X", Scope: "GLOBAL"}},
			},
		},
		{
			name: "unknown permission reference",
			catalog: rbac.Catalog{
				Permissions: perms,
				Roles: []rbac.Role{super, {
					Name:        "X",
					Scope:       rbac.ScopeTenant,
					Permissions: []rbac.Permission{{Name: "b.write"}},
				}},
			},
		},
		{
			name: "super admin with wrong scope",
			catalog: rbac.Catalog{
				Permissions: perms,
				Roles:       []rbac.Role{{Name: rbac.RoleSuperAdmin, Scope: rbac.ScopeTenant, Level: rbac.SuperAdminLevel}},
			},
		},
		{
			name: "super admin with wrong level",
			catalog: rbac.Catalog{
				Permissions: perms,
				Roles:       []rbac.Role{{Name: rbac.RoleSuperAdmin, Scope: rbac.ScopePlatform, Level: 90}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.catalog.Validate(), rbac.ErrInvalidCatalog)
		})
	}
}
