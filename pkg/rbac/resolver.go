package rbac

import (
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/scopes"
)

// HasPermission reports whether user holds permission in the context of tenantID.
//
// With a tenant, an assignment counts when it was made in that tenant or when
// its role is PLATFORM scoped. With uuid.Nil only assignments made in the
// platform tenant count. A nil user, an empty permission or a user without
// assignments always yields false.
func HasPermission(user *User, permission string, tenantID uuid.UUID) bool {
	if user == nil || permission == "" {
		return false
	}

	for _, a := range user.Assignments {
		if !applies(a, tenantID) {
			continue
		}
		if a.Role.Grants(permission) {
			return true
		}
	}
	return false
}

func applies(a RoleAssignment, tenantID uuid.UUID) bool {
	if tenantID == uuid.Nil {
		return a.Tenant.IsPlatform()
	}
	return a.Tenant.ID == tenantID || a.Role.Scope == ScopePlatform
}

// Permissions returns the sorted, deduplicated permission names the user holds.
//
// With uuid.Nil it is the union over every assignment. With a tenant only the
// assignments made in that tenant are considered. This is the view exposed by
// introspection, where the caller asks "what can this user do in tenant X".
func Permissions(user *User, tenantID uuid.UUID) []string {
	if user == nil {
		return []string{}
	}

	var names []string
	for _, a := range user.Assignments {
		if tenantID != uuid.Nil && a.Tenant.ID != tenantID {
			continue
		}
		names = append(names, a.Role.PermissionNames()...)
	}

	normalized := scopes.Normalize(names)
	if normalized == nil {
		return []string{}
	}
	return normalized
}

// TenantIDs returns the distinct tenants the user has assignments in,
// in first-seen order.
func TenantIDs(user *User) []uuid.UUID {
	ids := []uuid.UUID{}
	if user == nil {
		return ids
	}
	for _, a := range user.Assignments {
		if !slices.Contains(ids, a.Tenant.ID) {
			ids = append(ids, a.Tenant.ID)
		}
	}
	return ids
}

// Tenants returns the distinct tenants the user has assignments in, in
// first-seen order.
func Tenants(user *User) []Tenant {
	tenants := []Tenant{}
	if user == nil {
		return tenants
	}
	for _, a := range user.Assignments {
		if !slices.ContainsFunc(tenants, func(t Tenant) bool { return t.ID == a.Tenant.ID }) {
			tenants = append(tenants, a.Tenant)
		}
	}
	return tenants
}

// MaxLevel returns the highest role level the user holds in tenantID,
// counting PLATFORM scoped roles from any tenant. The boolean is false when
// no assignment applies.
func MaxLevel(user *User, tenantID uuid.UUID) (int, bool) {
	if user == nil {
		return 0, false
	}

	level, found := 0, false
	for _, a := range user.Assignments {
		if a.Tenant.ID != tenantID && a.Role.Scope != ScopePlatform {
			continue
		}
		if !found || a.Role.Level > level {
			level, found = a.Role.Level, true
		}
	}
	return level, found
}
