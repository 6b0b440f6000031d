package rbac

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserStatusActive              UserStatus = "active"
	UserStatusInactive            UserStatus = "inactive"
	UserStatusSuspended           UserStatus = "suspended"
	UserStatusPendingVerification UserStatus = "pending_verification"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusPendingVerification:
		return true
	}
	return false
}

// Scope tells where a role applies.
type Scope string

const (
	ScopePlatform Scope = "PLATFORM"
	ScopeTenant   Scope = "TENANT"
)

// TenantType distinguishes the single platform tenant from customer tenants.
type TenantType string

const (
	TenantTypePlatform TenantType = "PLATFORM"
	TenantTypeCustomer TenantType = "CUSTOMER"
)

// Permission is an entry of the immutable permission catalog.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// Role is a named permission set. Higher Level means more privileged.
type Role struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Scope       Scope        `json:"scope"`
	Level       int          `json:"level"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Grants reports whether the role carries the named permission.
func (r Role) Grants(permission string) bool {
	return slices.ContainsFunc(r.Permissions, func(p Permission) bool {
		return p.Name == permission
	})
}

// PermissionNames returns the names of the role's permissions in catalog order.
func (r Role) PermissionNames() []string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return names
}

// IsProtected reports whether the role is SUPER_ADMIN.
func (r Role) IsProtected() bool {
	return r.Name == RoleSuperAdmin
}

type Tenant struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        TenantType `json:"type"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsPlatform reports whether t is the platform tenant.
func (t Tenant) IsPlatform() bool {
	return t.Type == TenantTypePlatform
}

// RoleAssignment grants Role to a user inside Tenant.
// The (user, role, tenant) triple is unique.
type RoleAssignment struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	Tenant    Tenant    `json:"tenant"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the eager-loaded user aggregate: the account plus every role
// assignment with its role, the role's permissions and the tenant.
type User struct {
	ID            uuid.UUID        `json:"id"`
	Email         string           `json:"email"`
	FirstName     string           `json:"first_name,omitempty"`
	LastName      string           `json:"last_name,omitempty"`
	AvatarURL     string           `json:"avatar_url,omitempty"`
	PasswordHash  string           `json:"-"`
	EmailVerified bool             `json:"email_verified"`
	Status        UserStatus       `json:"status"`
	Assignments   []RoleAssignment `json:"assignments,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// HasRole reports whether the user holds the named role in any tenant.
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	return slices.ContainsFunc(u.Assignments, func(a RoleAssignment) bool {
		return a.Role.Name == name
	})
}
