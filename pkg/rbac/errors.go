package rbac

import "errors"

// Domain errors for RBAC operations.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	// It is always joined with one of the more specific errors below.
	ErrNotFound       = errors.New("rbac.not_found")
	ErrRoleNotFound   = errors.New("rbac.role_not_found")
	ErrTenantNotFound = errors.New("rbac.tenant_not_found")
	ErrUserNotFound   = errors.New("rbac.user_not_found")

	// ErrProtectedRole is returned on any attempt to grant or revoke SUPER_ADMIN.
	ErrProtectedRole = errors.New("rbac.protected_role")

	// ErrScopeMismatch is returned when a PLATFORM role targets a customer tenant
	// or a TENANT role targets the platform tenant.
	ErrScopeMismatch = errors.New("rbac.scope_mismatch")

	// ErrForbidden is returned when the actor lacks the required permission.
	ErrForbidden = errors.New("rbac.forbidden")

	// ErrNoContextRole is joined with ErrForbidden when the actor holds no role
	// that applies to the target tenant.
	ErrNoContextRole = errors.New("rbac.no_context_role")

	// ErrInsufficientLevel is returned when the target role is not strictly
	// below the actor's highest level.
	ErrInsufficientLevel = errors.New("rbac.insufficient_level")

	ErrAlreadyExists  = errors.New("rbac.already_exists")
	ErrInvalidStatus  = errors.New("rbac.invalid_status")
	ErrInvalidTenant  = errors.New("rbac.invalid_tenant")
	ErrInvalidCatalog = errors.New("rbac.invalid_catalog")
)

// NotFoundError returns ErrNotFound joined with the given specific error.
// Store implementations outside this package use it to report missing rows.
func NotFoundError(specific error) error {
	return errors.Join(ErrNotFound, specific)
}
