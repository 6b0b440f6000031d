// Package rbac implements the multi-tenant authorization core: the permission
// resolver, the role hierarchy enforcer and the catalog that seeds both.
//
// Users carry an eager-loaded list of role assignments. Each assignment binds a
// role to a tenant. There are two kinds of tenant: exactly one PLATFORM tenant,
// created at bootstrap, and any number of CUSTOMER tenants. Roles are either
// PLATFORM scoped, which means they apply everywhere, or TENANT scoped, which
// means they apply only inside the tenant they were granted in.
//
// Key concepts:
//
//   - Permission: a dotted name from an immutable catalog (e.g. "tenant.roles.assign")
//   - Role: a named permission set with a scope and a numeric level
//   - Level: higher is more privileged; an actor can only grant or revoke roles
//     strictly below its own highest level in the target tenant
//   - SUPER_ADMIN: the single protected role that can never be granted or
//     revoked through the API
//
// Resolving permissions is a pure function over the user aggregate:
//
//	if rbac.HasPermission(user, rbac.PermTenantUsersManage, tenantID) {
//	    // allowed
//	}
//
// Mutations go through Service, which validates every rule inside a store
// transaction before writing and emits an audit event afterwards:
//
//	svc := rbac.NewService(store, rbac.WithAuditSink(sink), rbac.WithLogger(log))
//	if err := svc.AssignRole(ctx, actor, targetID, rbac.RoleTenantManager, tenantID); err != nil {
//	    switch {
//	    case errors.Is(err, rbac.ErrInsufficientLevel):
//	        // actor is not senior enough
//	    case errors.Is(err, rbac.ErrForbidden):
//	        // actor lacks the assign permission
//	    }
//	}
//
// Bootstrap seeds DefaultCatalog, the Platform tenant and the super admin
// account. It is idempotent and safe to run on every start.
package rbac
