package rbac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/logger"
)

// Audit actions emitted by Service.
const (
	ActionRoleAssigned      = "ROLE_ASSIGNED"
	ActionRoleRemoved       = "ROLE_REMOVED"
	ActionTenantCreated     = "TENANT_CREATED"
	ActionUserStatusChanged = "USER_STATUS_CHANGED"

	resourceUserRole = "UserRole"
	resourceTenant   = "Tenant"
	resourceUser     = "User"
)

// Service enforces the role hierarchy on every mutation of role assignments,
// tenants and account status.
type Service struct {
	store  Store
	audit  audit.Sink
	logger *slog.Logger
}

// NewService creates a Service over store.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("rbac: store cannot be nil")
	}

	s := &Service{
		store:  store,
		audit:  audit.NopSink{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignRole grants roleName to the target user inside tenantID on behalf of actor.
// Assigning a role the user already holds succeeds without changes.
func (s *Service) AssignRole(ctx context.Context, actor *User, targetUserID uuid.UUID, roleName string, tenantID uuid.UUID) error {
	var role *Role
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		if role, err = s.authorizeRoleChange(ctx, tx, actor, roleName, tenantID); err != nil {
			return err
		}
		return tx.UpsertRoleAssignment(ctx, targetUserID, role.ID, tenantID)
	})
	if err != nil {
		s.logDenied(ctx, ActionRoleAssigned, actor, targetUserID, roleName, tenantID, err)
		return err
	}

	s.logger.InfoContext(ctx, "role assigned",
		logger.ActorID(actorID(actor)),
		logger.UserID(targetUserID.String()),
		logger.Role(role.Name),
		logger.TenantID(tenantID.String()),
	)
	s.audit.Log(ctx, audit.Event{
		ActorID:      actorID(actor),
		TargetUserID: targetUserID.String(),
		TenantID:     tenantID.String(),
		Action:       ActionRoleAssigned,
		Resource:     resourceUserRole,
		Metadata: map[string]any{
			"role_name":  role.Name,
			"role_level": role.Level,
		},
	})
	return nil
}

// RemoveRole revokes roleName from the target user inside tenantID on behalf
// of actor. It reports whether an assignment was actually removed; removing a
// role the user does not hold is not an error.
func (s *Service) RemoveRole(ctx context.Context, actor *User, targetUserID uuid.UUID, roleName string, tenantID uuid.UUID) (bool, error) {
	var (
		role    *Role
		removed bool
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		if role, err = s.authorizeRoleChange(ctx, tx, actor, roleName, tenantID); err != nil {
			return err
		}
		removed, err = tx.DeleteRoleAssignment(ctx, targetUserID, role.ID, tenantID)
		return err
	})
	if err != nil {
		s.logDenied(ctx, ActionRoleRemoved, actor, targetUserID, roleName, tenantID, err)
		return false, err
	}
	if !removed {
		return false, nil
	}

	s.logger.InfoContext(ctx, "role removed",
		logger.ActorID(actorID(actor)),
		logger.UserID(targetUserID.String()),
		logger.Role(role.Name),
		logger.TenantID(tenantID.String()),
	)
	s.audit.Log(ctx, audit.Event{
		ActorID:      actorID(actor),
		TargetUserID: targetUserID.String(),
		TenantID:     tenantID.String(),
		Action:       ActionRoleRemoved,
		Resource:     resourceUserRole,
		Metadata:     map[string]any{"role_name": role.Name},
	})
	return true, nil
}

// authorizeRoleChange runs every check shared by assign and remove, in order,
// and returns the resolved role. Nothing is written.
func (s *Service) authorizeRoleChange(ctx context.Context, tx Store, actor *User, roleName string, tenantID uuid.UUID) (*Role, error) {
	role, err := tx.GetRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if role.IsProtected() {
		return nil, ErrProtectedRole
	}

	tenant, err := tx.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if role.Scope == ScopePlatform && !tenant.IsPlatform() {
		return nil, ErrScopeMismatch
	}
	if role.Scope == ScopeTenant && tenant.IsPlatform() {
		return nil, ErrScopeMismatch
	}

	required := PermTenantRolesAssign
	if role.Scope == ScopePlatform {
		required = PermPlatformRolesAssign
	}
	if !HasPermission(actor, required, tenantID) {
		return nil, ErrForbidden
	}

	actorLevel, ok := MaxLevel(actor, tenantID)
	if !ok {
		return nil, errors.Join(ErrForbidden, ErrNoContextRole)
	}
	if role.Level >= actorLevel {
		return nil, ErrInsufficientLevel
	}

	return role, nil
}

// CreateTenant creates a customer tenant. The actor needs
// platform.tenants.manage at platform level.
func (s *Service) CreateTenant(ctx context.Context, actor *User, name, description string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Join(ErrInvalidTenant, errors.New("name is required"))
	}
	if !HasPermission(actor, PermPlatformTenantsManage, uuid.Nil) {
		return nil, ErrForbidden
	}

	tenant := &Tenant{
		Name:        name,
		Description: strings.TrimSpace(description),
		Type:        TenantTypeCustomer,
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tenant created",
		logger.ActorID(actorID(actor)),
		logger.TenantID(tenant.ID.String()),
	)
	s.audit.Log(ctx, audit.Event{
		ActorID:    actorID(actor),
		TenantID:   tenant.ID.String(),
		Action:     ActionTenantCreated,
		Resource:   resourceTenant,
		ResourceID: tenant.ID.String(),
		Metadata:   map[string]any{"name": tenant.Name},
	})
	return tenant, nil
}

// SetUserStatus changes the target's account status. The actor needs
// platform.users.manage at platform level. Holders of SUPER_ADMIN cannot be
// changed through this call.
func (s *Service) SetUserStatus(ctx context.Context, actor *User, targetUserID uuid.UUID, status UserStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if !HasPermission(actor, PermPlatformUsersManage, uuid.Nil) {
		return ErrForbidden
	}

	var previous UserStatus
	err := s.store.WithTx(ctx, func(tx Store) error {
		target, err := tx.GetUser(ctx, targetUserID)
		if err != nil {
			return err
		}
		if target.HasRole(RoleSuperAdmin) {
			return ErrProtectedRole
		}
		previous = target.Status
		return tx.UpdateUserStatus(ctx, targetUserID, status)
	})
	if err != nil {
		return err
	}
	if previous == status {
		return nil
	}

	s.logger.InfoContext(ctx, "user status changed",
		logger.ActorID(actorID(actor)),
		logger.UserID(targetUserID.String()),
		slog.String("status", string(status)),
	)
	s.audit.Log(ctx, audit.Event{
		ActorID:      actorID(actor),
		TargetUserID: targetUserID.String(),
		Action:       ActionUserStatusChanged,
		Resource:     resourceUser,
		ResourceID:   targetUserID.String(),
		Metadata: map[string]any{
			"old_status": string(previous),
			"new_status": string(status),
		},
	})
	return nil
}

// ListTenantRoles returns the TENANT scoped roles, most privileged first.
func (s *Service) ListTenantRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(roles, func(r Role) bool {
		return r.Scope != ScopeTenant
	}), nil
}

// ListUsers returns a page of every account. The actor needs
// platform.users.view in the platform tenant.
func (s *Service) ListUsers(ctx context.Context, actor *User, limit, offset int) ([]User, error) {
	if !HasPermission(actor, PermPlatformUsersView, uuid.Nil) {
		return nil, ErrForbidden
	}
	return s.store.ListUsers(ctx, limit, offset)
}

// ListTenantUsers returns the members of tenantID with their roles there.
// The actor needs tenant.users.view in that tenant.
func (s *Service) ListTenantUsers(ctx context.Context, actor *User, tenantID uuid.UUID) ([]User, error) {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if !HasPermission(actor, PermTenantUsersView, tenantID) {
		return nil, ErrForbidden
	}
	return s.store.ListTenantUsers(ctx, tenantID)
}

// AuthorizeAuditRead checks that actor may read audit events. With uuid.Nil
// it gates the platform-wide log on platform.audit.view; with a tenant it
// requires tenant.users.manage there.
func (s *Service) AuthorizeAuditRead(ctx context.Context, actor *User, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		if !HasPermission(actor, PermPlatformAuditView, uuid.Nil) {
			return ErrForbidden
		}
		return nil
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return err
	}
	if !HasPermission(actor, PermTenantUsersManage, tenantID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) logDenied(ctx context.Context, action string, actor *User, target uuid.UUID, roleName string, tenantID uuid.UUID, err error) {
	s.logger.DebugContext(ctx, "role change rejected",
		slog.String("action", action),
		logger.ActorID(actorID(actor)),
		logger.UserID(target.String()),
		logger.Role(roleName),
		logger.TenantID(tenantID.String()),
		logger.Error(err),
	)
}

func actorID(actor *User) string {
	if actor == nil {
		return ""
	}
	return actor.ID.String()
}
