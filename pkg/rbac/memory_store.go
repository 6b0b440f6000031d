package rbac

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type assignmentKey struct {
	userID   uuid.UUID
	roleID   uuid.UUID
	tenantID uuid.UUID
}

type memoryData struct {
	users       map[uuid.UUID]User
	emails      map[string]uuid.UUID
	roles       map[uuid.UUID]Role
	roleNames   map[string]uuid.UUID
	permissions map[string]Permission
	tenants     map[uuid.UUID]Tenant
	assignments map[assignmentKey]time.Time
}

func (d *memoryData) clone() *memoryData {
	roles := make(map[uuid.UUID]Role, len(d.roles))
	for id, r := range d.roles {
		r.Permissions = slices.Clone(r.Permissions)
		roles[id] = r
	}
	return &memoryData{
		users:       maps.Clone(d.users),
		emails:      maps.Clone(d.emails),
		roles:       roles,
		roleNames:   maps.Clone(d.roleNames),
		permissions: maps.Clone(d.permissions),
		tenants:     maps.Clone(d.tenants),
		assignments: maps.Clone(d.assignments),
	}
}

// MemoryStore is an in-process Store. It is safe for concurrent use and is
// intended for tests and single-node development setups.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryData
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			users:       make(map[uuid.UUID]User),
			emails:      make(map[string]uuid.UUID),
			roles:       make(map[uuid.UUID]Role),
			roleNames:   make(map[string]uuid.UUID),
			permissions: make(map[string]Permission),
			tenants:     make(map[uuid.UUID]Tenant),
			assignments: make(map[assignmentKey]time.Time),
		},
		now: time.Now,
	}
}

func (s *MemoryStore) read() *memoryTx {
	return &memoryTx{data: s.data, now: s.now}
}

// GetUser returns the user aggregate with its role assignments.
func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetUser(ctx, id)
}

// GetUserByEmail looks the user up by case-insensitive email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetUserByEmail(ctx, email)
}

// CreateUser stores user, assigning an id and timestamps.
func (s *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	return s.WithTx(ctx, func(tx Store) error { return tx.CreateUser(ctx, user) })
}

// UpdateUserStatus sets the account status.
func (s *MemoryStore) UpdateUserStatus(ctx context.Context, id uuid.UUID, status UserStatus) error {
	return s.WithTx(ctx, func(tx Store) error { return tx.UpdateUserStatus(ctx, id, status) })
}

// ListUsers returns a page of users without assignments.
func (s *MemoryStore) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListUsers(ctx, limit, offset)
}

// ListTenantUsers returns the members of tenantID.
func (s *MemoryStore) ListTenantUsers(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListTenantUsers(ctx, tenantID)
}

// GetRoleByName returns the role with its permissions.
func (s *MemoryStore) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetRoleByName(ctx, name)
}

// ListRoles returns every role, highest level first.
func (s *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListRoles(ctx)
}

// ListPermissions returns the catalog sorted by name.
func (s *MemoryStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListPermissions(ctx)
}

// GetTenant returns the tenant by id.
func (s *MemoryStore) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetTenant(ctx, id)
}

// GetPlatformTenant returns the single PLATFORM tenant.
func (s *MemoryStore) GetPlatformTenant(ctx context.Context) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetPlatformTenant(ctx)
}

// CreateTenant stores tenant. A second platform tenant is rejected.
func (s *MemoryStore) CreateTenant(ctx context.Context, tenant *Tenant) error {
	return s.WithTx(ctx, func(tx Store) error { return tx.CreateTenant(ctx, tenant) })
}

// EnsurePlatformTenant returns the platform tenant, creating it if missing.
func (s *MemoryStore) EnsurePlatformTenant(ctx context.Context, name, description string) (*Tenant, error) {
	var t *Tenant
	err := s.WithTx(ctx, func(tx Store) error {
		var err error
		t, err = tx.EnsurePlatformTenant(ctx, name, description)
		return err
	})
	return t, err
}

// UpsertRoleAssignment adds the assignment unless it already exists.
func (s *MemoryStore) UpsertRoleAssignment(ctx context.Context, userID, roleID, tenantID uuid.UUID) error {
	return s.WithTx(ctx, func(tx Store) error { return tx.UpsertRoleAssignment(ctx, userID, roleID, tenantID) })
}

// DeleteRoleAssignment reports whether an assignment was removed.
func (s *MemoryStore) DeleteRoleAssignment(ctx context.Context, userID, roleID, tenantID uuid.UUID) (bool, error) {
	var deleted bool
	err := s.WithTx(ctx, func(tx Store) error {
		var err error
		deleted, err = tx.DeleteRoleAssignment(ctx, userID, roleID, tenantID)
		return err
	})
	return deleted, err
}

// SeedCatalog upserts the catalog atomically.
func (s *MemoryStore) SeedCatalog(ctx context.Context, catalog Catalog) error {
	return s.WithTx(ctx, func(tx Store) error { return tx.SeedCatalog(ctx, catalog) })
}

// WithTx serializes writers. fn works on a copy of the data which replaces
// the live data only when fn succeeds.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&memoryTx{data: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// memoryTx operates on memoryData without locking. The caller holds the lock.
type memoryTx struct {
	data *memoryData
	now  func() time.Time
}

func (t *memoryTx) WithTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := t.data.users[id]
	if !ok {
		return nil, NotFoundError(ErrUserNotFound)
	}
	return t.aggregate(u), nil
}

func (t *memoryTx) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	id, ok := t.data.emails[strings.ToLower(email)]
	if !ok {
		return nil, NotFoundError(ErrUserNotFound)
	}
	return t.GetUser(ctx, id)
}

func (t *memoryTx) aggregate(u User) *User {
	var assignments []RoleAssignment
	for key, createdAt := range t.data.assignments {
		if key.userID != u.ID {
			continue
		}
		role := t.data.roles[key.roleID]
		role.Permissions = slices.Clone(role.Permissions)
		assignments = append(assignments, RoleAssignment{
			UserID:    u.ID,
			Role:      role,
			Tenant:    t.data.tenants[key.tenantID],
			CreatedAt: createdAt,
		})
	}
	slices.SortFunc(assignments, func(a, b RoleAssignment) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(b.Role.Level, a.Role.Level),
			strings.Compare(a.Tenant.ID.String(), b.Tenant.ID.String()),
		)
	})
	u.Assignments = assignments
	return &u
}

func (t *memoryTx) CreateUser(_ context.Context, user *User) error {
	email := strings.ToLower(user.Email)
	if _, exists := t.data.emails[email]; exists {
		return ErrAlreadyExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, exists := t.data.users[user.ID]; exists {
		return ErrAlreadyExists
	}
	if user.Status == "" {
		user.Status = UserStatusPendingVerification
	}
	now := t.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	stored.Assignments = nil
	t.data.users[user.ID] = stored
	t.data.emails[email] = user.ID
	return nil
}

func (t *memoryTx) UpdateUserStatus(_ context.Context, id uuid.UUID, status UserStatus) error {
	u, ok := t.data.users[id]
	if !ok {
		return NotFoundError(ErrUserNotFound)
	}
	u.Status = status
	u.UpdatedAt = t.now().UTC()
	t.data.users[id] = u
	return nil
}

func (t *memoryTx) ListUsers(_ context.Context, limit, offset int) ([]User, error) {
	users := make([]User, 0, len(t.data.users))
	for _, u := range t.data.users {
		users = append(users, u)
	}
	sortUsers(users)

	offset = min(max(offset, 0), len(users))
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (t *memoryTx) ListTenantUsers(_ context.Context, tenantID uuid.UUID) ([]User, error) {
	members := make(map[uuid.UUID]bool)
	for key := range t.data.assignments {
		if key.tenantID == tenantID {
			members[key.userID] = true
		}
	}

	users := make([]User, 0, len(members))
	for id := range members {
		u := t.aggregate(t.data.users[id])
		u.Assignments = slices.DeleteFunc(u.Assignments, func(a RoleAssignment) bool {
			return a.Tenant.ID != tenantID
		})
		users = append(users, *u)
	}
	sortUsers(users)
	return users, nil
}

func sortUsers(users []User) {
	slices.SortFunc(users, func(a, b User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
}

func (t *memoryTx) GetRoleByName(_ context.Context, name string) (*Role, error) {
	id, ok := t.data.roleNames[name]
	if !ok {
		return nil, NotFoundError(ErrRoleNotFound)
	}
	role := t.data.roles[id]
	role.Permissions = slices.Clone(role.Permissions)
	return &role, nil
}

func (t *memoryTx) ListRoles(_ context.Context) ([]Role, error) {
	roles := make([]Role, 0, len(t.data.roles))
	for _, r := range t.data.roles {
		r.Permissions = slices.Clone(r.Permissions)
		roles = append(roles, r)
	}
	slices.SortFunc(roles, func(a, b Role) int {
		return cmp.Or(cmp.Compare(b.Level, a.Level), strings.Compare(a.Name, b.Name))
	})
	return roles, nil
}

func (t *memoryTx) ListPermissions(_ context.Context) ([]Permission, error) {
	perms := slices.Collect(maps.Values(t.data.permissions))
	slices.SortFunc(perms, func(a, b Permission) int { return strings.Compare(a.Name, b.Name) })
	return perms, nil
}

func (t *memoryTx) GetTenant(_ context.Context, id uuid.UUID) (*Tenant, error) {
	tenant, ok := t.data.tenants[id]
	if !ok {
		return nil, NotFoundError(ErrTenantNotFound)
	}
	return &tenant, nil
}

func (t *memoryTx) GetPlatformTenant(_ context.Context) (*Tenant, error) {
	for _, tenant := range t.data.tenants {
		if tenant.IsPlatform() {
			return &tenant, nil
		}
	}
	return nil, NotFoundError(ErrTenantNotFound)
}

func (t *memoryTx) CreateTenant(ctx context.Context, tenant *Tenant) error {
	if tenant.Type == TenantTypePlatform {
		if _, err := t.GetPlatformTenant(ctx); err == nil {
			return ErrAlreadyExists
		}
	}
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if _, exists := t.data.tenants[tenant.ID]; exists {
		return ErrAlreadyExists
	}
	tenant.CreatedAt = t.now().UTC()
	t.data.tenants[tenant.ID] = *tenant
	return nil
}

func (t *memoryTx) EnsurePlatformTenant(ctx context.Context, name, description string) (*Tenant, error) {
	if tenant, err := t.GetPlatformTenant(ctx); err == nil {
		return tenant, nil
	}
	tenant := &Tenant{Name: name, Description: description, Type: TenantTypePlatform}
	if err := t.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (t *memoryTx) UpsertRoleAssignment(_ context.Context, userID, roleID, tenantID uuid.UUID) error {
	if _, ok := t.data.users[userID]; !ok {
		return NotFoundError(ErrUserNotFound)
	}
	if _, ok := t.data.roles[roleID]; !ok {
		return NotFoundError(ErrRoleNotFound)
	}
	if _, ok := t.data.tenants[tenantID]; !ok {
		return NotFoundError(ErrTenantNotFound)
	}

	key := assignmentKey{userID: userID, roleID: roleID, tenantID: tenantID}
	if _, exists := t.data.assignments[key]; !exists {
		t.data.assignments[key] = t.now().UTC()
	}
	return nil
}

func (t *memoryTx) DeleteRoleAssignment(_ context.Context, userID, roleID, tenantID uuid.UUID) (bool, error) {
	key := assignmentKey{userID: userID, roleID: roleID, tenantID: tenantID}
	if _, exists := t.data.assignments[key]; !exists {
		return false, nil
	}
	delete(t.data.assignments, key)
	return true, nil
}

func (t *memoryTx) SeedCatalog(_ context.Context, catalog Catalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}

	for _, p := range catalog.Permissions {
		if existing, ok := t.data.permissions[p.Name]; ok {
			p.ID = existing.ID
		} else if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		t.data.permissions[p.Name] = p
	}

	for _, r := range catalog.Roles {
		if id, ok := t.data.roleNames[r.Name]; ok {
			r.ID = id
		} else if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}

		perms := make([]Permission, len(r.Permissions))
		for i, p := range r.Permissions {
			perms[i] = t.data.permissions[p.Name]
		}
		r.Permissions = perms

		t.data.roles[r.ID] = r
		t.data.roleNames[r.Name] = r.ID
	}
	return nil
}
