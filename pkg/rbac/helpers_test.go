package rbac_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Log(_ context.Context, ev audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

type fixture struct {
	store    *rbac.MemoryStore
	svc      *rbac.Service
	sink     *recordingSink
	platform *rbac.Tenant
	root     *rbac.User
	acme     *rbac.Tenant
	globex   *rbac.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := rbac.NewMemoryStore()
	res, err := rbac.Bootstrap(ctx, store, rbac.DefaultCatalog(), rbac.BootstrapConfig{
		SuperAdminEmail:    "root@example.com",
		SuperAdminPassword: "root-password",
		PasswordCost:       bcrypt.MinCost,
	}, nil)
	require.NoError(t, err)

	acme := &rbac.Tenant{Name: "Acme", Type: rbac.TenantTypeCustomer}
	require.NoError(t, store.CreateTenant(ctx, acme))
	globex := &rbac.Tenant{Name: "Globex", Type: rbac.TenantTypeCustomer}
	require.NoError(t, store.CreateTenant(ctx, globex))

	sink := &recordingSink{}
	return &fixture{
		store:    store,
		svc:      rbac.NewService(store, rbac.WithAuditSink(sink)),
		sink:     sink,
		platform: res.PlatformTenant,
		root:     res.SuperAdmin,
		acme:     acme,
		globex:   globex,
	}
}

// user creates an active account and grants roles directly through the store.
func (f *fixture) user(t *testing.T, grants ...grant) *rbac.User {
	t.Helper()

	ctx := context.Background()
	u := &rbac.User{
		Email:  uuid.NewString() + "@example.com",
		Status: rbac.UserStatusActive,
	}
	require.NoError(t, f.store.CreateUser(ctx, u))

	for _, g := range grants {
		role, err := f.store.GetRoleByName(ctx, g.role)
		require.NoError(t, err)
		require.NoError(t, f.store.UpsertRoleAssignment(ctx, u.ID, role.ID, g.tenant.ID))
	}
	return f.reload(t, u.ID)
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *rbac.User {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

type grant struct {
	role   string
	tenant *rbac.Tenant
}

func in(role string, tenant *rbac.Tenant) grant {
	return grant{role: role, tenant: tenant}
}
