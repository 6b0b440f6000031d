package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authengine/pkg/api"
	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/introspect"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

const (
	rootEmail    = "root@example.com"
	rootPassword = "root-password"
)

type mailbox struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *mailbox) SendMagicLink(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[email] = token
	return nil
}

func (m *mailbox) link(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[email]
}

// auditLog is an in-memory api.AuditReader that records each query.
type auditLog struct {
	mu      sync.Mutex
	events  []audit.Event
	err     error
	queries []audit.Criteria
}

func (l *auditLog) Query(_ context.Context, c audit.Criteria) ([]audit.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, c)
	return l.events, l.err
}

func (l *auditLog) lastQuery() audit.Criteria {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queries) == 0 {
		return audit.Criteria{}
	}
	return l.queries[len(l.queries)-1]
}

type testEnv struct {
	store    *rbac.MemoryStore
	kv       *session.MemoryStore
	tokens   *jwt.Service
	sessions *session.Manager
	mail     *mailbox
	audit    *auditLog
	platform *rbac.Tenant
	root     *rbac.User
	handler  http.Handler
}

func newEnv(t *testing.T, opts ...api.Option) *testEnv {
	t.Helper()
	return newEnvWithAudit(t, &auditLog{}, opts...)
}

// newEnvWithAudit builds the env with log as the audit reader. A nil log
// leaves the reader unset.
func newEnvWithAudit(t *testing.T, log *auditLog, opts ...api.Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := rbac.NewMemoryStore()
	boot, err := rbac.Bootstrap(ctx, store, rbac.DefaultCatalog(), rbac.BootstrapConfig{
		SuperAdminEmail:    rootEmail,
		SuperAdminPassword: rootPassword,
		PasswordCost:       bcrypt.MinCost,
	}, nil)
	require.NoError(t, err)

	kv := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = kv.Close() })

	tokens, err := jwt.New(jwt.Config{SecretKey: "api-test-secret"})
	require.NoError(t, err)
	sessions := session.NewManager(kv)

	box, err := totp.NewSecretBox(bytes.Repeat([]byte{7}, totp.KeySize))
	require.NoError(t, err)

	provider := fakeProvider(t)
	google := auth.NewOAuthStrategy(auth.ProviderGoogle, &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   provider.URL + "/authorize",
			TokenURL:  provider.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, auth.ProfileFetcherFunc(func(context.Context, *http.Client) (auth.ProviderProfile, error) {
		return auth.ProviderProfile{
			ProviderUserID: "g-1",
			Email:          "Social@Example.com",
			EmailVerified:  true,
			FirstName:      "Sam",
		}, nil
	}), tokens, auth.WithStateStore(kv))

	authn := auth.NewAuthenticator(auth.WithStrategies(
		auth.NewPasswordStrategy(store, tokens),
		auth.NewMagicLinkStrategy(tokens, kv, store, 0),
		auth.NewTOTPStrategy(totp.NewVerifier(box, 1, nil)),
		google,
	))

	mail := &mailbox{links: make(map[string]string)}
	all := append([]api.Option{
		api.WithLinkSender(mail),
		api.WithMFA(box, totp.Config{}, kv),
		api.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		api.WithPasswordCost(bcrypt.MinCost),
	}, opts...)

	deps := api.Deps{
		Authenticator: authn,
		Tokens:        tokens,
		Sessions:      sessions,
		Introspector:  introspect.NewService(tokens, sessions, store),
		Users:         store,
		RBAC:          rbac.NewService(store),
	}
	if log != nil {
		deps.AuditLog = log
	}
	h := api.New(deps, all...)

	return &testEnv{
		store:    store,
		kv:       kv,
		tokens:   tokens,
		sessions: sessions,
		mail:     mail,
		audit:    log,
		platform: boot.PlatformTenant,
		root:     boot.SuperAdmin,
		handler:  h.Routes(),
	}
}

func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// user creates an account, hashing password when set.
func (e *testEnv) user(t *testing.T, email, password string, status rbac.UserStatus) *rbac.User {
	t.Helper()

	u := &rbac.User{Email: email, Status: status}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		u.PasswordHash = string(hash)
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) grant(t *testing.T, u *rbac.User, tenant *rbac.Tenant, roleName string) {
	t.Helper()
	ctx := context.Background()
	role, err := e.store.GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	require.NoError(t, e.store.UpsertRoleAssignment(ctx, u.ID, role.ID, tenant.ID))
}

type response struct {
	*httptest.ResponseRecorder
}

// data decodes the envelope's data field into v.
func (r response) data(t *testing.T, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// errorCode returns the envelope's error code.
func (r response) errorCode(t *testing.T) string {
	t.Helper()
	var env api.Envelope
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &env))
	require.NotNil(t, env.Error, "body: %s", r.Body.String())
	return env.Error.Code
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return response{rec}
}

func (e *testEnv) login(t *testing.T, email, password string) api.TokenResponse {
	t.Helper()

	res := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var tokens api.TokenResponse
	res.data(t, &tokens)
	return tokens
}

func (e *testEnv) introspect(t *testing.T, token string, tenantID string) introspect.Result {
	t.Helper()

	body := map[string]string{"token": token}
	if tenantID != "" {
		body["tenant_id"] = tenantID
	}
	res := e.do(t, http.MethodPost, "/v1/introspect", "", body)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var out introspect.Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	return out
}
