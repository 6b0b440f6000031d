package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/api"
	"github.com/dmitrymomot/authengine/pkg/httpserver"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/requestid"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

func TestNewPanicsWithoutDeps(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { api.New(api.Deps{}) })
}

func TestProbesAndMetrics(t *testing.T) {
	t.Parallel()

	env := newEnv(t,
		api.WithReadinessChecks(httpserver.Check{
			Name: "redis",
			Fn:   func(context.Context) error { return errors.New("down") },
		}),
		api.WithMetricsHandler(promhttp.Handler()),
	)

	res := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header().Get(requestid.Header))

	res = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)

	res = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "authengine_http_requests_total")
}

func TestLoginAndIntrospect(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	tokens := env.login(t, rootEmail, rootPassword)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Positive(t, tokens.ExpiresIn)
	assert.NotEmpty(t, tokens.RefreshToken)

	t.Run("body token", func(t *testing.T) {
		res := env.introspect(t, tokens.AccessToken, "")
		assert.True(t, res.Active)
		assert.Equal(t, env.root.ID, res.UserID)
		assert.Equal(t, tokens.SessionID.String(), res.SessionID)
		assert.Equal(t, "password", res.AuthStrategy)
		assert.Contains(t, res.Permissions, rbac.PermPlatformUsersManage)
		assert.Equal(t, []string{env.platform.ID.String()}, uuidStrings(res.TenantIDs))
	})

	t.Run("bearer token", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/v1/introspect", tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), `"active":true`)
	})

	t.Run("garbage token is inactive", func(t *testing.T) {
		res := env.introspect(t, "not-a-token", "")
		assert.False(t, res.Active)
		assert.Empty(t, res.Permissions)
	})

	t.Run("refresh token is inactive", func(t *testing.T) {
		assert.False(t, env.introspect(t, tokens.RefreshToken, "").Active)
	})

	t.Run("no token is inactive", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/v1/introspect", "", nil)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), `"active":false`)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/introspect", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIntrospectionAPIKey(t *testing.T) {
	t.Parallel()
	env := newEnv(t, api.WithIntrospectionKeys("service-key"))
	tokens := env.login(t, rootEmail, rootPassword)

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/introspect", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		if key != "" {
			req.Header.Set(api.APIKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send(""))
	assert.Equal(t, http.StatusUnauthorized, send("wrong"))
	assert.Equal(t, http.StatusOK, send("service-key"))
}

func TestLoginErrors(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	env.user(t, "suspended@example.com", "secret-pass", rbac.UserStatusSuspended)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"wrong password", map[string]string{"email": rootEmail, "password": "nope"}, http.StatusUnauthorized, "auth.invalid_credentials"},
		{"unknown email", map[string]string{"email": "ghost@example.com", "password": "nope"}, http.StatusUnauthorized, "auth.invalid_credentials"},
		{"missing password", map[string]string{"email": rootEmail}, http.StatusBadRequest, "auth.missing_credentials"},
		{"suspended account", map[string]string{"email": "suspended@example.com", "password": "secret-pass"}, http.StatusForbidden, "auth.account_inactive"},
		{"unknown field", map[string]string{"email": rootEmail, "password": rootPassword, "extra": "x"}, http.StatusBadRequest, "api.invalid_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.do(t, http.MethodPost, "/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.status, res.Code)
			assert.Equal(t, tt.code, res.errorCode(t))
		})
	}

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("email=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)
	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       2,
		RefillRate:     1,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	env := newEnv(t, api.WithRateLimiter(limiter))
	creds := map[string]string{"email": rootEmail, "password": "wrong"}

	for range 2 {
		res := env.do(t, http.MethodPost, "/v1/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	}

	res := env.do(t, http.MethodPost, "/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "ratelimiter.limit_exceeded", res.errorCode(t))
	assert.NotEmpty(t, res.Header().Get("Retry-After"))

	// Other endpoints keep their own budget.
	res = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	first := env.login(t, rootEmail, rootPassword)

	res := env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var second api.TokenResponse
	res.data(t, &second)
	assert.Equal(t, first.SessionID, second.SessionID)
	rotated := env.introspect(t, second.AccessToken, "")
	assert.True(t, rotated.Active)
	assert.Equal(t, "password", rotated.AuthStrategy, "strategy survives rotation")

	res = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "replayed refresh token")
	assert.Equal(t, "api.session_revoked", res.errorCode(t))

	res = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": second.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "access token is not a refresh token")
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	tokens := env.login(t, rootEmail, rootPassword)

	res := env.do(t, http.MethodPost, "/v1/auth/logout", tokens.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, res.Code)

	assert.False(t, env.introspect(t, tokens.AccessToken, "").Active)

	res = env.do(t, http.MethodGet, "/v1/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "refresh after logout")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	for _, path := range []string{"/v1/me", "/v1/roles", "/v1/me/sessions"} {
		res := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code, path)
		assert.Equal(t, "jwt.invalid_token", res.errorCode(t), path)
	}
}

func TestMe(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	tokens := env.login(t, rootEmail, rootPassword)

	res := env.do(t, http.MethodGet, "/v1/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var me struct {
		Email       string   `json:"email"`
		Permissions []string `json:"permissions"`
		MFAEnabled  bool     `json:"mfa_enabled"`
	}
	res.data(t, &me)
	assert.Equal(t, rootEmail, me.Email)
	assert.Contains(t, me.Permissions, rbac.PermPlatformRolesAssign)
	assert.False(t, me.MFAEnabled)
	assert.NotContains(t, res.Body.String(), "password")

	res = env.do(t, http.MethodGet, "/v1/me?tenant_id=nope", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSessions(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	current := env.login(t, rootEmail, rootPassword)
	other := env.login(t, rootEmail, rootPassword)

	res := env.do(t, http.MethodGet, "/v1/me/sessions", current.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var list []api.SessionView
	res.data(t, &list)
	require.Len(t, list, 2)
	for _, s := range list {
		assert.Equal(t, s.ID == current.SessionID, s.Current)
	}

	path := "/v1/me/sessions/" + other.SessionID.String()
	res = env.do(t, http.MethodDelete, path, current.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.False(t, env.introspect(t, other.AccessToken, "").Active)

	res = env.do(t, http.MethodDelete, path, current.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = env.do(t, http.MethodDelete, "/v1/me/sessions/not-a-uuid", current.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestTenantRoleManagement(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	root := env.login(t, rootEmail, rootPassword)

	res := env.do(t, http.MethodPost, "/v1/tenants", root.AccessToken, map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var acme rbac.Tenant
	res.data(t, &acme)
	assert.Equal(t, rbac.TenantTypeCustomer, acme.Type)

	owner := env.user(t, "owner@example.com", "owner-password", rbac.UserStatusActive)
	member := env.user(t, "member@example.com", "member-password", rbac.UserStatusActive)

	rolePath := func(u *rbac.User, role string) string {
		return "/v1/tenants/" + acme.ID.String() + "/users/" + u.ID.String() + "/roles/" + role
	}

	res = env.do(t, http.MethodPut, rolePath(owner, rbac.RoleTenantOwner), root.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, res.Code, res.Body.String())

	ownerTokens := env.login(t, "owner@example.com", "owner-password")

	t.Run("owner assigns a lower role", func(t *testing.T) {
		res := env.do(t, http.MethodPut, rolePath(member, rbac.RoleTenantManager), ownerTokens.AccessToken, nil)
		assert.Equal(t, http.StatusNoContent, res.Code)

		res = env.do(t, http.MethodPut, rolePath(member, rbac.RoleTenantManager), ownerTokens.AccessToken, nil)
		assert.Equal(t, http.StatusNoContent, res.Code, "assign is idempotent")

		in := env.introspect(t, env.login(t, "member@example.com", "member-password").AccessToken, acme.ID.String())
		assert.True(t, in.Active)
		assert.Contains(t, in.Permissions, rbac.PermTenantRolesView)
		assert.NotContains(t, in.Permissions, rbac.PermTenantDelete)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			path   string
			status int
			code   string
		}{
			{"same level", rolePath(member, rbac.RoleTenantOwner), http.StatusForbidden, "rbac.insufficient_level"},
			{"protected role", rolePath(member, rbac.RoleSuperAdmin), http.StatusForbidden, "rbac.protected_role"},
			{"unknown role", rolePath(member, "NOPE"), http.StatusNotFound, "rbac.role_not_found"},
			{"platform role in customer tenant", rolePath(member, rbac.RolePlatformAdmin), http.StatusUnprocessableEntity, "rbac.scope_mismatch"},
			{"bad tenant id", "/v1/tenants/x/users/" + member.ID.String() + "/roles/TENANT_USER", http.StatusBadRequest, "api.invalid_parameter"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res := env.do(t, http.MethodPut, tt.path, ownerTokens.AccessToken, nil)
				assert.Equal(t, tt.status, res.Code, res.Body.String())
				assert.Equal(t, tt.code, res.errorCode(t))
			})
		}
	})

	t.Run("owner cannot create tenants", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/v1/tenants", ownerTokens.AccessToken, map[string]string{"name": "Globex"})
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("remove reports whether a row was deleted", func(t *testing.T) {
		var out map[string]bool

		res := env.do(t, http.MethodDelete, rolePath(member, rbac.RoleTenantManager), ownerTokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, res.Code)
		res.data(t, &out)
		assert.True(t, out["removed"])

		res = env.do(t, http.MethodDelete, rolePath(member, rbac.RoleTenantManager), ownerTokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, res.Code)
		res.data(t, &out)
		assert.False(t, out["removed"])
	})

	t.Run("tenant roles listing", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/v1/roles", ownerTokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, res.Code)
		var roles []rbac.Role
		res.data(t, &roles)
		require.NotEmpty(t, roles)
		for _, r := range roles {
			assert.Equal(t, rbac.ScopeTenant, r.Scope)
		}
	})
}

func TestSuspensionDeactivatesTokens(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	root := env.login(t, rootEmail, rootPassword)

	env.user(t, "worker@example.com", "worker-password", rbac.UserStatusActive)
	worker := env.login(t, "worker@example.com", "worker-password")
	in := env.introspect(t, worker.AccessToken, "")
	require.True(t, in.Active)

	path := "/v1/users/" + in.UserID.String() + "/status"
	res := env.do(t, http.MethodPut, path, root.AccessToken, map[string]string{"status": "suspended"})
	require.Equal(t, http.StatusNoContent, res.Code, res.Body.String())

	assert.False(t, env.introspect(t, worker.AccessToken, "").Active)
	res = env.do(t, http.MethodGet, "/v1/me", worker.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = env.do(t, http.MethodPut, path, root.AccessToken, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(t, http.MethodPut, "/v1/users/"+env.root.ID.String()+"/status", root.AccessToken, map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusForbidden, res.Code, "super admin cannot be suspended")
}

func TestMagicLinkFlow(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	pending := env.user(t, "pending@example.com", "", rbac.UserStatusPendingVerification)

	res := env.do(t, http.MethodPost, "/v1/auth/magic-link", "", map[string]string{"email": "Pending@Example.com"})
	require.Equal(t, http.StatusAccepted, res.Code)
	token := env.mail.link("pending@example.com")
	require.NotEmpty(t, token)

	res = env.do(t, http.MethodPost, "/v1/auth/magic-link", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusAccepted, res.Code)
	assert.Empty(t, env.mail.link("ghost@example.com"))

	res = env.do(t, http.MethodPost, "/v1/auth/magic-link/verify", "", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var tokens api.TokenResponse
	res.data(t, &tokens)
	assert.True(t, env.introspect(t, tokens.AccessToken, "").Active)

	u, err := env.store.GetUser(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.UserStatusActive, u.Status)

	res = env.do(t, http.MethodPost, "/v1/auth/magic-link/verify", "", map[string]string{"token": token})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "auth.magic_link.already_used", res.errorCode(t))
}

func TestOAuthFlow(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	res := env.do(t, http.MethodGet, "/v1/auth/oauth/google", "", nil)
	require.Equal(t, http.StatusFound, res.Code)
	loc, err := url.Parse(res.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", loc.Path)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	res = env.do(t, http.MethodGet, "/v1/auth/oauth/google/callback?code=good&state=forged", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "auth.oauth.invalid_state", res.errorCode(t))

	res = env.do(t, http.MethodGet, "/v1/auth/oauth/google/callback?code=good&state="+url.QueryEscape(state), "", nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var tokens api.TokenResponse
	res.data(t, &tokens)

	in := env.introspect(t, tokens.AccessToken, "")
	require.True(t, in.Active)
	assert.Equal(t, "social@example.com", in.Email)
	assert.True(t, in.EmailVerified)

	res = env.do(t, http.MethodGet, "/v1/auth/oauth/gitlab", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestOAuthSuccessRedirect(t *testing.T) {
	t.Parallel()
	env := newEnv(t, api.WithOAuthSuccessURL("https://app.example.com/done"))

	res := env.do(t, http.MethodGet, "/v1/auth/oauth/google", "", nil)
	loc, err := url.Parse(res.Header().Get("Location"))
	require.NoError(t, err)

	res = env.do(t, http.MethodGet, "/v1/auth/oauth/google/callback?code=good&state="+url.QueryEscape(loc.Query().Get("state")), "", nil)
	require.Equal(t, http.StatusFound, res.Code)
	target := res.Header().Get("Location")
	assert.True(t, strings.HasPrefix(target, "https://app.example.com/done#"))
	assert.Contains(t, target, "access_token=")
}

func TestMFAEnrollment(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	tokens := env.login(t, rootEmail, rootPassword)

	res := env.do(t, http.MethodPost, "/v1/me/mfa/confirm", tokens.AccessToken, map[string]string{"code": "000000"})
	assert.Equal(t, http.StatusConflict, res.Code, "confirm before enroll")

	res = env.do(t, http.MethodPost, "/v1/me/mfa/enroll", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var enrollment api.EnrollmentResponse
	res.data(t, &enrollment)
	assert.True(t, strings.HasPrefix(enrollment.URI, "otpauth://totp/"))
	assert.True(t, strings.HasPrefix(enrollment.QRCode, "data:image/png;base64,"))

	code, err := totp.Code(enrollment.Secret, time.Now())
	require.NoError(t, err)
	res = env.do(t, http.MethodPost, "/v1/me/mfa/confirm", tokens.AccessToken, map[string]string{"code": code})
	require.Equal(t, http.StatusNoContent, res.Code, res.Body.String())

	res = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": rootEmail, "password": rootPassword})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "api.mfa_required", res.errorCode(t))

	res = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": rootEmail, "password": rootPassword, "totp_code": "000000"})
	if code != "000000" {
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	}

	res = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": rootEmail, "password": rootPassword, "totp_code": code})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = env.do(t, http.MethodDelete, "/v1/me/mfa", tokens.AccessToken, map[string]string{"code": code})
	assert.Equal(t, http.StatusNoContent, res.Code)
	env.login(t, rootEmail, rootPassword)
}

func uuidStrings[T interface{ String() string }](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
