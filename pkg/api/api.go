package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/clientip"
	"github.com/dmitrymomot/authengine/pkg/httpserver"
	"github.com/dmitrymomot/authengine/pkg/introspect"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/requestid"
	"github.com/dmitrymomot/authengine/pkg/session"
)

// Introspector reports whether an access token is live. *introspect.Service implements it.
type Introspector interface {
	Introspect(ctx context.Context, token string, tenantID uuid.UUID) introspect.Result
}

// AuditReader reads stored audit events back. *audit.MongoStorage implements it.
type AuditReader interface {
	Query(ctx context.Context, criteria audit.Criteria) ([]audit.Event, error)
}

// Deps are the services behind the HTTP API. All of them are required except
// AuditLog; without it the audit log endpoints answer 404.
type Deps struct {
	Authenticator *auth.Authenticator
	Tokens        *jwt.Service
	Sessions      *session.Manager
	Introspector  Introspector
	Users         rbac.Store
	RBAC          *rbac.Service
	AuditLog      AuditReader
}

// Handler serves the HTTP API.
type Handler struct {
	auth         *auth.Authenticator
	tokens       *jwt.Service
	sessions     *session.Manager
	introspector Introspector
	users        rbac.Store
	rbac         *rbac.Service
	auditLog     AuditReader

	logger       *slog.Logger
	links        LinkSender
	ip           *clientip.Resolver
	checks       []httpserver.Check
	metrics      http.Handler
	apiKeys      [][]byte
	mfa          *mfaConfig
	oauthSuccess string
	limiter      ratelimiter.RateLimiter
	passwordCost int
}

// New creates the API handler. It panics if a dependency is missing.
func New(deps Deps, opts ...Option) *Handler {
	if deps.Authenticator == nil || deps.Tokens == nil || deps.Sessions == nil ||
		deps.Introspector == nil || deps.Users == nil || deps.RBAC == nil {
		panic("api: all dependencies are required")
	}

	h := &Handler{
		auth:         deps.Authenticator,
		tokens:       deps.Tokens,
		sessions:     deps.Sessions,
		introspector: deps.Introspector,
		users:        deps.Users,
		rbac:         deps.RBAC,
		auditLog:     deps.AuditLog,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		ip:           clientip.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.links == nil {
		h.links = NewLogLinkSender(h.logger)
	}
	return h
}

// Routes returns the router with every endpoint mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(h.ip.Middleware)
	r.Use(h.instrument)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(h.logger, h.checks...))
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(h.requireAPIKey).Post("/introspect", h.introspect)

		r.Group(func(r chi.Router) {
			r.Use(h.throttle)

			r.Post("/auth/register", h.register)
			r.Post("/auth/login", h.login)
			r.Post("/auth/refresh", h.refresh)
			r.Post("/auth/magic-link", h.requestMagicLink)
			r.Post("/auth/magic-link/verify", h.verifyMagicLink)
		})
		r.Get("/auth/oauth/{provider}", h.oauthBegin)
		r.Get("/auth/oauth/{provider}/callback", h.oauthCallback)

		r.Group(func(r chi.Router) {
			r.Use(jwt.Middleware(h.tokens, jwt.WithErrorHandler(h.writeError)), h.requireActor)

			r.Post("/auth/logout", h.logout)

			r.Get("/me", h.me)
			r.Get("/me/tenants", h.myTenants)
			r.Get("/me/sessions", h.listSessions)
			r.Delete("/me/sessions/{sessionID}", h.revokeSession)
			r.Post("/me/mfa/enroll", h.enrollMFA)
			r.Post("/me/mfa/confirm", h.confirmMFA)
			r.Delete("/me/mfa", h.disableMFA)

			r.Get("/roles", h.listRoles)
			r.Post("/tenants", h.createTenant)
			r.Get("/tenants/{tenantID}/users", h.listTenantUsers)
			r.Get("/tenants/{tenantID}/audit-logs", h.tenantAuditLog)
			r.Put("/tenants/{tenantID}/users/{userID}/roles/{role}", h.assignRole)
			r.Delete("/tenants/{tenantID}/users/{userID}/roles/{role}", h.removeRole)
			r.Get("/users", h.listUsers)
			r.Put("/users/{userID}/status", h.setUserStatus)
			r.Get("/audit-logs", h.platformAuditLog)
		})
	})

	return r
}
