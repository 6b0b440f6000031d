package api

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authengine/pkg/clientip"
	"github.com/dmitrymomot/authengine/pkg/httpserver"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/session"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithLinkSender sets how magic links reach the user.
func WithLinkSender(s LinkSender) Option {
	return func(h *Handler) {
		if s != nil {
			h.links = s
		}
	}
}

// WithClientIP sets the resolver recording client addresses on sessions.
func WithClientIP(res *clientip.Resolver) Option {
	return func(h *Handler) {
		if res != nil {
			h.ip = res
		}
	}
}

// WithReadinessChecks sets the dependencies probed by /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(h *Handler) {
		h.checks = append(h.checks, checks...)
	}
}

// WithMetricsHandler mounts handler on GET /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(h *Handler) {
		h.metrics = handler
	}
}

// WithIntrospectionKeys requires one of keys in the X-API-Key header of
// introspection calls. Without keys the endpoint is open.
func WithIntrospectionKeys(keys ...string) Option {
	return func(h *Handler) {
		for _, k := range keys {
			if k != "" {
				h.apiKeys = append(h.apiKeys, []byte(k))
			}
		}
	}
}

// WithMFA enables TOTP enrollment and the second factor on password login.
// Encrypted secrets are kept in store.
func WithMFA(box *totp.SecretBox, cfg totp.Config, store session.Store) Option {
	return func(h *Handler) {
		if box != nil && store != nil {
			h.mfa = &mfaConfig{box: box, cfg: cfg, store: store}
		}
	}
}

// WithOAuthSuccessURL redirects completed OAuth logins to url with the tokens
// in the fragment instead of answering with JSON.
func WithOAuthSuccessURL(url string) Option {
	return func(h *Handler) {
		h.oauthSuccess = url
	}
}

// WithRateLimiter throttles the unauthenticated credential endpoints per client IP.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// WithPasswordCost sets the bcrypt cost for passwords set through
// registration. Zero keeps bcrypt.DefaultCost.
func WithPasswordCost(cost int) Option {
	return func(h *Handler) {
		h.passwordCost = cost
	}
}
