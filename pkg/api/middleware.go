package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/clientip"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/logger"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// APIKeyHeader carries the service key on introspection calls.
const APIKeyHeader = "X-API-Key"

// instrument records request metrics and writes the access log.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		h.logger.LogAttrs(r.Context(), slog.LevelInfo, "http request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("ip", clientip.FromContext(r.Context())),
			logger.Duration(elapsed),
		)
	})
}

// throttle applies the rate limiter per endpoint and client IP.
// Without a limiter every request passes.
func (h *Handler) throttle(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	key := ratelimiter.Composite(
		ratelimiter.Static("auth"),
		func(r *http.Request) string { return r.URL.Path },
		func(r *http.Request) string { return clientip.FromContext(r.Context()) },
	)
	return ratelimiter.Middleware(h.limiter, key, ratelimiter.WithErrorHandler(h.writeError))(next)
}

// requireAPIKey rejects introspection calls without a configured service key.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.apiKeys) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		presented := []byte(r.Header.Get(APIKeyHeader))
		for _, key := range h.apiKeys {
			if subtle.ConstantTimeCompare(presented, key) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		h.writeError(w, r, ErrInvalidAPIKey)
	})
}

// requireActor runs after jwt.Middleware. It rejects tokens whose session or
// account is no longer live and stores the loaded user as the request actor.
func (h *Handler) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token, ok := jwt.GetToken(ctx)
		if !ok {
			h.writeError(w, r, ErrUnauthorized)
			return
		}

		res := h.introspector.Introspect(ctx, token, uuid.Nil)
		if !res.Active {
			h.writeError(w, r, ErrSessionRevoked)
			return
		}

		actor, err := h.users.GetUser(ctx, res.UserID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(ctx, actor)))
	})
}

type actorKey struct{}

func withActor(ctx context.Context, u *rbac.User) context.Context {
	return context.WithValue(ctx, actorKey{}, u)
}

// actorFrom returns the authenticated user set by requireActor.
func actorFrom(ctx context.Context) *rbac.User {
	u, _ := ctx.Value(actorKey{}).(*rbac.User)
	return u
}
