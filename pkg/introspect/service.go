package introspect

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/logger"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// TokenVerifier checks signature, issuer, audience, expiry and token type.
type TokenVerifier interface {
	Verify(token string, expected jwt.TokenType) (*jwt.Claims, error)
}

// RevocationChecker reports token and session revocation.
// *session.Manager implements it.
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	IsActive(ctx context.Context, userID, sessionID uuid.UUID) (bool, error)
}

// UserLoader loads a user with its role assignments. rbac.Store implements it.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*rbac.User, error)
}

// Service performs token introspection.
type Service struct {
	tokens   TokenVerifier
	sessions RevocationChecker
	users    UserLoader
	logger   *slog.Logger
}

// Option configures Service.
type Option func(*Service)

// WithLogger sets the logger used for rejected tokens.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates an introspection service. It panics if any collaborator is nil.
func NewService(tokens TokenVerifier, sessions RevocationChecker, users UserLoader, opts ...Option) *Service {
	if tokens == nil || sessions == nil || users == nil {
		panic("introspect: token verifier, revocation checker and user loader are required")
	}

	s := &Service{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Introspect validates an access token against live state. With a non-nil
// tenantID the permissions are limited to that tenant's assignments,
// otherwise they are the union across all of the user's tenants.
func (s *Service) Introspect(ctx context.Context, token string, tenantID uuid.UUID) Result {
	claims, err := s.tokens.Verify(token, jwt.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return s.reject(ctx, OutcomeExpiredToken, logger.Error(err))
		}
		return s.reject(ctx, OutcomeInvalidToken, logger.Error(err))
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return s.reject(ctx, OutcomeInvalidToken, slog.String("sub", claims.Subject))
	}

	if claims.ID != "" {
		revoked, err := s.sessions.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return s.fail(ctx, err, logger.TokenID(claims.ID))
		}
		if revoked {
			return s.reject(ctx, OutcomeBlacklisted, logger.UserID(userID), logger.TokenID(claims.ID))
		}
	}

	if sid := claims.Session(); sid != "" {
		sessionID, err := uuid.Parse(sid)
		if err != nil {
			return s.reject(ctx, OutcomeSessionRevoked, logger.UserID(userID), logger.SessionID(sid))
		}
		alive, err := s.sessions.IsActive(ctx, userID, sessionID)
		if err != nil {
			return s.fail(ctx, err, logger.UserID(userID), logger.SessionID(sid))
		}
		if !alive {
			return s.reject(ctx, OutcomeSessionRevoked, logger.UserID(userID), logger.SessionID(sid))
		}
	}

	user, err := s.users.GetUser(ctx, userID)
	switch {
	case errors.Is(err, rbac.ErrNotFound):
		return s.reject(ctx, OutcomeUserNotFound, logger.UserID(userID))
	case err != nil:
		return s.fail(ctx, err, logger.UserID(userID))
	case user == nil:
		return s.reject(ctx, OutcomeUserNotFound, logger.UserID(userID))
	case !user.IsActive():
		return s.reject(ctx, OutcomeUserInactive,
			logger.UserID(userID),
			slog.String("status", string(user.Status)),
		)
	}

	requestsTotal.WithLabelValues(OutcomeActive).Inc()

	res := Result{
		Active:        true,
		UserID:        user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		AvatarURL:     user.AvatarURL,
		EmailVerified: user.EmailVerified,
		SessionID:     claims.Session(),
		AuthStrategy:  claims.Strategy,
		Permissions:   rbac.Permissions(user, tenantID),
		TenantIDs:     rbac.TenantIDs(user),
	}
	if claims.IssuedAt != nil {
		res.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Time
	}
	return res
}

func (s *Service) reject(ctx context.Context, outcome string, attrs ...slog.Attr) Result {
	requestsTotal.WithLabelValues(outcome).Inc()
	s.logger.LogAttrs(ctx, slog.LevelDebug, "token rejected",
		append([]slog.Attr{logger.Reason(outcome)}, attrs...)...,
	)
	return Inactive()
}

// fail handles backend errors. The caller only sees an inactive token.
func (s *Service) fail(ctx context.Context, err error, attrs ...slog.Attr) Result {
	requestsTotal.WithLabelValues(OutcomeBackendError).Inc()
	s.logger.LogAttrs(ctx, slog.LevelError, "introspection backend failure",
		append([]slog.Attr{logger.Reason(OutcomeBackendError), logger.Error(err)}, attrs...)...,
	)
	return Inactive()
}
