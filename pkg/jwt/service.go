package jwt

import (
	"cmp"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// Service signs and verifies HS256 tokens.
type Service struct {
	key        []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwtlib.Parser
	now        func() time.Time
	newID      func() string
}

// New creates a Service from cfg. Zero values fall back to the defaults.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		key:        []byte(cfg.SecretKey),
		issuer:     cmp.Or(cfg.Issuer, DefaultIssuer),
		audience:   cmp.Or(cfg.Audience, DefaultAudience),
		accessTTL:  cmp.Or(cfg.AccessTTL, DefaultAccessTTL),
		refreshTTL: cmp.Or(cfg.RefreshTTL, DefaultRefreshTTL),
		now:        time.Now,
		newID:      newULID,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithAudience(s.audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithLeeway(cfg.Leeway),
		jwtlib.WithTimeFunc(s.now),
	)
	return s, nil
}

// AccessTTL is the lifetime of access tokens.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken issues an access token carrying a snapshot of the user's
// roles and permissions. sessionID may be empty.
func (s *Service) IssueAccessToken(user *rbac.User, sessionID string, opts ...IssueOption) (string, error) {
	if user == nil {
		return "", ErrMissingSubject
	}

	roles := make([]RoleClaim, 0, len(user.Assignments))
	for _, a := range user.Assignments {
		tenantID := a.Tenant.ID.String()
		roles = append(roles, RoleClaim{Name: a.Role.Name, TenantID: &tenantID})
	}

	claims := Claims{
		Email:       user.Email,
		Roles:       roles,
		Permissions: rbac.Permissions(user, uuid.Nil),
		SessionID:   optional(sessionID),
		Type:        TokenTypeAccess,
	}
	for _, opt := range opts {
		opt(&claims)
	}
	claims.Subject = user.ID.String()
	return s.Issue(claims, s.accessTTL)
}

// IssueRefreshToken issues a refresh token. It carries identity only, plus
// the strategy so a rotated pair keeps it.
func (s *Service) IssueRefreshToken(user *rbac.User, sessionID string, opts ...IssueOption) (string, error) {
	if user == nil {
		return "", ErrMissingSubject
	}

	claims := Claims{
		SessionID: optional(sessionID),
		Type:      TokenTypeRefresh,
	}
	for _, opt := range opts {
		opt(&claims)
	}
	claims.Subject = user.ID.String()
	return s.Issue(claims, s.refreshTTL)
}

// Issue signs claims with the given lifetime. Issuer, audience, iat, exp and
// jti are always set by the service; a jti already present is kept.
func (s *Service) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims.Issuer = s.issuer
	claims.Audience = jwtlib.ClaimStrings{s.audience}
	claims.IssuedAt = jwtlib.NewNumericDate(now)
	claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(ttl))
	if claims.ID == "" {
		claims.ID = s.newID()
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify checks signature, algorithm, issuer, audience and expiry, then that
// the token is of the expected type.
func (s *Service) Verify(token string, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errors.Join(ErrExpiredToken, err)
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, errors.Join(ErrInvalidToken, ErrMissingSubject)
	}
	if claims.Type != expected {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
