package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
)

const (
	magicLinkPrefix     = "magic:jti:"
	DefaultMagicLinkTTL = 15 * time.Minute
)

// MagicLinkStrategy is passwordless login through a signed, one-time link.
// The link token is a magic_link JWT; a flag under magic:jti:<jti> makes it
// single use.
type MagicLinkStrategy struct {
	tokens TokenIssuer
	flags  session.Store
	users  UserFinder
	ttl    time.Duration
}

// NewMagicLinkStrategy creates the strategy. A non-positive ttl uses 15 minutes.
func NewMagicLinkStrategy(tokens TokenIssuer, flags session.Store, users UserFinder, ttl time.Duration) *MagicLinkStrategy {
	if ttl <= 0 {
		ttl = DefaultMagicLinkTTL
	}
	return &MagicLinkStrategy{tokens: tokens, flags: flags, users: users, ttl: ttl}
}

func (s *MagicLinkStrategy) Name() string { return StrategyMagicLink }
func (s *MagicLinkStrategy) strategy()    {}

// Issue creates a link token for email and arms its one-time flag.
func (s *MagicLinkStrategy) Issue(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrMissingCredentials
	}

	jti := ulid.Make().String()
	token, err := s.tokens.Issue(jwt.Claims{
		Email: email,
		Type:  jwt.TokenTypeMagicLink,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject: email,
			ID:      jti,
		},
	}, s.ttl)
	if err != nil {
		return "", err
	}

	if err := s.flags.Set(ctx, magicLinkPrefix+jti, []byte("pending"), s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate verifies the link, consumes its flag and loads the account.
func (s *MagicLinkStrategy) Authenticate(ctx context.Context, c MagicLinkCredentials) (*rbac.User, error) {
	if c.Token == "" {
		return nil, ErrMissingCredentials
	}

	claims, err := s.Validate(ctx, c.Token)
	if err != nil {
		return nil, err
	}
	email := claims.Email
	if email == "" {
		email = claims.Subject
	}
	if claims.ID == "" || email == "" {
		return nil, ErrMagicLinkInvalid
	}

	flag, err := s.flags.Take(ctx, magicLinkPrefix+claims.ID)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, ErrMagicLinkUsed
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status == rbac.UserStatusSuspended || user.Status == rbac.UserStatusInactive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// Validate is the stateless check: signature, expiry and magic_link type.
// It does not look at the one-time flag.
func (s *MagicLinkStrategy) Validate(_ context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.tokens.Verify(token, jwt.TokenTypeMagicLink)
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, errors.Join(ErrMagicLinkExpired, err)
	case err != nil:
		return nil, errors.Join(ErrMagicLinkInvalid, err)
	}
	return claims, nil
}
