package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// PasswordStrategy authenticates with email and a bcrypt password hash.
type PasswordStrategy struct {
	users  UserFinder
	tokens TokenVerifier

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordStrategy creates the email/password strategy.
func NewPasswordStrategy(users UserFinder, tokens TokenVerifier) *PasswordStrategy {
	return &PasswordStrategy{users: users, tokens: tokens}
}

func (s *PasswordStrategy) Name() string { return StrategyPassword }
func (s *PasswordStrategy) strategy()    {}

// Authenticate returns the account when the password matches and the account
// is ACTIVE. Unknown emails, accounts without a password and wrong passwords
// all yield ErrInvalidCredentials.
func (s *PasswordStrategy) Authenticate(ctx context.Context, c PasswordCredentials) (*rbac.User, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" || c.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, rbac.ErrNotFound) {
			return nil, err
		}
		// Burn the same bcrypt time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(c.Password))
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(c.Password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// Validate verifies an access token and requires its subject to still be ACTIVE.
func (s *PasswordStrategy) Validate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.tokens.Verify(token, jwt.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	return claims, nil
}

func (s *PasswordStrategy) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("authengine-dummy-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}
