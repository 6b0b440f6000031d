package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/logger"
)

// Authenticator routes credentials to the registered strategy.
type Authenticator struct {
	password  *PasswordStrategy
	magicLink *MagicLinkStrategy
	totp      *TOTPStrategy
	oauth     map[string]*OAuthStrategy

	logger *slog.Logger
	now    func() time.Time
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithStrategies registers strategies. A later strategy with the same name
// replaces an earlier one.
func WithStrategies(strategies ...Strategy) AuthenticatorOption {
	return func(a *Authenticator) {
		for _, s := range strategies {
			a.register(s)
		}
	}
}

// WithAuthLogger sets the logger for authentication outcomes.
func WithAuthLogger(l *slog.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAuthClock overrides the clock used for Result.AuthenticatedAt.
func WithAuthClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuthenticator creates an Authenticator with no strategies unless
// WithStrategies is given.
func NewAuthenticator(opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		oauth:  make(map[string]*OAuthStrategy),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authenticator) register(s Strategy) {
	switch s := s.(type) {
	case *PasswordStrategy:
		a.password = s
	case *MagicLinkStrategy:
		a.magicLink = s
	case *TOTPStrategy:
		a.totp = s
	case *OAuthStrategy:
		a.oauth[s.Name()] = s
	}
}

// Strategy returns the registered strategy with the given name.
func (a *Authenticator) Strategy(name string) (Strategy, bool) {
	switch name {
	case StrategyPassword:
		return a.password, a.password != nil
	case StrategyMagicLink:
		return a.magicLink, a.magicLink != nil
	case StrategyTOTP:
		return a.totp, a.totp != nil
	}
	s, ok := a.oauth[name]
	return s, ok
}

// OAuth returns the strategy of an OAuth provider.
func (a *Authenticator) OAuth(provider string) (*OAuthStrategy, bool) {
	s, ok := a.oauth[provider]
	return s, ok
}

// MagicLink returns the magic link strategy, if registered.
func (a *Authenticator) MagicLink() (*MagicLinkStrategy, bool) {
	return a.magicLink, a.magicLink != nil
}

// Authenticate runs the strategy matching the credentials type.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Result, error) {
	res := &Result{}
	var err error

	switch c := creds.(type) {
	case PasswordCredentials:
		res.Strategy = StrategyPassword
		if a.password == nil {
			err = ErrUnsupported
			break
		}
		res.User, err = a.password.Authenticate(ctx, c)
	case MagicLinkCredentials:
		res.Strategy = StrategyMagicLink
		if a.magicLink == nil {
			err = ErrUnsupported
			break
		}
		res.User, err = a.magicLink.Authenticate(ctx, c)
	case TOTPCredentials:
		res.Strategy = StrategyTOTP
		if a.totp == nil {
			err = ErrUnsupported
			break
		}
		err = a.totp.Authenticate(ctx, c)
	case OAuthCredentials:
		res.Strategy = c.Provider
		s, ok := a.oauth[c.Provider]
		if !ok {
			err = ErrUnknownStrategy
			break
		}
		res.Profile, err = s.Authenticate(ctx, c)
	default:
		return nil, ErrUnknownStrategy
	}

	if err != nil {
		attemptsTotal.WithLabelValues(res.Strategy, resultFailure).Inc()
		a.logger.DebugContext(ctx, "authentication failed",
			logger.Strategy(res.Strategy),
			logger.Error(err),
		)
		return nil, err
	}

	attemptsTotal.WithLabelValues(res.Strategy, resultSuccess).Inc()
	res.AuthenticatedAt = a.now()
	if res.User != nil {
		a.logger.InfoContext(ctx, "user authenticated",
			logger.Strategy(res.Strategy),
			logger.UserID(res.User.ID),
		)
	}
	return res, nil
}

// Validate checks a token with the named strategy.
func (a *Authenticator) Validate(ctx context.Context, name, token string) (*jwt.Claims, error) {
	s, ok := a.Strategy(name)
	if !ok {
		return nil, errors.Join(ErrUnknownStrategy, errors.New(name))
	}
	return s.Validate(ctx, token)
}
