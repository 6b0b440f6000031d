package auth

import (
	"context"
	"errors"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

// TOTPStrategy checks a second-factor code against the user's encrypted
// TOTP secret. It issues nothing and so cannot validate tokens.
type TOTPStrategy struct {
	verifier *totp.Verifier
}

// NewTOTPStrategy creates the strategy around a configured verifier.
func NewTOTPStrategy(verifier *totp.Verifier) *TOTPStrategy {
	return &TOTPStrategy{verifier: verifier}
}

func (s *TOTPStrategy) Name() string { return StrategyTOTP }
func (s *TOTPStrategy) strategy()    {}

// Authenticate returns nil when the code matches.
func (s *TOTPStrategy) Authenticate(_ context.Context, c TOTPCredentials) error {
	if c.EncryptedSecret == "" || c.Code == "" {
		return ErrMissingCredentials
	}

	ok, err := s.verifier.VerifyEncrypted(c.EncryptedSecret, c.Code)
	switch {
	case errors.Is(err, totp.ErrInvalidCode):
		return ErrInvalidTOTPCode
	case err != nil:
		return err
	case !ok:
		return ErrInvalidTOTPCode
	}
	return nil
}

// Validate always fails with ErrUnsupported.
func (s *TOTPStrategy) Validate(context.Context, string) (*jwt.Claims, error) {
	return nil, ErrUnsupported
}
