package jwt

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how jti values are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func newULID() string {
	return ulid.Make().String()
}
