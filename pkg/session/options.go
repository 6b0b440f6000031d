package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithTTL sets the session lifetime
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.config.TTL = ttl
	}
}

// WithLogger sets the logger used for skipped records
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides session id generation
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}
