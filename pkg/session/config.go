package session

import "time"

// Config holds session configuration
type Config struct {
	// TTL is the lifetime of a session. It should match the refresh token TTL.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// CleanupInterval for the in-memory store sweep (0 to disable)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TTL:             7 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}
