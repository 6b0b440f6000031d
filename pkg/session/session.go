package session

import (
	"time"

	"github.com/google/uuid"
)

// Metadata describes the client that opened a session.
type Metadata struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Session is a server-side login record. Tokens carry its ID in the sid claim;
// introspection treats a token whose session is gone as revoked.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the session has expired at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return s != nil && !now.Before(s.ExpiresAt)
}

// Key returns the store key of the session.
func (s *Session) Key() string {
	return SessionKey(s.UserID.String(), s.ID.String())
}
