package introspect

import (
	"time"

	"github.com/google/uuid"
)

// Result is the introspection response. Only Active, Permissions and
// TenantIDs are set for inactive tokens.
type Result struct {
	Active        bool        `json:"active"`
	UserID        uuid.UUID   `json:"user_id,omitzero"`
	Email         string      `json:"email,omitempty"`
	FirstName     string      `json:"first_name,omitempty"`
	LastName      string      `json:"last_name,omitempty"`
	AvatarURL     string      `json:"avatar_url,omitempty"`
	EmailVerified bool        `json:"is_email_verified,omitempty"`
	SessionID     string      `json:"session_id,omitempty"`
	AuthStrategy  string      `json:"auth_strategy,omitempty"`
	IssuedAt      time.Time   `json:"issued_at,omitzero"`
	ExpiresAt     time.Time   `json:"expires_at,omitzero"`
	Permissions   []string    `json:"permissions"`
	TenantIDs     []uuid.UUID `json:"tenant_ids"`
}

// Inactive is the response for every rejected token.
func Inactive() Result {
	return Result{
		Permissions: []string{},
		TenantIDs:   []uuid.UUID{},
	}
}
