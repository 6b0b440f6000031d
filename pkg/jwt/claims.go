package jwt

import (
	"encoding/json"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenType separates tokens that share the signing key.
type TokenType string

const (
	TokenTypeAccess    TokenType = "access"
	TokenTypeRefresh   TokenType = "refresh"
	TokenTypeMagicLink TokenType = "magic_link"
)

// RoleClaim is one role assignment as embedded in an access token.
// TenantID is a pointer so the wire format can express null.
type RoleClaim struct {
	Name     string  `json:"name"`
	TenantID *string `json:"tenant_id"`
}

// Claims is the payload of every token issued by Service. Access tokens
// always carry email, roles and permissions, empty lists included; the other
// token types leave out whatever is unset.
type Claims struct {
	Email       string      `json:"email,omitempty"`
	Roles       []RoleClaim `json:"roles,omitempty"`
	Permissions []string    `json:"permissions,omitempty"`
	SessionID   *string     `json:"sid"`
	Type        TokenType   `json:"type"`
	Strategy    string      `json:"strategy,omitempty"`
	jwtlib.RegisteredClaims
}

func (c Claims) MarshalJSON() ([]byte, error) {
	type plain Claims
	if c.Type != TokenTypeAccess {
		return json.Marshal(plain(c))
	}

	roles, perms := c.Roles, c.Permissions
	if roles == nil {
		roles = []RoleClaim{}
	}
	if perms == nil {
		perms = []string{}
	}
	return json.Marshal(struct {
		plain
		Email       string      `json:"email"`
		Roles       []RoleClaim `json:"roles"`
		Permissions []string    `json:"permissions"`
	}{plain(c), c.Email, roles, perms})
}

// IssueOption sets optional claims at issuance.
type IssueOption func(*Claims)

// WithStrategy records the authentication strategy that opened the session.
func WithStrategy(name string) IssueOption {
	return func(c *Claims) { c.Strategy = name }
}

// Session returns the session id or an empty string when the token has none.
func (c *Claims) Session() string {
	if c.SessionID == nil {
		return ""
	}
	return *c.SessionID
}
