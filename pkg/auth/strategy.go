package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// Strategy names.
const (
	StrategyPassword  = "password"
	StrategyMagicLink = "magic_link"
	StrategyTOTP      = "totp"

	ProviderGoogle    = "google"
	ProviderGitHub    = "github"
	ProviderMicrosoft = "microsoft"
)

// Strategy is one way of proving identity. The set is closed: PasswordStrategy,
// OAuthStrategy, MagicLinkStrategy and TOTPStrategy.
type Strategy interface {
	// Name identifies the strategy. OAuth strategies use the provider name.
	Name() string
	// Validate checks a token previously produced for this strategy.
	Validate(ctx context.Context, token string) (*jwt.Claims, error)

	strategy()
}

// Credentials is the input of Authenticator.Authenticate. The concrete type
// selects the strategy.
type Credentials interface {
	credentials()
}

// PasswordCredentials is an email and password pair.
type PasswordCredentials struct {
	Email    string
	Password string
}

// OAuthCredentials is the provider callback: authorization code plus state.
type OAuthCredentials struct {
	Provider string
	Code     string
	State    string
}

// MagicLinkCredentials carries the token from the emailed link.
type MagicLinkCredentials struct {
	Token string
}

// TOTPCredentials is a code checked against the user's stored encrypted secret.
type TOTPCredentials struct {
	UserID          uuid.UUID
	EncryptedSecret string
	Code            string
}

func (PasswordCredentials) credentials()  {}
func (OAuthCredentials) credentials()     {}
func (MagicLinkCredentials) credentials() {}
func (TOTPCredentials) credentials()      {}

// Result is the outcome of a successful authentication. User is set by the
// password and magic link strategies, Profile by OAuth. TOTP only confirms
// the second factor.
type Result struct {
	Strategy        string
	User            *rbac.User
	Profile         *ProviderProfile
	AuthenticatedAt time.Time
}

// UserFinder loads accounts. rbac.Store implements it.
type UserFinder interface {
	GetUser(ctx context.Context, id uuid.UUID) (*rbac.User, error)
	GetUserByEmail(ctx context.Context, email string) (*rbac.User, error)
}

// TokenVerifier verifies tokens signed by this service. *jwt.Service implements it.
type TokenVerifier interface {
	Verify(token string, expected jwt.TokenType) (*jwt.Claims, error)
}

// TokenIssuer signs arbitrary claims. *jwt.Service implements it.
type TokenIssuer interface {
	TokenVerifier
	Issue(claims jwt.Claims, ttl time.Duration) (string, error)
}
