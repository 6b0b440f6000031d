package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/session"
)

const (
	oauthStatePrefix       = "oauth:state:"
	defaultOAuthStateTTL   = 10 * time.Minute
	defaultProviderTimeout = 10 * time.Second
)

// OAuthProviderConfig holds one provider's client registration. It is meant
// to be embedded with an env prefix, e.g. `envPrefix:"GOOGLE_OAUTH_"`.
type OAuthProviderConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURL  string   `env:"REDIRECT_URL"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
}

// Enabled reports whether the provider is configured.
func (c OAuthProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ProviderProfile is the normalized identity returned by a provider.
type ProviderProfile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	FirstName      string
	LastName       string
	AvatarURL      string
	DisplayName    string
}

// ProfileFetcher reads the user's profile with a client that already carries
// the provider access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, client *http.Client) (ProviderProfile, error)
}

// ProfileFetcherFunc adapts a function to ProfileFetcher.
type ProfileFetcherFunc func(ctx context.Context, client *http.Client) (ProviderProfile, error)

func (f ProfileFetcherFunc) FetchProfile(ctx context.Context, client *http.Client) (ProviderProfile, error) {
	return f(ctx, client)
}

// OAuthStrategy is the authorization code flow for one provider.
type OAuthStrategy struct {
	provider     string
	conf         *oauth2.Config
	fetcher      ProfileFetcher
	tokens       TokenVerifier
	states       session.Store
	stateTTL     time.Duration
	verifiedOnly bool
	httpClient   *http.Client
}

// OAuthOption configures an OAuthStrategy.
type OAuthOption func(*OAuthStrategy)

// WithStateStore enables server-side CSRF state: Begin stores the state and
// Authenticate consumes it once.
func WithStateStore(store session.Store) OAuthOption {
	return func(s *OAuthStrategy) {
		s.states = store
	}
}

// WithStateTTL sets how long an issued state stays valid.
func WithStateTTL(ttl time.Duration) OAuthOption {
	return func(s *OAuthStrategy) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

// WithVerifiedOnly rejects profiles whose email the provider has not verified.
func WithVerifiedOnly(verifiedOnly bool) OAuthOption {
	return func(s *OAuthStrategy) {
		s.verifiedOnly = verifiedOnly
	}
}

// WithHTTPClient sets the client used for the code exchange and profile fetch.
func WithHTTPClient(client *http.Client) OAuthOption {
	return func(s *OAuthStrategy) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewOAuthStrategy creates a strategy for provider using conf for the code
// exchange and fetcher for the profile.
func NewOAuthStrategy(provider string, conf *oauth2.Config, fetcher ProfileFetcher, tokens TokenVerifier, opts ...OAuthOption) *OAuthStrategy {
	s := &OAuthStrategy{
		provider:   provider,
		conf:       conf,
		fetcher:    fetcher,
		tokens:     tokens,
		stateTTL:   defaultOAuthStateTTL,
		httpClient: &http.Client{Timeout: defaultProviderTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OAuthStrategy) Name() string { return s.provider }
func (s *OAuthStrategy) strategy()    {}

// AuthCodeURL returns the provider's authorization URL for state.
func (s *OAuthStrategy) AuthCodeURL(state string) string {
	return s.conf.AuthCodeURL(state)
}

// Begin generates a state, stores it when a state store is configured and
// returns the authorization URL together with the state.
func (s *OAuthStrategy) Begin(ctx context.Context) (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if s.states != nil {
		if err := s.states.Set(ctx, oauthStatePrefix+state, []byte(s.provider), s.stateTTL); err != nil {
			return "", "", err
		}
	}
	return s.AuthCodeURL(state), state, nil
}

// Authenticate exchanges the authorization code and fetches the profile.
func (s *OAuthStrategy) Authenticate(ctx context.Context, c OAuthCredentials) (*ProviderProfile, error) {
	if c.Code == "" {
		return nil, ErrMissingCredentials
	}

	if s.states != nil {
		if c.State == "" {
			return nil, ErrInvalidState
		}
		v, err := s.states.Take(ctx, oauthStatePrefix+c.State)
		if err != nil {
			return nil, err
		}
		if v == nil || string(v) != s.provider {
			return nil, ErrInvalidState
		}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	tok, err := s.conf.Exchange(ctx, c.Code)
	if err != nil {
		return nil, errors.Join(ErrInvalidCode, err)
	}

	profile, err := s.fetcher.FetchProfile(ctx, s.conf.Client(ctx, tok))
	if err != nil {
		return nil, errors.Join(ErrProfileFetch, err)
	}

	profile.Provider = s.provider
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" {
		return nil, ErrNoPrimaryEmail
	}
	if s.verifiedOnly && !profile.EmailVerified {
		return nil, ErrUnverifiedEmail
	}
	return &profile, nil
}

// Validate verifies an access token issued after an OAuth login.
func (s *OAuthStrategy) Validate(_ context.Context, token string) (*jwt.Claims, error) {
	return s.tokens.Verify(token, jwt.TokenTypeAccess)
}
