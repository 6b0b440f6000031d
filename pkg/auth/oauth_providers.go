package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Default profile endpoints.
const (
	GoogleUserInfoURL    = "https://www.googleapis.com/oauth2/v3/userinfo"
	GitHubUserURL        = "https://api.github.com/user"
	GitHubEmailsURL      = "https://api.github.com/user/emails"
	MicrosoftUserInfoURL = "https://graph.microsoft.com/v1.0/me"
)

// NewGoogleStrategy creates the Google sign-in strategy.
func NewGoogleStrategy(cfg OAuthProviderConfig, tokens TokenVerifier, opts ...OAuthOption) *OAuthStrategy {
	conf := oauthConfig(cfg, google.Endpoint, []string{"openid", "email", "profile"})
	return NewOAuthStrategy(ProviderGoogle, conf, GoogleProfileFetcher{URL: GoogleUserInfoURL}, tokens, opts...)
}

// NewGitHubStrategy creates the GitHub sign-in strategy.
func NewGitHubStrategy(cfg OAuthProviderConfig, tokens TokenVerifier, opts ...OAuthOption) *OAuthStrategy {
	conf := oauthConfig(cfg, github.Endpoint, []string{"read:user", "user:email"})
	return NewOAuthStrategy(ProviderGitHub, conf, GitHubProfileFetcher{UserURL: GitHubUserURL, EmailsURL: GitHubEmailsURL}, tokens, opts...)
}

// NewMicrosoftStrategy creates the Microsoft identity platform strategy for
// personal and work accounts.
func NewMicrosoftStrategy(cfg OAuthProviderConfig, tokens TokenVerifier, opts ...OAuthOption) *OAuthStrategy {
	conf := oauthConfig(cfg, microsoft.AzureADEndpoint("common"), []string{"openid", "email", "profile", "User.Read"})
	return NewOAuthStrategy(ProviderMicrosoft, conf, MicrosoftProfileFetcher{URL: MicrosoftUserInfoURL}, tokens, opts...)
}

func oauthConfig(cfg OAuthProviderConfig, endpoint oauth2.Endpoint, defaultScopes []string) *oauth2.Config {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}
}

// GoogleProfileFetcher reads the OpenID Connect userinfo endpoint.
type GoogleProfileFetcher struct {
	URL string
}

func (f GoogleProfileFetcher) FetchProfile(ctx context.Context, client *http.Client) (ProviderProfile, error) {
	var u struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := getJSON(ctx, client, f.URL, nil, &u); err != nil {
		return ProviderProfile{}, err
	}
	return ProviderProfile{
		ProviderUserID: u.Sub,
		Email:          u.Email,
		EmailVerified:  u.EmailVerified,
		FirstName:      u.GivenName,
		LastName:       u.FamilyName,
		AvatarURL:      u.Picture,
		DisplayName:    u.Name,
	}, nil
}

// GitHubProfileFetcher reads /user and, since profile emails can be private,
// picks the verified address from /user/emails, preferring the primary one.
type GitHubProfileFetcher struct {
	UserURL   string
	EmailsURL string
}

var githubHeaders = map[string]string{
	"Accept":               "application/vnd.github+json",
	"X-GitHub-Api-Version": "2022-11-28",
}

func (f GitHubProfileFetcher) FetchProfile(ctx context.Context, client *http.Client) (ProviderProfile, error) {
	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, f.UserURL, githubHeaders, &u); err != nil {
		return ProviderProfile{}, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, f.EmailsURL, githubHeaders, &emails); err != nil {
		return ProviderProfile{}, err
	}

	var email string
	for _, e := range emails {
		if e.Verified && (e.Primary || email == "") {
			email = e.Email
		}
	}
	if email == "" {
		return ProviderProfile{}, ErrNoPrimaryEmail
	}

	display := u.Name
	if display == "" {
		display = u.Login
	}
	first, last, _ := strings.Cut(display, " ")

	return ProviderProfile{
		ProviderUserID: strconv.FormatInt(u.ID, 10),
		Email:          email,
		EmailVerified:  true,
		FirstName:      first,
		LastName:       last,
		AvatarURL:      u.AvatarURL,
		DisplayName:    display,
	}, nil
}

// MicrosoftProfileFetcher reads Microsoft Graph /me. Work accounts carry the
// address in mail, personal ones often only in userPrincipalName.
type MicrosoftProfileFetcher struct {
	URL string
}

func (f MicrosoftProfileFetcher) FetchProfile(ctx context.Context, client *http.Client) (ProviderProfile, error) {
	var u struct {
		ID                string `json:"id"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		GivenName         string `json:"givenName"`
		Surname           string `json:"surname"`
		DisplayName       string `json:"displayName"`
	}
	if err := getJSON(ctx, client, f.URL, nil, &u); err != nil {
		return ProviderProfile{}, err
	}

	email := u.Mail
	if email == "" && strings.Contains(u.UserPrincipalName, "@") {
		email = u.UserPrincipalName
	}

	return ProviderProfile{
		ProviderUserID: u.ID,
		Email:          email,
		EmailVerified:  u.Mail != "",
		FirstName:      u.GivenName,
		LastName:       u.Surname,
		DisplayName:    u.DisplayName,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
