// Package auth implements the login strategies that establish who a user is
// before a session and tokens are issued.
//
// Four strategies are available:
//
//   - PasswordStrategy: email and bcrypt password, constant-time on unknown emails
//   - OAuthStrategy: authorization code flow for Google, GitHub and Microsoft
//   - MagicLinkStrategy: single-use signed link with a 15 minute default lifetime
//   - TOTPStrategy: second-factor code against an encrypted TOTP secret
//
// An Authenticator holds the configured strategies and routes credentials to
// the right one by their type:
//
//	a := auth.NewAuthenticator(auth.WithStrategies(
//	    auth.NewPasswordStrategy(store, tokens),
//	    auth.NewGoogleStrategy(cfg.Google, tokens, auth.WithStateStore(kv)),
//	))
//
//	res, err := a.Authenticate(ctx, auth.PasswordCredentials{Email: email, Password: pw})
//	if errors.Is(err, auth.ErrInvalidCredentials) {
//	    // 401
//	}
//
// OAuth results carry a ProviderProfile rather than an account; linking the
// profile to a user is left to the caller.
package auth
