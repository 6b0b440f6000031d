package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("auth.missing_credentials")
	ErrInvalidCredentials = errors.New("auth.invalid_credentials")
	ErrAccountInactive    = errors.New("auth.account_inactive")
	ErrUserNotFound       = errors.New("auth.user_not_found")
	ErrUnsupported        = errors.New("auth.unsupported")
	ErrUnknownStrategy    = errors.New("auth.unknown_strategy")
	ErrInvalidToken       = errors.New("auth.invalid_token")
	ErrInvalidEmail       = errors.New("auth.invalid_email")
	ErrWeakPassword       = errors.New("auth.weak_password")
)

// OAuth errors
var (
	ErrInvalidState    = errors.New("auth.oauth.invalid_state")
	ErrInvalidCode     = errors.New("auth.oauth.invalid_code")
	ErrProfileFetch    = errors.New("auth.oauth.profile_fetch_failed")
	ErrNoPrimaryEmail  = errors.New("auth.oauth.no_primary_email")
	ErrUnverifiedEmail = errors.New("auth.oauth.unverified_email")
)

// Magic link errors
var (
	ErrMagicLinkExpired = errors.New("auth.magic_link.expired")
	ErrMagicLinkInvalid = errors.New("auth.magic_link.invalid")
	ErrMagicLinkUsed    = errors.New("auth.magic_link.already_used")
)

// TOTP errors
var (
	ErrInvalidTOTPCode = errors.New("auth.totp.invalid_code")
)
