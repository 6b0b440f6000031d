package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
)

var (
	ErrInvalidJSON          = errors.New("api.invalid_json")
	ErrUnsupportedMediaType = errors.New("api.unsupported_media_type")
	ErrInvalidParameter     = errors.New("api.invalid_parameter")
	ErrUnauthorized         = errors.New("api.unauthorized")
	ErrInvalidAPIKey        = errors.New("api.invalid_api_key")
	ErrSessionRevoked       = errors.New("api.session_revoked")
	ErrMFARequired          = errors.New("api.mfa_required")
	ErrMFANotEnrolled       = errors.New("api.mfa_not_enrolled")
	ErrMFADisabled          = errors.New("api.mfa_disabled")
	ErrAuditUnavailable     = errors.New("api.audit_unavailable")
)

// statusFor maps domain errors onto HTTP status codes. The first match wins,
// so specific errors come before the ones they are joined with.
var statusFor = []struct {
	err    error
	status int
}{
	{ErrInvalidJSON, http.StatusBadRequest},
	{ErrInvalidParameter, http.StatusBadRequest},
	{ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrInvalidAPIKey, http.StatusUnauthorized},
	{ErrSessionRevoked, http.StatusUnauthorized},
	{ErrMFARequired, http.StatusUnauthorized},
	{ErrMFANotEnrolled, http.StatusConflict},
	{ErrMFADisabled, http.StatusNotFound},
	{ErrAuditUnavailable, http.StatusNotFound},

	{rbac.ErrProtectedRole, http.StatusForbidden},
	{rbac.ErrRoleNotFound, http.StatusNotFound},
	{rbac.ErrTenantNotFound, http.StatusNotFound},
	{rbac.ErrUserNotFound, http.StatusNotFound},
	{rbac.ErrNotFound, http.StatusNotFound},
	{rbac.ErrScopeMismatch, http.StatusUnprocessableEntity},
	{rbac.ErrForbidden, http.StatusForbidden},
	{rbac.ErrInsufficientLevel, http.StatusForbidden},
	{rbac.ErrAlreadyExists, http.StatusConflict},
	{rbac.ErrInvalidStatus, http.StatusBadRequest},
	{rbac.ErrInvalidTenant, http.StatusBadRequest},

	{auth.ErrMissingCredentials, http.StatusBadRequest},
	{auth.ErrInvalidEmail, http.StatusUnprocessableEntity},
	{auth.ErrWeakPassword, http.StatusUnprocessableEntity},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrAccountInactive, http.StatusForbidden},
	{auth.ErrUserNotFound, http.StatusUnauthorized},
	{auth.ErrUnknownStrategy, http.StatusNotFound},
	{auth.ErrUnsupported, http.StatusNotFound},
	{auth.ErrInvalidState, http.StatusBadRequest},
	{auth.ErrInvalidCode, http.StatusUnauthorized},
	{auth.ErrProfileFetch, http.StatusBadGateway},
	{auth.ErrNoPrimaryEmail, http.StatusUnprocessableEntity},
	{auth.ErrUnverifiedEmail, http.StatusForbidden},
	{auth.ErrMagicLinkExpired, http.StatusUnauthorized},
	{auth.ErrMagicLinkInvalid, http.StatusUnauthorized},
	{auth.ErrMagicLinkUsed, http.StatusUnauthorized},
	{auth.ErrInvalidTOTPCode, http.StatusUnauthorized},

	{jwt.ErrExpiredToken, http.StatusUnauthorized},
	{jwt.ErrWrongTokenType, http.StatusUnauthorized},
	{jwt.ErrInvalidToken, http.StatusUnauthorized},

	{session.ErrSessionNotFound, http.StatusNotFound},

	{audit.ErrStorageNotAvailable, http.StatusServiceUnavailable},

	{ratelimiter.ErrLimitExceeded, http.StatusTooManyRequests},
	{ratelimiter.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

// errorStatus returns the HTTP status for err, defaulting to 500.
func errorStatus(err error) int {
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// errorCode returns the public error code for err. Internal errors never
// leak their text.
func errorCode(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal_error"
	}
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			return m.err.Error()
		}
	}
	return "internal_error"
}
