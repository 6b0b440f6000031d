// Package api exposes the engine over HTTP with a chi router.
//
// Public endpoints:
//
//	POST /v1/introspect                  token liveness and permissions (optional X-API-Key)
//	POST /v1/auth/login                  email + password (+ totp_code when enrolled)
//	POST /v1/auth/refresh                rotate the token pair of a live session
//	POST /v1/auth/magic-link             send a one-time login link
//	POST /v1/auth/magic-link/verify      consume the link
//	GET  /v1/auth/oauth/{provider}       redirect to the provider
//	GET  /v1/auth/oauth/{provider}/callback
//
// Endpoints behind a live access token:
//
//	POST   /v1/auth/logout
//	GET    /v1/me, /v1/me/sessions
//	DELETE /v1/me/sessions/{sessionID}
//	POST   /v1/me/mfa/enroll, /v1/me/mfa/confirm
//	DELETE /v1/me/mfa
//	GET    /v1/roles
//	POST   /v1/tenants
//	PUT    /v1/tenants/{tenantID}/users/{userID}/roles/{role}
//	DELETE /v1/tenants/{tenantID}/users/{userID}/roles/{role}
//	PUT    /v1/users/{userID}/status
//
// The four unauthenticated credential endpoints share a per client IP token
// bucket when WithRateLimiter is set.
//
// Responses use the {"data": ...} / {"error": {"code": ...}} envelope, except
// introspection which returns the result object itself and always answers 200
// for a well-formed call.
package api
