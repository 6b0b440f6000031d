// Package jwt issues and verifies the HS256 tokens used by the auth engine.
//
// Tokens are signed with github.com/golang-jwt/jwt/v5. Every token carries the
// registered claims iss, aud, sub, iat, exp and a ULID jti, plus a type claim
// that separates access, refresh and magic-link tokens. Access tokens also
// carry a snapshot of the user's roles and permissions; consumers that need
// live authorization must go through introspection instead.
//
// # Usage
//
//	import "github.com/dmitrymomot/authengine/pkg/jwt"
//
//	svc, err := jwt.New(cfg)
//	if err != nil {
//	    // missing secret
//	}
//
//	access, err := svc.IssueAccessToken(user, sessionID)
//	claims, err := svc.Verify(access, jwt.TokenTypeAccess)
//	switch {
//	case errors.Is(err, jwt.ErrExpiredToken):
//	case errors.Is(err, jwt.ErrWrongTokenType):
//	case errors.Is(err, jwt.ErrInvalidToken):
//	}
//
// Middleware verifies bearer access tokens on incoming requests and stores the
// claims in the request context, where GetClaims retrieves them.
package jwt
