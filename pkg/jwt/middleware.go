package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls the raw token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// ErrorHandler writes the response for a request without a usable token.
// err wraps ErrInvalidToken, ErrExpiredToken or ErrWrongTokenType.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	service   *Service
	extract   TokenExtractorFunc
	onError   ErrorHandler
	tokenType TokenType
}

// WithExtractor changes where the token is read from. Default: BearerTokenExtractor.
func WithExtractor(fn TokenExtractorFunc) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.extract = fn
		}
	}
}

// WithErrorHandler replaces the plain-text 401 response.
func WithErrorHandler(fn ErrorHandler) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.onError = fn
		}
	}
}

// WithTokenType sets the token type the middleware accepts. Default: access.
func WithTokenType(t TokenType) MiddlewareOption {
	return func(m *middleware) {
		m.tokenType = t
	}
}

// Middleware verifies the token on each request and stores it with its claims
// in the request context.
func Middleware(service *Service, opts ...MiddlewareOption) func(next http.Handler) http.Handler {
	if service == nil {
		panic("jwt: service cannot be nil")
	}

	m := &middleware{
		service:   service,
		extract:   BearerTokenExtractor,
		onError:   unauthorized,
		tokenType: TokenTypeAccess,
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := m.extract(r)
			if err != nil {
				m.onError(w, r, err)
				return
			}

			claims, err := m.service.Verify(token, m.tokenType)
			if err != nil {
				m.onError(w, r, err)
				return
			}

			ctx := SetClaims(SetToken(r.Context(), token), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// BearerTokenExtractor reads "Authorization: Bearer <token>". The scheme is
// case-insensitive.
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// HeaderTokenExtractor reads the raw token from a custom header.
func HeaderTokenExtractor(header string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		if token := strings.TrimSpace(r.Header.Get(header)); token != "" {
			return token, nil
		}
		return "", ErrInvalidToken
	}
}
