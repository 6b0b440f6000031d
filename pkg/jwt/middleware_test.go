package jwt_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/jwt"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	user := testUser()

	access, err := svc.IssueAccessToken(user, "sess-1")
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(user, "sess-1")
	require.NoError(t, err)

	handler := jwt.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.GetClaims(r.Context())
		if !ok {
			http.Error(w, "no claims", http.StatusInternalServerError)
			return
		}
		token, _ := jwt.GetToken(r.Context())
		if token != access {
			http.Error(w, "token mismatch", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(claims.Subject))
	}))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid bearer", "Bearer " + access, http.StatusOK, user.ID.String()},
		{"lowercase scheme", "bearer " + access, http.StatusOK, user.ID.String()},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized, ""},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestMiddlewareCustomExtractor(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	access, err := svc.IssueAccessToken(testUser(), "")
	require.NoError(t, err)

	handler := jwt.Middleware(svc, jwt.WithExtractor(jwt.HeaderTokenExtractor("X-Access-Token")))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Access-Token", access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareOptions(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	user := testUser()
	access, err := svc.IssueAccessToken(user, "")
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(user, "")
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("custom error handler receives cause", func(t *testing.T) {
		t.Parallel()

		var got error
		handler := jwt.Middleware(svc, jwt.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusTeapot)
		}))(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.True(t, errors.Is(got, jwt.ErrWrongTokenType))
	})

	t.Run("refresh token type", func(t *testing.T) {
		t.Parallel()

		handler := jwt.Middleware(svc, jwt.WithTokenType(jwt.TokenTypeRefresh))(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("nil service panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { jwt.Middleware(nil) })
	})
}
