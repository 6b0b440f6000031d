package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authengine/pkg/clientip"
)

func TestResolverIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trusted []string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "remote addr with port",
			trusted: clientip.DefaultHeaders,
			remote:  "203.0.113.7:5123",
			want:    "203.0.113.7",
		},
		{
			name:    "cloudflare header wins",
			trusted: clientip.DefaultHeaders,
			headers: map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"},
			remote:  "10.0.0.1:80",
			want:    "198.51.100.1",
		},
		{
			name:    "first valid forwarded entry",
			trusted: clientip.DefaultHeaders,
			headers: map[string]string{"X-Forwarded-For": "garbage, 198.51.100.9, 10.0.0.2"},
			remote:  "10.0.0.1:80",
			want:    "198.51.100.9",
		},
		{
			name:    "invalid header falls through",
			trusted: clientip.DefaultHeaders,
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			remote:  "10.0.0.1:80",
			want:    "10.0.0.1",
		},
		{
			name:    "untrusted headers ignored",
			trusted: nil,
			headers: map[string]string{"X-Forwarded-For": "198.51.100.2"},
			remote:  "10.0.0.1:80",
			want:    "10.0.0.1",
		},
		{
			name:    "ipv6 remote addr",
			trusted: nil,
			remote:  "[2001:db8::1]:443",
			want:    "2001:db8::1",
		},
		{
			name:    "ipv4 mapped address is unmapped",
			trusted: clientip.DefaultHeaders,
			headers: map[string]string{"X-Real-IP": "::ffff:192.0.2.5"},
			remote:  "10.0.0.1:80",
			want:    "192.0.2.5",
		},
		{
			name:    "remote addr without port",
			trusted: nil,
			remote:  "192.0.2.10",
			want:    "192.0.2.10",
		},
		{
			name:    "unparseable remote addr",
			trusted: nil,
			remote:  "pipe",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, clientip.New(tt.trusted...).IP(req))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	h := clientip.NewFromConfig(clientip.Config{TrustedHeaders: []string{"x-real-ip"}}).
		Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = clientip.FromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "192.0.2.44")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.44", seen)
	assert.Empty(t, clientip.FromContext(context.Background()))
}
