package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/httpserver"
)

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serveHealth(t *testing.T, h http.Handler) (int, healthBody) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body healthBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	code, body := serveHealth(t, httpserver.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body.Status)
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }}
	failing := httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("down") }}

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		code, body := serveHealth(t, httpserver.ReadinessHandler(log, ok))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok"}, body.Checks)
	})

	t.Run("one fails", func(t *testing.T) {
		t.Parallel()
		code, body := serveHealth(t, httpserver.ReadinessHandler(log, ok, failing))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "error"}, body.Checks)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		code, _ := serveHealth(t, httpserver.ReadinessHandler(nil, failing))
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}
