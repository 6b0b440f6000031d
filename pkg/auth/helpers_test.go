package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
)

const testSecret = "auth-test-secret-key"

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func newTokens(t *testing.T) (*jwt.Service, *clock) {
	t.Helper()
	clk := &clock{now: time.Now().Truncate(time.Second)}
	tokens, err := jwt.New(jwt.Config{SecretKey: testSecret}, jwt.WithClock(clk.Now))
	require.NoError(t, err)
	return tokens, clk
}

func newFlagStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store rbac.Store, email, password string, status rbac.UserStatus) *rbac.User {
	t.Helper()

	u := &rbac.User{Email: email, Status: status}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		u.PasswordHash = string(hash)
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}
