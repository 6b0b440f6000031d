package introspect

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

type stubVerifier struct {
	claims *jwt.Claims
	err    error
}

func (s stubVerifier) Verify(string, jwt.TokenType) (*jwt.Claims, error) { return s.claims, s.err }

type stubRevocation struct{ blacklisted bool }

func (s stubRevocation) IsBlacklisted(context.Context, string) (bool, error) {
	return s.blacklisted, nil
}

func (stubRevocation) IsActive(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

type stubUsers struct{ user *rbac.User }

func (s stubUsers) GetUser(context.Context, uuid.UUID) (*rbac.User, error) {
	if s.user == nil {
		return nil, rbac.NotFoundError(rbac.ErrUserNotFound)
	}
	return s.user, nil
}

func TestIntrospect_CountsOutcomes(t *testing.T) {
	userID := uuid.New()
	claims := &jwt.Claims{Type: jwt.TokenTypeAccess}
	claims.Subject = userID.String()
	claims.ID = "01JTESTTOKEN"

	active := &rbac.User{ID: userID, Status: rbac.UserStatusActive}
	suspended := &rbac.User{ID: userID, Status: rbac.UserStatusSuspended}

	tests := []struct {
		outcome  string
		verifier TokenVerifier
		revoked  bool
		user     *rbac.User
	}{
		{OutcomeInvalidToken, stubVerifier{err: jwt.ErrInvalidToken}, false, active},
		{OutcomeExpiredToken, stubVerifier{err: jwt.ErrExpiredToken}, false, active},
		{OutcomeBlacklisted, stubVerifier{claims: claims}, true, active},
		{OutcomeUserNotFound, stubVerifier{claims: claims}, false, nil},
		{OutcomeUserInactive, stubVerifier{claims: claims}, false, suspended},
		{OutcomeActive, stubVerifier{claims: claims}, false, active},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			counter := requestsTotal.WithLabelValues(tt.outcome)
			before := testutil.ToFloat64(counter)

			svc := NewService(tt.verifier, stubRevocation{blacklisted: tt.revoked}, stubUsers{user: tt.user})
			res := svc.Introspect(context.Background(), "token", uuid.Nil)

			assert.Equal(t, tt.outcome == OutcomeActive, res.Active)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}
