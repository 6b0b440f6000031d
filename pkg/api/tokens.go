package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/clientip"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
)

// TokenResponse is returned by every login flow.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	SessionID    uuid.UUID `json:"session_id"`
}

// startSession opens a session for user and issues the token pair bound to
// it. strategy names how the user authenticated and is carried in both tokens.
func (h *Handler) startSession(ctx context.Context, r *http.Request, user *rbac.User, strategy string) (*TokenResponse, error) {
	s, err := h.sessions.Create(ctx, user.ID, session.Metadata{
		IPAddress: clientip.FromContext(ctx),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return h.issuePair(user, s.ID, strategy)
}

func (h *Handler) issuePair(user *rbac.User, sessionID uuid.UUID, strategy string) (*TokenResponse, error) {
	access, err := h.tokens.IssueAccessToken(user, sessionID.String(), jwt.WithStrategy(strategy))
	if err != nil {
		return nil, err
	}
	refresh, err := h.tokens.IssueRefreshToken(user, sessionID.String(), jwt.WithStrategy(strategy))
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.tokens.AccessTTL() / time.Second),
		SessionID:    sessionID,
	}, nil
}
