package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/logger"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type registerResponse struct {
	User             *rbac.User `json:"user"`
	VerificationSent bool       `json:"verification_sent"`
}

// register creates a PENDING_VERIFICATION account. When magic links are
// enabled a link is mailed; verifying it activates the account.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := auth.NewAccount(auth.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, h.passwordCost)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered", logger.UserID(user.ID))

	writeData(w, http.StatusCreated, registerResponse{
		User:             user,
		VerificationSent: h.sendVerification(r, user.Email),
	})
}

// sendVerification mails a magic link to a new account. Failures are logged
// only; the user can ask for another link.
func (h *Handler) sendVerification(r *http.Request, email string) bool {
	ctx := r.Context()

	ml, ok := h.auth.MagicLink()
	if !ok {
		return false
	}
	token, err := ml.Issue(ctx, email)
	if err == nil {
		err = h.links.SendMagicLink(ctx, email, token)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "verification link not sent", logger.Error(err))
		return false
	}
	return true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Authenticate(r.Context(), auth.PasswordCredentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.checkSecondFactor(r, res.User, req.TOTPCode); err != nil {
		h.writeError(w, r, err)
		return
	}

	tokens, err := h.startSession(r.Context(), r, res.User, res.Strategy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refresh rotates the token pair of a live session. The presented refresh
// token is blacklisted so it cannot be replayed.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	claims, err := h.tokens.Verify(req.RefreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		h.writeError(w, r, errors.Join(jwt.ErrInvalidToken, err))
		return
	}
	sessionID, err := uuid.Parse(claims.Session())
	if err != nil {
		h.writeError(w, r, errors.Join(jwt.ErrInvalidToken, err))
		return
	}

	revoked, err := h.sessions.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	active, err := h.sessions.IsActive(ctx, userID, sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if revoked || !active {
		h.writeError(w, r, ErrSessionRevoked)
		return
	}

	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			err = ErrSessionRevoked
		}
		h.writeError(w, r, err)
		return
	}
	if !user.IsActive() {
		h.writeError(w, r, auth.ErrAccountInactive)
		return
	}

	if claims.ExpiresAt != nil {
		if err := h.sessions.BlacklistUntil(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	tokens, err := h.issuePair(user, sessionID, claims.Strategy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tokens)
}

// logout ends the session of the presented access token and blacklists it.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := jwt.GetClaims(ctx)
	actor := actorFrom(ctx)

	if sid, err := uuid.Parse(claims.Session()); err == nil {
		if _, err := h.sessions.Revoke(ctx, actor.ID, sid); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := h.sessions.BlacklistUntil(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	h.logger.InfoContext(ctx, "user logged out",
		logger.UserID(actor.ID),
		logger.SessionID(claims.Session()),
	)
	w.WriteHeader(http.StatusNoContent)
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// requestMagicLink always answers 202 so the endpoint does not reveal which
// emails have accounts.
func (h *Handler) requestMagicLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ml, ok := h.auth.MagicLink()
	if !ok {
		h.writeError(w, r, auth.ErrUnsupported)
		return
	}

	var req magicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		h.writeError(w, r, auth.ErrMissingCredentials)
		return
	}

	if _, err := h.users.GetUserByEmail(ctx, email); err != nil {
		if !errors.Is(err, rbac.ErrNotFound) {
			h.writeError(w, r, err)
			return
		}
		h.logger.DebugContext(ctx, "magic link requested for unknown email")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	token, err := ml.Issue(ctx, email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.links.SendMagicLink(ctx, email, token); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type verifyMagicLinkRequest struct {
	Token string `json:"token"`
}

// verifyMagicLink consumes the link and logs the user in. A pending account
// is activated since the link proves control of the address.
func (h *Handler) verifyMagicLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyMagicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Authenticate(ctx, auth.MagicLinkCredentials{Token: req.Token})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user := res.User
	if user.Status == rbac.UserStatusPendingVerification {
		if err := h.users.UpdateUserStatus(ctx, user.ID, rbac.UserStatusActive); err != nil {
			h.writeError(w, r, err)
			return
		}
		if user, err = h.users.GetUser(ctx, user.ID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	tokens, err := h.startSession(ctx, r, user, res.Strategy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tokens)
}

// oauthBegin redirects to the provider's consent page.
func (h *Handler) oauthBegin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.auth.OAuth(chi.URLParam(r, "provider"))
	if !ok {
		h.writeError(w, r, auth.ErrUnknownStrategy)
		return
	}

	target, _, err := s.Begin(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// oauthCallback completes the code flow. The profile email links to an
// existing account or creates a new active one.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	res, err := h.auth.Authenticate(ctx, auth.OAuthCredentials{
		Provider: chi.URLParam(r, "provider"),
		Code:     q.Get("code"),
		State:    q.Get("state"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userForProfile(r, res.Profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tokens, err := h.startSession(ctx, r, user, res.Strategy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.oauthSuccess != "" {
		fragment := url.Values{
			"access_token":  {tokens.AccessToken},
			"refresh_token": {tokens.RefreshToken},
			"token_type":    {tokens.TokenType},
		}
		http.Redirect(w, r, h.oauthSuccess+"#"+fragment.Encode(), http.StatusFound)
		return
	}
	writeData(w, http.StatusOK, tokens)
}

func (h *Handler) userForProfile(r *http.Request, p *auth.ProviderProfile) (*rbac.User, error) {
	ctx := r.Context()

	user, err := h.users.GetUserByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if !user.IsActive() {
			return nil, auth.ErrAccountInactive
		}
		return user, nil
	case !errors.Is(err, rbac.ErrNotFound):
		return nil, err
	}

	user = &rbac.User{
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		AvatarURL:     p.AvatarURL,
		EmailVerified: p.EmailVerified,
		Status:        rbac.UserStatusActive,
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "user created from oauth profile",
		logger.UserID(user.ID),
		logger.Strategy(p.Provider),
	)
	return h.users.GetUser(ctx, user.ID)
}
