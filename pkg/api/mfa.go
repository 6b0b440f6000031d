package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/logger"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

const pendingEnrollmentTTL = 10 * time.Minute

type mfaConfig struct {
	box   *totp.SecretBox
	cfg   totp.Config
	store session.Store
}

func mfaSecretKey(userID uuid.UUID) string  { return "mfa:secret:" + userID.String() }
func mfaPendingKey(userID uuid.UUID) string { return "mfa:pending:" + userID.String() }

// enrolledSecret returns the user's encrypted secret, or "" when MFA is off.
func (h *Handler) enrolledSecret(ctx context.Context, userID uuid.UUID) (string, error) {
	if h.mfa == nil {
		return "", nil
	}
	v, err := h.mfa.store.Get(ctx, mfaSecretKey(userID))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// checkSecondFactor requires a valid code from users with an enrolled secret.
func (h *Handler) checkSecondFactor(r *http.Request, user *rbac.User, code string) error {
	secret, err := h.enrolledSecret(r.Context(), user.ID)
	if err != nil || secret == "" {
		return err
	}
	if code == "" {
		return ErrMFARequired
	}
	_, err = h.auth.Authenticate(r.Context(), auth.TOTPCredentials{
		UserID:          user.ID,
		EncryptedSecret: secret,
		Code:            code,
	})
	return err
}

// EnrollmentResponse is shown once when the user starts TOTP enrollment.
type EnrollmentResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

// enrollMFA generates a pending secret. It becomes active after confirmMFA.
func (h *Handler) enrollMFA(w http.ResponseWriter, r *http.Request) {
	if h.mfa == nil {
		h.writeError(w, r, ErrMFADisabled)
		return
	}
	ctx := r.Context()
	actor := actorFrom(ctx)

	e, err := totp.NewEnrollment(h.mfa.box, h.mfa.cfg, actor.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.mfa.store.Set(ctx, mfaPendingKey(actor.ID), []byte(e.EncryptedSecret), pendingEnrollmentTTL); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, EnrollmentResponse{
		Secret: e.Secret,
		URI:    e.URI,
		QRCode: e.QRCodeDataURI(),
	})
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) confirmMFA(w http.ResponseWriter, r *http.Request) {
	if h.mfa == nil {
		h.writeError(w, r, ErrMFADisabled)
		return
	}
	ctx := r.Context()
	actor := actorFrom(ctx)

	var req mfaCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	pending, err := h.mfa.store.Get(ctx, mfaPendingKey(actor.ID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if pending == nil {
		h.writeError(w, r, ErrMFANotEnrolled)
		return
	}

	if _, err := h.auth.Authenticate(ctx, auth.TOTPCredentials{
		UserID:          actor.ID,
		EncryptedSecret: string(pending),
		Code:            req.Code,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.mfa.store.Set(ctx, mfaSecretKey(actor.ID), pending, 0); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.mfa.store.Delete(ctx, mfaPendingKey(actor.ID)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "mfa enabled", logger.UserID(actor.ID))
	w.WriteHeader(http.StatusNoContent)
}

// disableMFA removes the secret after checking a current code.
func (h *Handler) disableMFA(w http.ResponseWriter, r *http.Request) {
	if h.mfa == nil {
		h.writeError(w, r, ErrMFADisabled)
		return
	}
	ctx := r.Context()
	actor := actorFrom(ctx)

	var req mfaCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	secret, err := h.enrolledSecret(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if secret == "" {
		h.writeError(w, r, ErrMFANotEnrolled)
		return
	}

	if _, err := h.auth.Authenticate(ctx, auth.TOTPCredentials{
		UserID:          actor.ID,
		EncryptedSecret: secret,
		Code:            req.Code,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.mfa.store.Delete(ctx, mfaSecretKey(actor.ID)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "mfa disabled", logger.UserID(actor.ID))
	w.WriteHeader(http.StatusNoContent)
}
