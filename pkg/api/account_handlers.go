package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/session"
)

// Profile is the authenticated user's own view.
type Profile struct {
	*rbac.User
	Permissions []string    `json:"permissions"`
	TenantIDs   []uuid.UUID `json:"tenant_ids"`
	MFAEnabled  bool        `json:"mfa_enabled"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)

	tenantID, err := optionalUUID(r.URL.Query().Get("tenant_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	secret, err := h.enrolledSecret(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, Profile{
		User:        actor,
		Permissions: rbac.Permissions(actor, tenantID),
		TenantIDs:   rbac.TenantIDs(actor),
		MFAEnabled:  secret != "",
	})
}

// SessionView is a session as listed to its owner.
type SessionView struct {
	session.Session
	Current bool `json:"current"`
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	claims, _ := jwt.GetClaims(ctx)

	sessions, err := h.sessions.List(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	views := make([]SessionView, len(sessions))
	for i, s := range sessions {
		views[i] = SessionView{Session: s, Current: s.ID.String() == claims.Session()}
	}
	writeData(w, http.StatusOK, views)
}

func (h *Handler) revokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)

	sid, err := pathUUID(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ok, err := h.sessions.Revoke(ctx, actor.ID, sid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeError(w, r, session.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.rbac.ListTenantRoles(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, roles)
}

type createTenantRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tenant, err := h.rbac.CreateTenant(r.Context(), actorFrom(r.Context()), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, tenant)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, err := assignmentParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.rbac.AssignRole(r.Context(), actorFrom(r.Context()), userID, chi.URLParam(r, "role"), tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, err := assignmentParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	removed, err := h.rbac.RemoveRole(r.Context(), actorFrom(r.Context()), userID, chi.URLParam(r, "role"), tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"removed": removed})
}

type setStatusRequest struct {
	Status rbac.UserStatus `json:"status"`
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.rbac.SetUserStatus(r.Context(), actorFrom(r.Context()), userID, req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
