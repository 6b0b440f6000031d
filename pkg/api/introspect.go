package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/introspect"
	"github.com/dmitrymomot/authengine/pkg/jwt"
)

type introspectRequest struct {
	Token    string    `json:"token"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// introspect answers 200 with the bare result for every well-formed call,
// whether or not the token is active. The token may come in the body or as
// a bearer header; tenant_id narrows the permissions.
func (h *Handler) introspect(w http.ResponseWriter, r *http.Request) {
	var req introspectRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Token == "" {
		req.Token, _ = jwt.BearerTokenExtractor(r)
	}

	if req.Token == "" {
		writeJSON(w, http.StatusOK, introspect.Inactive())
		return
	}
	writeJSON(w, http.StatusOK, h.introspector.Introspect(r.Context(), req.Token, req.TenantID))
}
