package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/rbac"
)

func (h *Handler) myTenants(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, rbac.Tenants(actorFrom(r.Context())))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.rbac.ListUsers(r.Context(), actorFrom(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

func (h *Handler) listTenantUsers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.rbac.ListTenantUsers(r.Context(), actorFrom(r.Context()), tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

// platformAuditLog lists events across every tenant. tenant_id narrows it
// to one tenant.
func (h *Handler) platformAuditLog(w http.ResponseWriter, r *http.Request) {
	if err := h.rbac.AuthorizeAuditRead(r.Context(), actorFrom(r.Context()), uuid.Nil); err != nil {
		h.writeError(w, r, err)
		return
	}

	criteria, err := auditCriteria(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tenantID, err := optionalUUID(r.URL.Query().Get("tenant_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if tenantID != uuid.Nil {
		criteria.TenantID = tenantID.String()
	}
	h.queryAudit(w, r, criteria)
}

// tenantAuditLog lists the events recorded in one tenant.
func (h *Handler) tenantAuditLog(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.rbac.AuthorizeAuditRead(r.Context(), actorFrom(r.Context()), tenantID); err != nil {
		h.writeError(w, r, err)
		return
	}

	criteria, err := auditCriteria(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	criteria.TenantID = tenantID.String()
	h.queryAudit(w, r, criteria)
}

func (h *Handler) queryAudit(w http.ResponseWriter, r *http.Request, criteria audit.Criteria) {
	if h.auditLog == nil {
		h.writeError(w, r, ErrAuditUnavailable)
		return
	}

	events, err := h.auditLog.Query(r.Context(), criteria)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeData(w, http.StatusOK, events)
}

// auditCriteria reads the filters shared by both audit log endpoints.
func auditCriteria(r *http.Request) (audit.Criteria, error) {
	limit, offset, err := pageParams(r)
	if err != nil {
		return audit.Criteria{}, err
	}

	q := r.URL.Query()
	c := audit.Criteria{
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
		Limit:    limit,
		Offset:   offset,
	}
	for name, dst := range map[string]*string{
		"actor_id":       &c.ActorID,
		"target_user_id": &c.TargetUserID,
	} {
		id, err := optionalUUID(q.Get(name))
		if err != nil {
			return audit.Criteria{}, err
		}
		if id != uuid.Nil {
			*dst = id.String()
		}
	}
	if c.StartTime, err = optionalTime(q.Get("start_time")); err != nil {
		return audit.Criteria{}, err
	}
	if c.EndTime, err = optionalTime(q.Get("end_time")); err != nil {
		return audit.Criteria{}, err
	}
	return c, nil
}
