package handlers

import (
	"net/http"

	"hostel-pg/middleware"
	"hostel-pg/models"
)

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFrom(r.Context())
	view, err := h.svc.Tenants.View(r.Context(), session.UID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, view)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	tenant, err := h.svc.Tenants.UpdateProfile(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) SubmitForApproval(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.svc.Tenants.SubmitForApproval(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Submitted for approval",
		"status":       tenant.Status,
		"capabilities": models.CapabilitiesFor(tenant.Status),
	})
}

func (h *Handlers) GetMyPayments(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFrom(r.Context())
	if !models.CapabilitiesFor(session.Status).ViewPayments {
		sendError(w, http.StatusForbidden, "Payments are available once you are checked in", nil)
		return
	}
	payments, err := h.svc.Billing.ListForTenant(r.Context(), session.UID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, payments)
}
