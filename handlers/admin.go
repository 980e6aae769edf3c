package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hostel-pg/models"
)

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	tenants, err := h.svc.Tenants.List(r.Context(), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, tenants)
}

func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Tenants.View(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, view)
}

func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req models.TenantUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	tenant, err := h.svc.Tenants.UpdateTenant(r.Context(), actor(r), mux.Vars(r)["uid"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.Rooms.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if !decode(w, r, &req) {
		return
	}
	room, err := h.svc.Rooms.Create(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, room)
}

func (h *Handlers) SetRoomCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid room id", nil)
		return
	}
	var req models.CapacityRequest
	if !decode(w, r, &req) {
		return
	}

	room, err := h.svc.Rooms.SetCapacity(r.Context(), actor(r), uint(id), req.MaxTenants)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, room)
}

func (h *Handlers) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.svc.Audit.List(r.Context(), r.URL.Query().Get("resource"), page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, logs)
}
