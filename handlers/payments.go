package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"hostel-pg/models"
)

func (h *Handlers) ListTenantPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.Billing.ListForTenant(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, payments)
}

func (h *Handlers) InsertInitialPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Billing.InsertInitialPeriod(r.Context(), actor(r), mux.Vars(r)["uid"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, models.NewPaymentView(*p))
}

func (h *Handlers) MarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Billing.MarkPaid(r.Context(), actor(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (h *Handlers) EditPayment(w http.ResponseWriter, r *http.Request) {
	var req models.EditPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Billing.EditPeriod(r.Context(), actor(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (h *Handlers) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Billing.DeletePeriod(r.Context(), actor(r), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListPaidPayments(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.svc.Billing.ListPaid(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"from":     rng.From,
		"to":       rng.To,
		"payments": rows,
	})
}
