package handlers

import (
	"net/http"

	"hostel-pg/models"
)

func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	expense, err := h.svc.Ledger.CreateExpense(r.Context(), actor(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, expense)
}

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	expenses, err := h.svc.Ledger.ListExpenses(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"from":       rng.From,
		"to":         rng.To,
		"categories": models.ExpenseCategories,
		"expenses":   expenses,
	})
}

func (h *Handlers) ExpenseReport(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Ledger.ExpenseSummary(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}

func (h *Handlers) PaymentReport(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Ledger.PaymentSummary(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}

func (h *Handlers) OccupancyReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Rooms.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}
