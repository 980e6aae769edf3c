package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"hostel-pg/middleware"
	"hostel-pg/models"
)

// Router wires every route. Global middleware (CORS, rate limit, request
// log) is applied by the caller around the returned handler.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sendError(w, http.StatusNotFound, "Route not found", nil)
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", h.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", h.ResetPassword).Methods(http.MethodPost)

	auth := middleware.JWTAuth(h.tokens, h.svc.Tenants, h.log)

	session := api.PathPrefix("/auth").Subrouter()
	session.Use(auth)
	session.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	session.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)

	me := api.PathPrefix("/me").Subrouter()
	me.Use(auth, middleware.RequireRole(models.RoleUser))
	me.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet)
	me.HandleFunc("/profile", h.UpdateProfile).Methods(http.MethodPut)
	me.HandleFunc("/submit", h.SubmitForApproval).Methods(http.MethodPost)
	me.HandleFunc("/documents/{type}", h.UploadDocument).Methods(http.MethodPost)
	me.HandleFunc("/payments", h.GetMyPayments).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth, middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/tenants", h.ListTenants).Methods(http.MethodGet)
	admin.HandleFunc("/tenants/{uid}", h.GetTenant).Methods(http.MethodGet)
	admin.HandleFunc("/tenants/{uid}", h.UpdateTenant).Methods(http.MethodPut)
	admin.HandleFunc("/tenants/{uid}/documents/{type}", h.UploadTenantDocument).Methods(http.MethodPost)
	admin.HandleFunc("/tenants/{uid}/payments", h.ListTenantPayments).Methods(http.MethodGet)
	admin.HandleFunc("/tenants/{uid}/payments/initial", h.InsertInitialPayment).Methods(http.MethodPost)

	admin.HandleFunc("/payments", h.ListPaidPayments).Methods(http.MethodGet)
	admin.HandleFunc("/payments/{id}/pay", h.MarkPaymentPaid).Methods(http.MethodPost)
	admin.HandleFunc("/payments/{id}", h.EditPayment).Methods(http.MethodPut)
	admin.HandleFunc("/payments/{id}", h.DeletePayment).Methods(http.MethodDelete)

	admin.HandleFunc("/rooms", h.ListRooms).Methods(http.MethodGet)
	admin.HandleFunc("/rooms", h.CreateRoom).Methods(http.MethodPost)
	admin.HandleFunc("/rooms/{id:[0-9]+}/capacity", h.SetRoomCapacity).Methods(http.MethodPut)

	admin.HandleFunc("/expenses", h.ListExpenses).Methods(http.MethodGet)
	admin.HandleFunc("/expenses", h.CreateExpense).Methods(http.MethodPost)
	admin.HandleFunc("/reports/expenses", h.ExpenseReport).Methods(http.MethodGet)
	admin.HandleFunc("/reports/payments", h.PaymentReport).Methods(http.MethodGet)
	admin.HandleFunc("/reports/occupancy", h.OccupancyReport).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", h.GetAuditLogs).Methods(http.MethodGet)

	if h.svc.Files != nil {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files", h.svc.Files)).Methods(http.MethodGet, http.MethodHead)
	}

	return r
}
