package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hostel-pg/config"
	"hostel-pg/middleware"
	"hostel-pg/models"
	"hostel-pg/services"
	"hostel-pg/utils"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status    int         `json:"status"`
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func sendError(w http.ResponseWriter, status int, err string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Status:    status,
		Error:     err,
		Details:   details,
		Timestamp: time.Now(),
	})
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type Services struct {
	Auth      *services.AuthService
	Tenants   *services.TenantService
	Rooms     *services.RoomService
	Billing   *services.BillingService
	Ledger    *services.LedgerService
	Documents *services.DocumentService
	Audit     *services.AuditService
	// Files serves stored documents under /files/ when the object store
	// has no public endpoint of its own.
	Files http.Handler
}

type Handlers struct {
	svc    Services
	tokens *utils.TokenIssuer
	config *config.Config
	log    zerolog.Logger
}

func NewHandlers(svc Services, tokens *utils.TokenIssuer, cfg *config.Config, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc:    svc,
		tokens: tokens,
		config: cfg,
		log:    log.With().Str("component", "http").Logger(),
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "hostel-pg",
		"version":   "1.0.0",
	})
}

// actor builds the audit identity for the current request.
func actor(r *http.Request) services.Actor {
	a := services.Actor{IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()}
	if s := middleware.SessionFrom(r.Context()); s != nil {
		a.UID = s.UID
	}
	return a
}

// decode reads a JSON body into dst and runs the struct validators. It
// writes the error response itself and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", utils.FormatValidationError(err))
		return false
	}
	return true
}

// fail maps service errors onto HTTP statuses.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		sendError(w, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, services.ErrValidation):
		sendError(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, services.ErrNotFound):
		sendError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrConflict):
		sendError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		sendError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, services.ErrUnauthorized):
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
	default:
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		sendError(w, http.StatusInternalServerError, "Something went wrong, please try again", nil)
	}
}

// dateRange reads ?from=&to= as YYYY-MM-DD; missing bounds default to the
// current month.
func (h *Handlers) dateRange(r *http.Request) (services.Range, error) {
	var from, to models.Date
	var err error
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if from, err = models.ParseDate(v); err != nil {
			return services.Range{}, &services.ValidationError{Fields: map[string]string{"from": err.Error()}}
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = models.ParseDate(v); err != nil {
			return services.Range{}, &services.ValidationError{Fields: map[string]string{"to": err.Error()}}
		}
	}
	return h.svc.Ledger.Range(from, to)
}
