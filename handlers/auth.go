package handlers

import (
	"net/http"

	"hostel-pg/middleware"
	"hostel-pg/models"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	tenant, err := h.svc.Auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.svc.Auth.Refresh(tenant)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sendJSON(w, http.StatusCreated, models.LoginResponse{
		Token:        token,
		Tenant:       *tenant,
		Capabilities: models.CapabilitiesFor(tenant.Status),
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	token, tenant, err := h.svc.Auth.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, models.LoginResponse{
		Token:        token,
		Tenant:       *tenant,
		Capabilities: models.CapabilitiesFor(tenant.Status),
	})
}

// Me restores the session: who is calling and what they may do.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFrom(r.Context())
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"uid":          session.UID,
		"email":        session.Email,
		"role":         session.Role,
		"status":       session.Status,
		"capabilities": models.CapabilitiesFor(session.Status),
	})
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFrom(r.Context())
	token, err := h.tokens.Generate(session.UID, session.Email, string(session.Role))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ForgotPassword always answers 202 so callers cannot learn which emails
// have accounts.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.svc.Auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("forgot password lookup failed")
	}
	if token != "" && !h.config.IsProduction() {
		h.log.Info().Str("email", req.Email).Str("reset_token", token).Msg("password reset token issued")
	}
	sendJSON(w, http.StatusAccepted, map[string]string{
		"message": "If the account exists, a reset link has been sent",
	})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
