package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handler exposes the lifecycle manager over HTTP.
type Handler struct {
	Manager *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{Manager: m}
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy to HTTP statuses. Low-level detail stays
// in the logs; authentication-class failures get uniform messaging.
func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: ve.Message})
	case errors.Is(err, ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, apiResponse{Success: false, Message: ErrAlreadyExists.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: ErrInvalidCredentials.Error()})
	case errors.Is(err, ErrInvalidRefreshToken):
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: ErrInvalidRefreshToken.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "internal server error"})
	}
}

// SaveCredentials registers a new user.
// POST /api/v1/auth/credentials
func (h *Handler) SaveCredentials(w http.ResponseWriter, r *http.Request) {
	var req saveCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid payload"})
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, &ValidationError{Message: "id must be a valid UUID"})
		return
	}

	summary, err := h.Manager.Register(id, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "user successfully signed up", Data: summary})
}

// Login exchanges credentials for a token pair.
// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid payload"})
		return
	}

	pair, err := h.Manager.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "user successfully logged in", Data: pair})
}

// Refresh exchanges a still-valid refresh token for a fresh pair.
// POST /api/v1/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid payload"})
		return
	}

	pair, err := h.Manager.Refresh(req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "token successfully refreshed", Data: pair})
}

// Validate classifies a token. It never fails; false means invalid.
// POST /api/v1/auth/validate
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	valid := h.Manager.Validate(req.Token)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "token validated", Data: valid})
}

// Logout revokes the presented refresh token.
// POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.Manager.Logout(req.RefreshToken); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser removes a user by id; the cascade cleans up ledger rows.
// DELETE /api/v1/auth/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, &ValidationError{Message: "id must be a valid UUID"})
		return
	}

	deleted, err := h.Manager.DeleteUser(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "user deletion processed", Data: deleted})
}
