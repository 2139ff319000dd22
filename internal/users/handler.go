package users

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

type UserSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// Register is public.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "Failed to register user")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Login is public.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "Failed to log in")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListDeleted(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list deleted users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.serviceError(w, err, "Failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	user, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		h.serviceError(w, err, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, UserSuccessResponse{Success: true, Message: "User updated successfully", User: user})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req softdelete.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	if err := h.service.SoftDelete(r.Context(), principal, id, req); err != nil {
		h.serviceError(w, err, "Failed to delete user")
		return
	}
	respondJSON(w, http.StatusOK, UserSuccessResponse{Success: true, Message: "User deleted successfully"})
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req softdelete.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	if err := h.service.Restore(r.Context(), principal, id, req); err != nil {
		h.serviceError(w, err, "Failed to restore user")
		return
	}
	respondJSON(w, http.StatusOK, UserSuccessResponse{Success: true, Message: "User restored successfully"})
}

func (h *Handler) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		respondError(w, http.StatusConflict, "conflict", "This email is already registered. Please use a different email or try logging in.")
	case errors.Is(err, ErrEmailNotRegistered):
		respondError(w, http.StatusNotFound, "not_found", "This email is not registered. Please sign up first.")
	case errors.Is(err, ErrInvalidPassword):
		respondError(w, http.StatusUnauthorized, "unauthorized", "Invalid password. Please try again.")
	case errors.Is(err, ErrPendingApproval):
		respondError(w, http.StatusUnauthorized, "unauthorized", "Your admin account is pending approval.")
	case errors.Is(err, ErrProfileNotFound):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error()+". Please contact support.")
	case errors.Is(err, ErrIDMismatch):
		respondError(w, http.StatusBadRequest, "validation_error", "User ID mismatch")
	case errors.Is(err, ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ErrMissingEmail), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrMissingPassword),
		errors.Is(err, ErrInvalidRole), errors.Is(err, ErrMissingFullName), errors.Is(err, ErrMissingDepartment),
		errors.Is(err, ErrOrgDomainRequired), errors.Is(err, ErrOrgDomainReserved), errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid user id")
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondJSON(w, statusCode, map[string]interface{}{
		"error":   errorType,
		"message": message,
	})
}
