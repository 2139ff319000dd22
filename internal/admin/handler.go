package admin

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

type AdminSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Admin   *Admin `json:"admin,omitempty"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.List(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list admins")
		return
	}
	respondJSON(w, http.StatusOK, admins)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListPending(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list pending admins")
		return
	}
	respondJSON(w, http.StatusOK, admins)
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListDeleted(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list deleted admins")
		return
	}
	respondJSON(w, http.StatusOK, admins)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, err, "Failed to get admin")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to load dashboard stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.Approve(r.Context(), principal, id, req)
	if err != nil {
		h.serviceError(w, err, "Failed to approve admin")
		return
	}
	respondJSON(w, http.StatusOK, AdminSuccessResponse{Success: true, Message: "Admin approved successfully", Admin: a})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Reject(r.Context(), principal, id); err != nil {
		h.serviceError(w, err, "Failed to reject admin")
		return
	}
	respondJSON(w, http.StatusOK, AdminSuccessResponse{Success: true, Message: "Admin application rejected and removed"})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.serviceError(w, err, "Failed to update admin")
		return
	}
	respondJSON(w, http.StatusOK, AdminSuccessResponse{Success: true, Message: "Admin updated successfully", Admin: a})
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
		h.serviceError(w, err, "Failed to delete admin")
		return
	}
	respondJSON(w, http.StatusOK, AdminSuccessResponse{Success: true, Message: "Admin deleted successfully"})
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
		h.serviceError(w, err, "Failed to restore admin")
		return
	}
	respondJSON(w, http.StatusOK, AdminSuccessResponse{Success: true, Message: "Admin restored successfully"})
}

func (h *Handler) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrAdminNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Admin not found")
	case errors.Is(err, ErrAlreadyApproved):
		respondError(w, http.StatusBadRequest, "validation_error", "Admin is already approved")
	case errors.Is(err, ErrApproverNotFound), errors.Is(err, ErrApproverNotApproved):
		respondError(w, http.StatusBadRequest, "validation_error", "Approver must be an existing approved admin")
	case errors.Is(err, ErrIDMismatch):
		respondError(w, http.StatusBadRequest, "validation_error", "Admin ID mismatch")
	case errors.Is(err, ErrApproverMismatch), errors.Is(err, ErrMissingFullName),
		errors.Is(err, ErrMissingDepartment), errors.Is(err, ErrSelfDelete):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid admin id")
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
