package patient

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

type PatientSuccessResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Patient *Patient `json:"patient,omitempty"`
}

type PurgeResponse struct {
	Success             bool   `json:"success"`
	Message             string `json:"message"`
	AppointmentsDeleted int64  `json:"appointmentsDeleted"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list patients")
		return
	}
	respondJSON(w, http.StatusOK, patients)
}

// ListWithAccounts handles GET /api/Patients/list.
func (h *Handler) ListWithAccounts(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListWithAccounts(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list patients")
		return
	}
	respondJSON(w, http.StatusOK, patients)
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.ListDeleted(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list deleted patients")
		return
	}
	respondJSON(w, http.StatusOK, patients)
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
	pt, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.serviceError(w, err, "Failed to get patient")
		return
	}
	respondJSON(w, http.StatusOK, pt)
}

// Create handles POST /api/Patients; the account id is taken from the body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}
	h.create(w, r, principal, req)
}

// CreateDetails handles POST /api/Users/{id}/patient-details; the account id
// is taken from the path.
func (h *Handler) CreateDetails(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}
	req.UserID = userID
	h.create(w, r, principal, req)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, principal *auth.Principal, req CreatePatientRequest) {
	pt, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		h.serviceError(w, err, "Failed to create patient")
		return
	}
	respondJSON(w, http.StatusCreated, PatientSuccessResponse{Success: true, Message: "Patient details saved successfully", Patient: pt})
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

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	pt, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		h.serviceError(w, err, "Failed to update patient")
		return
	}
	respondJSON(w, http.StatusOK, PatientSuccessResponse{Success: true, Message: "Patient updated successfully", Patient: pt})
}

func (h *Handler) CheckContact(w http.ResponseWriter, r *http.Request) {
	exclude, ok := excludeID(w, r)
	if !ok {
		return
	}
	found, err := h.service.ContactExists(r.Context(), mux.Vars(r)["contactNo"], exclude)
	if err != nil {
		h.serviceError(w, err, "Failed to check contact number")
		return
	}
	respondJSON(w, http.StatusOK, ExistsResponse{Exists: found})
}

func (h *Handler) CheckAadhaar(w http.ResponseWriter, r *http.Request) {
	exclude, ok := excludeID(w, r)
	if !ok {
		return
	}
	found, err := h.service.AadhaarExists(r.Context(), mux.Vars(r)["aadhaarNo"], exclude)
	if err != nil {
		h.serviceError(w, err, "Failed to check aadhaar number")
		return
	}
	respondJSON(w, http.StatusOK, ExistsResponse{Exists: found})
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
		h.serviceError(w, err, "Failed to delete patient")
		return
	}
	respondJSON(w, http.StatusOK, PatientSuccessResponse{Success: true, Message: "Patient soft deleted successfully"})
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
		if errors.Is(err, ErrPatientNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Deleted patient not found")
			return
		}
		h.serviceError(w, err, "Failed to restore patient")
		return
	}
	respondJSON(w, http.StatusOK, PatientSuccessResponse{Success: true, Message: "Patient restored successfully"})
}

func (h *Handler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.service.PermanentDelete(r.Context(), principal, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Patient not found")
			return
		}
		log.Error().Err(err).Int64("patient_id", id).Msg("permanent delete failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to permanently delete patient: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, PurgeResponse{
		Success:             true,
		Message:             "Patient and related records permanently deleted",
		AppointmentsDeleted: result.Appointments,
	})
}

func (h *Handler) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Patient not found")
	case errors.Is(err, ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", "User not found.")
	case errors.Is(err, ErrNotPatient):
		respondError(w, http.StatusBadRequest, "validation_error", "User is not registered as a Patient.")
	case errors.Is(err, ErrDetailsExist):
		respondError(w, http.StatusConflict, "conflict", "Patient details already exist for this user.")
	case errors.Is(err, ErrContactTaken), errors.Is(err, ErrAadhaarTaken):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrIDMismatch):
		respondError(w, http.StatusBadRequest, "validation_error", "Patient ID mismatch")
	case errors.Is(err, ErrMissingUserID), errors.Is(err, ErrMissingFullName), errors.Is(err, ErrMissingDOB),
		errors.Is(err, ErrDOBInFuture), errors.Is(err, ErrInvalidGender), errors.Is(err, ErrMissingContact),
		errors.Is(err, ErrMissingAddress), errors.Is(err, ErrInvalidAadhaar):
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
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid id")
		return 0, false
	}
	return id, true
}

func excludeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("excludePatientId")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid excludePatientId")
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
