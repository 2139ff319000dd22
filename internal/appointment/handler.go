package appointment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/pagination"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

type AppointmentSuccessResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.Book(r.Context(), principal, req)
	if err != nil {
		h.serviceError(w, err, "Failed to book appointment")
		return
	}

	respondJSON(w, http.StatusCreated, AppointmentSuccessResponse{
		Success:     true,
		Message:     "Appointment booked successfully",
		Appointment: a,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.serviceError(w, err, "Failed to get appointment")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	scope, err := ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	items, err := h.service.ListForPatient(r.Context(), principal, patientID, scope)
	if err != nil {
		h.serviceError(w, err, "Failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	doctorID, ok := pathID(w, r, "doctorId")
	if !ok {
		return
	}
	scope, err := ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	items, err := h.service.ListForDoctor(r.Context(), principal, doctorID, scope)
	if err != nil {
		h.serviceError(w, err, "Failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// ListAll is the admin view over every appointment, paginated.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		status = &st
	}

	page, err := h.service.ListAll(r.Context(), status, pagination.ParseParams(r))
	if err != nil {
		h.serviceError(w, err, "Failed to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	a, err := h.service.Confirm(r.Context(), principal, id)
	if err != nil {
		h.serviceError(w, err, "Failed to confirm appointment")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment confirmed", Appointment: a})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeReason(w, r)
	if !ok {
		return
	}

	a, err := h.service.Reject(r.Context(), principal, id, req.Reason)
	if err != nil {
		h.serviceError(w, err, "Failed to reject appointment")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment rejected", Appointment: a})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeReason(w, r)
	if !ok {
		return
	}

	a, err := h.service.Cancel(r.Context(), principal, id, req.Reason)
	if err != nil {
		h.serviceError(w, err, "Failed to cancel appointment")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Appointment cancelled", Appointment: a})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	a, err := h.service.MarkPaid(r.Context(), principal, id, req)
	if err != nil {
		h.serviceError(w, err, "Failed to update payment")
		return
	}
	respondJSON(w, http.StatusOK, AppointmentSuccessResponse{Success: true, Message: "Payment status updated", Appointment: a})
}

// decodeReason reads an optional {reason} body; an empty body is allowed.
func decodeReason(w http.ResponseWriter, r *http.Request) (ReasonRequest, bool) {
	var req ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, ErrMissingPatient), errors.Is(err, ErrMissingDoctor), errors.Is(err, ErrMissingDate),
		errors.Is(err, ErrDateInPast), errors.Is(err, ErrInvalidScope), errors.Is(err, ErrInvalidInvoiceStatus),
		errors.Is(err, ErrNoInvoice):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, ErrStatusConflict):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid "+name)
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
