package prescription

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/appointment"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/billing"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

type PrescriptionSuccessResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Prescription *Prescription `json:"prescription,omitempty"`
}

type CompletionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*CompletionResult
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	prescriptions, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.serviceError(w, err, "Failed to list prescriptions")
		return
	}
	respondJSON(w, http.StatusOK, prescriptions)
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
	pr, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.serviceError(w, err, "Failed to get prescription")
		return
	}
	respondJSON(w, http.StatusOK, pr)
}

func (h *Handler) GetByAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	appointmentID, ok := pathID(w, r, "appointmentId")
	if !ok {
		return
	}
	pr, err := h.service.GetByAppointment(r.Context(), principal, appointmentID)
	if err != nil {
		if errors.Is(err, ErrPrescriptionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Prescription not found for this appointment.")
			return
		}
		h.serviceError(w, err, "Failed to get prescription")
		return
	}
	respondJSON(w, http.StatusOK, pr)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var req CreatePrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	pr, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		h.serviceError(w, err, "Failed to create prescription")
		return
	}
	respondJSON(w, http.StatusCreated, PrescriptionSuccessResponse{Success: true, Message: "Prescription created successfully", Prescription: pr})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdatePrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	pr, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		h.serviceError(w, err, "Failed to update prescription")
		return
	}
	respondJSON(w, http.StatusOK, PrescriptionSuccessResponse{Success: true, Message: "Prescription updated successfully", Prescription: pr})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.serviceError(w, err, "Failed to delete prescription")
		return
	}
	respondJSON(w, http.StatusOK, PrescriptionSuccessResponse{Success: true, Message: "Prescription deleted successfully"})
}

// SaveWithCompletion handles POST /api/Prescriptions/save-with-completion.
func (h *Handler) SaveWithCompletion(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}

	result, err := h.service.SaveWithCompletion(r.Context(), principal, req)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrInvalidTransition):
			respondError(w, http.StatusBadRequest, "invalid_transition", "Only confirmed appointments can be completed with a prescription.")
			return
		case errors.Is(err, billing.ErrAmountNotPositive):
			respondError(w, http.StatusBadRequest, "validation_error", "Invoice amount is required to complete the appointment.")
			return
		}
		if clientError(w, err) {
			return
		}
		log.Error().Err(err).Int64("appointment_id", req.AppointmentID).Msg("save with completion failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to save prescription: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, CompletionResponse{
		Success:          true,
		Message:          "Prescription saved and appointment completed successfully",
		CompletionResult: result,
	})
}

// Bill handles POST /api/Prescriptions/bill.
func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid JSON payload: "+err.Error())
		return
	}
	bill, err := h.service.CalculateBill(r.Context(), req)
	if err != nil {
		h.serviceError(w, err, "Failed to calculate bill")
		return
	}
	respondJSON(w, http.StatusOK, bill)
}

// PDFData handles GET /api/Prescriptions/appointment/{appointmentId}/pdf-data.
func (h *Handler) PDFData(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}
	appointmentID, ok := pathID(w, r, "appointmentId")
	if !ok {
		return
	}
	data, err := h.service.PDFData(r.Context(), principal, appointmentID)
	if err != nil {
		h.serviceError(w, err, "Failed to load prescription")
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (h *Handler) serviceError(w http.ResponseWriter, err error, fallback string) {
	if clientError(w, err) {
		return
	}
	log.Error().Err(err).Msg(fallback)
	respondError(w, http.StatusInternalServerError, "internal_error", fallback)
}

// clientError writes the response for errors caused by the request and
// reports whether it did.
func clientError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, ErrPrescriptionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Prescription not found.")
	case errors.Is(err, ErrAppointmentNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Appointment not found.")
	case errors.Is(err, ErrPrescriptionExists):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, ErrIDMismatch):
		respondError(w, http.StatusBadRequest, "validation_error", "Prescription ID mismatch")
	case errors.Is(err, ErrAppointmentNotReady), errors.Is(err, ErrMissingAppointment), errors.Is(err, ErrInvalidLine),
		errors.Is(err, billing.ErrAmountMismatch), errors.Is(err, billing.ErrAmountNotPositive),
		errors.Is(err, billing.ErrNegativeFee), errors.Is(err, billing.ErrNegativeDose),
		errors.Is(err, billing.ErrNegativeDays), errors.Is(err, billing.ErrNegativePrice),
		errors.Is(err, billing.ErrDoseTooHigh), errors.Is(err, billing.ErrDaysTooHigh):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		return false
	}
	return true
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
