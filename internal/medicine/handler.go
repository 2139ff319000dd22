package medicine

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.List(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to list medicines")
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

// ListBySpecialization serves both /specialization/{specialization} and
// /by-specialization/{specialization}.
func (h *Handler) ListBySpecialization(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.service.ListBySpecialization(r.Context(), mux.Vars(r)["specialization"])
	if err != nil {
		h.serviceError(w, err, "Failed to list medicines")
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid id")
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, err, "Failed to get medicine")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrMedicineNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Medicine not found")
	case errors.Is(err, ErrMissingSpecialization):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
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
