package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cleanly/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinel errors to status codes. Anything
// unmapped is a 500 with a generic message.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid status transition")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, services.ErrPaymentNotCompleted):
		respondError(w, http.StatusPaymentRequired, "payment not completed")
	case errors.Is(err, services.ErrWebhookVerificationFailed):
		respondError(w, http.StatusBadRequest, "webhook verification failed")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
