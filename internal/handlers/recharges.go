package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"cleanly/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type initiateRechargeRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) InitiateRecharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req initiateRechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	order, err := h.recharges.InitiateRecharge(r.Context(), userID, req.Amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *Handler) CaptureRecharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.recharges.CompleteRecharge(r.Context(), userID, chi.URLParam(r, "orderID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// PaymentWebhook is unauthenticated; the provider signature check inside the
// service is the gate.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read body")
		return
	}
	if err := h.recharges.HandleWebhook(r.Context(), r.Header, body); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
