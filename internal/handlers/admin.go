package handlers

import (
	"encoding/json"
	"net/http"

	"cleanly/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) AdminGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.walletSvc.GetWallet(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}

type adjustWalletRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (h *Handler) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req adjustWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Reason == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}
	tx, err := h.walletSvc.AdjustBalance(r.Context(), chi.URLParam(r, "ownerID"), req.Amount, req.Reason, actorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

type debtThresholdRequest struct {
	DebtLimit int64 `json:"debt_limit"`
}

func (h *Handler) UpdateDebtThreshold(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req debtThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ownerID := chi.URLParam(r, "ownerID")
	if err := h.walletSvc.UpdateDebtThreshold(r.Context(), ownerID, req.DebtLimit, actorID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"owner_id":   ownerID,
		"debt_limit": req.DebtLimit,
	})
}

func (h *Handler) ReconcileWallets(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.walletSvc.Reconcile(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	drifted := 0
	for _, s := range summaries {
		if s.Difference != 0 {
			drifted++
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"wallets": summaries,
		"drifted": drifted,
	})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"audit_logs": logs})
}

func (h *Handler) ListFraudFlags(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	flags, err := h.fraudFlags.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list fraud flags")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"fraud_flags": flags})
}
