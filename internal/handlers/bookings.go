package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"cleanly/internal/auth"
	"cleanly/internal/middleware"
	"cleanly/internal/models"
	"cleanly/internal/services"
	"cleanly/internal/websocket"

	"github.com/go-chi/chi/v5"
)

type createBookingRequest struct {
	BasePrice   int64     `json:"base_price"`
	AddonsTotal int64     `json:"addons_total"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerIdentity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if role != models.RoleClient {
		respondError(w, http.StatusForbidden, "only clients can create bookings")
		return
	}
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}
	booking, err := h.bookingSvc.CreateBooking(r.Context(), services.CreateBookingRequest{
		ClientID:    userID,
		BasePrice:   req.BasePrice,
		AddonsTotal: req.AddonsTotal,
		ScheduledAt: req.ScheduledAt,
		Address:     req.Address,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

type transitionRequest struct {
	Status models.BookingStatus `json:"status"`
	Meta   json.RawMessage      `json:"meta,omitempty"`
}

func (h *Handler) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := callerIdentity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "status is required")
		return
	}
	booking, err := h.bookingSvc.Transition(r.Context(), services.TransitionRequest{
		BookingID: chi.URLParam(r, "id"),
		NewStatus: req.Status,
		ActorID:   userID,
		ActorRole: role,
		Meta:      string(req.Meta),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *Handler) BookingHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.bookingSvc.GetHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	bookings, err := h.bookings.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list bookings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// WSBookings authenticates via query param because browser websocket clients
// cannot set headers.
func (h *Handler) WSBookings(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}

func callerIdentity(r *http.Request) (string, models.Role, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	return userID, role, true
}
