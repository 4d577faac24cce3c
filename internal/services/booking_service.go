package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"cleanly/internal/commission"
	"cleanly/internal/db"
	"cleanly/internal/models"
	"cleanly/internal/store"
	"cleanly/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// allowedTransitions is the booking lifecycle. CLIENT_CONFIRMED and CANCELLED
// are terminal.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusRequested:       {models.StatusAccepted, models.StatusCancelled},
	models.StatusAccepted:        {models.StatusOnTheWay, models.StatusCancelled},
	models.StatusOnTheWay:        {models.StatusArrived, models.StatusCancelled},
	models.StatusArrived:         {models.StatusInProgress},
	models.StatusInProgress:      {models.StatusCompleted},
	models.StatusCompleted:       {models.StatusClientConfirmed, models.StatusDisputed},
	models.StatusDisputed:        {models.StatusClientConfirmed},
	models.StatusClientConfirmed: {},
	models.StatusCancelled:       {},
}

func transitionAllowed(from, to models.BookingStatus) bool {
	for _, status := range allowedTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

// capability is what a role may do with a booking: which target statuses it
// may request and whether the actor owns the booking for that move. ADMIN
// bypasses the table entirely.
type capability struct {
	targets map[models.BookingStatus]struct{}
	owns    func(b models.Booking, actorID string, target models.BookingStatus) bool
}

var roleCapabilities = map[models.Role]capability{
	models.RoleClient: {
		targets: statusSet(models.StatusClientConfirmed, models.StatusCancelled, models.StatusDisputed),
		owns: func(b models.Booking, actorID string, _ models.BookingStatus) bool {
			return b.ClientID == actorID
		},
	},
	models.RoleCleaner: {
		targets: statusSet(
			models.StatusAccepted, models.StatusOnTheWay, models.StatusArrived,
			models.StatusInProgress, models.StatusCompleted, models.StatusCancelled,
		),
		owns: func(b models.Booking, actorID string, target models.BookingStatus) bool {
			if b.CleanerID != nil {
				return *b.CleanerID == actorID
			}
			// An unassigned booking may only be claimed by accepting it.
			return target == models.StatusAccepted
		},
	},
}

func statusSet(statuses ...models.BookingStatus) map[models.BookingStatus]struct{} {
	set := make(map[models.BookingStatus]struct{}, len(statuses))
	for _, status := range statuses {
		set[status] = struct{}{}
	}
	return set
}

type BookingStore interface {
	Create(ctx context.Context, tx store.Execer, input store.BookingInput) error
	GetByID(ctx context.Context, bookingID string) (models.Booking, error)
	GetForUpdate(ctx context.Context, tx store.Getter, bookingID string) (models.Booking, error)
	UpdateStatus(ctx context.Context, tx store.Execer, bookingID string, from, to models.BookingStatus) (int64, error)
	AssignCleaner(ctx context.Context, tx store.Execer, bookingID, cleanerID string) (int64, error)
}

type BookingEventStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.BookingEventInput) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.BookingEvent, error)
}

type CleanerStore interface {
	IncrementJobCounters(ctx context.Context, tx store.Getter, userID string, freeJobThreshold int) (int, error)
}

type CommissionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.CommissionInput) error
	Exists(ctx context.Context, tx store.Getter, bookingID string) (bool, error)
}

type WalletLedger interface {
	ApplyTransaction(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BookingNotifier interface {
	BroadcastBooking(userID string, update websocket.BookingUpdate)
}

type transitionEffect func(ctx context.Context, tx *sqlx.Tx, booking models.Booking, req TransitionRequest) error

type BookingService struct {
	txRunner    db.TxRunner
	bookings    BookingStore
	events      BookingEventStore
	cleaners    CleanerStore
	commissions CommissionStore
	wallets     WalletLedger
	audit       AuditStore
	hub         BookingNotifier
	effects     map[models.BookingStatus]transitionEffect
}

func NewBookingService(txRunner db.TxRunner, bookings BookingStore, events BookingEventStore, cleaners CleanerStore, commissions CommissionStore, wallets WalletLedger, audit AuditStore, hub BookingNotifier) *BookingService {
	s := &BookingService{
		txRunner:    txRunner,
		bookings:    bookings,
		events:      events,
		cleaners:    cleaners,
		commissions: commissions,
		wallets:     wallets,
		audit:       audit,
		hub:         hub,
	}
	// Per-status side effects, dispatched by target status. All of them run in
	// the same transaction as the status update and event append.
	s.effects = map[models.BookingStatus]transitionEffect{
		models.StatusAccepted:        s.onAccepted,
		models.StatusCompleted:       s.onCompleted,
		models.StatusClientConfirmed: s.onClientConfirmed,
		models.StatusCancelled:       s.onCancelled,
	}
	return s
}

type CreateBookingRequest struct {
	ClientID    string
	BasePrice   int64
	AddonsTotal int64
	ScheduledAt time.Time
	Address     string
	Notes       string
}

func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (models.Booking, error) {
	if req.BasePrice <= 0 || req.AddonsTotal < 0 {
		return models.Booking{}, ErrInvalidAmount
	}
	bookingID := uuid.NewString()
	total := req.BasePrice + req.AddonsTotal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.bookings.Create(ctx, tx, store.BookingInput{
			ID:          bookingID,
			ClientID:    req.ClientID,
			Status:      models.StatusRequested,
			BasePrice:   req.BasePrice,
			AddonsTotal: req.AddonsTotal,
			TotalPrice:  total,
			ScheduledAt: req.ScheduledAt,
			Address:     req.Address,
			Notes:       req.Notes,
		}); err != nil {
			return err
		}
		if err := s.events.Insert(ctx, tx, store.BookingEventInput{
			ID:        uuid.NewString(),
			BookingID: bookingID,
			ActorID:   req.ClientID,
			OldStatus: nil,
			NewStatus: models.StatusRequested,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{"total_price": total})
		return s.audit.Log(ctx, tx, req.ClientID, "booking_create", "booking", bookingID, string(data))
	})
	if err != nil {
		return models.Booking{}, err
	}
	return s.bookings.GetByID(ctx, bookingID)
}

type TransitionRequest struct {
	BookingID string
	NewStatus models.BookingStatus
	ActorID   string
	ActorRole models.Role
	Meta      string
}

// Transition validates actor permission and transition legality, then commits
// the status change, its BookingEvent, and any per-status effects as one
// all-or-nothing unit. The status write is conditional on the prior status, so
// two racing callers cannot both pass the legality check and commit.
func (s *BookingService) Transition(ctx context.Context, req TransitionRequest) (models.Booking, error) {
	var updated models.Booking
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		booking, err := s.bookings.GetForUpdate(ctx, tx, req.BookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if req.ActorRole != models.RoleAdmin {
			role, ok := roleCapabilities[req.ActorRole]
			if !ok {
				return ErrForbidden
			}
			if _, ok := role.targets[req.NewStatus]; !ok {
				return ErrForbidden
			}
			if !role.owns(booking, req.ActorID, req.NewStatus) {
				return ErrForbidden
			}
		}
		if !transitionAllowed(booking.Status, req.NewStatus) {
			return ErrInvalidTransition
		}
		if req.NewStatus == models.StatusAccepted && booking.CleanerID == nil && req.ActorRole == models.RoleCleaner {
			rows, err := s.bookings.AssignCleaner(ctx, tx, booking.ID, req.ActorID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrInvalidTransition
			}
			cleanerID := req.ActorID
			booking.CleanerID = &cleanerID
		}
		rows, err := s.bookings.UpdateStatus(ctx, tx, booking.ID, booking.Status, req.NewStatus)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidTransition
		}
		oldStatus := booking.Status
		if err := s.events.Insert(ctx, tx, store.BookingEventInput{
			ID:        uuid.NewString(),
			BookingID: booking.ID,
			ActorID:   req.ActorID,
			OldStatus: &oldStatus,
			NewStatus: req.NewStatus,
			Meta:      req.Meta,
		}); err != nil {
			return err
		}
		booking.Status = req.NewStatus
		if effect := s.effects[req.NewStatus]; effect != nil {
			if err := effect(ctx, tx, booking, req); err != nil {
				return err
			}
		}
		updated = booking
		return nil
	})
	if err != nil {
		// A unique violation on the commission row means another caller already
		// confirmed this booking and applied its commission; everything here was
		// rolled back, so the replay is financially a no-op.
		if db.IsUniqueViolation(err) {
			return models.Booking{}, ErrInvalidTransition
		}
		return models.Booking{}, err
	}
	s.notifyParticipants(updated)
	return updated, nil
}

func (s *BookingService) GetHistory(ctx context.Context, bookingID string) ([]models.BookingEvent, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.events.ListByBooking(ctx, bookingID)
}

func (s *BookingService) onAccepted(ctx context.Context, tx *sqlx.Tx, booking models.Booking, req TransitionRequest) error {
	// The push to the client goes out after commit; here we only record the
	// acceptance for the audit trail.
	data, _ := json.Marshal(map[string]string{"cleaner_id": req.ActorID})
	return s.audit.Log(ctx, tx, req.ActorID, "booking_accept", "booking", booking.ID, string(data))
}

func (s *BookingService) onCompleted(ctx context.Context, tx *sqlx.Tx, booking models.Booking, req TransitionRequest) error {
	// No ledger effect. Completion opens the 48h confirmation window that the
	// auto-confirmation sweep enforces.
	return s.audit.Log(ctx, tx, req.ActorID, "booking_complete", "booking", booking.ID, "{}")
}

func (s *BookingService) onCancelled(ctx context.Context, tx *sqlx.Tx, booking models.Booking, req TransitionRequest) error {
	// Cancellation carries no refund or commission reversal.
	return s.audit.Log(ctx, tx, req.ActorID, "booking_cancel", "booking", booking.ID, "{}")
}

// onClientConfirmed applies the financial effects of a confirmed job exactly
// once: the commission row's unique booking id is the guard against a second
// application slipping through.
func (s *BookingService) onClientConfirmed(ctx context.Context, tx *sqlx.Tx, booking models.Booking, req TransitionRequest) error {
	exists, err := s.commissions.Exists(ctx, tx, booking.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if booking.CleanerID == nil {
		return ErrInvalidTransition
	}
	cleanerID := *booking.CleanerID

	completedAfter, err := s.cleaners.IncrementJobCounters(ctx, tx, cleanerID, commission.DefaultFreeJobThreshold)
	if err != nil {
		return err
	}
	jobsBefore := completedAfter - 1

	rate := commission.DefaultRate()
	result := commission.Calculate(booking.TotalPrice, jobsBefore, commission.DefaultFreeJobThreshold, rate)

	amount := int64(0)
	if !result.IsFreeJob {
		amount = -result.CommissionAmount
	}
	meta, _ := json.Marshal(map[string]any{
		"booking_id": booking.ID,
		"free_job":   result.IsFreeJob,
		"rate":       rate.String(),
	})
	if err := s.wallets.ApplyTransaction(ctx, tx, store.WalletTransactionInput{
		ID:        uuid.NewString(),
		OwnerID:   cleanerID,
		Type:      models.TxCommission,
		Amount:    amount,
		BookingID: &booking.ID,
		Meta:      string(meta),
	}); err != nil {
		return err
	}
	if err := s.commissions.Create(ctx, tx, store.CommissionInput{
		BookingID:        booking.ID,
		CleanerID:        cleanerID,
		Percentage:       rate.String(),
		CommissionAmount: result.CommissionAmount,
		IsFree:           result.IsFreeJob,
		Status:           "APPLIED",
	}); err != nil {
		return err
	}
	return s.audit.Log(ctx, tx, req.ActorID, "booking_confirm", "booking", booking.ID, string(meta))
}

func (s *BookingService) notifyParticipants(booking models.Booking) {
	update := websocket.BookingUpdate{
		BookingID: booking.ID,
		Status:    string(booking.Status),
	}
	s.hub.BroadcastBooking(booking.ClientID, update)
	if booking.CleanerID != nil {
		s.hub.BroadcastBooking(*booking.CleanerID, update)
	}
}
