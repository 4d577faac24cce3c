package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanly/internal/models"
	"cleanly/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StaleBookingLister interface {
	ListStaleCompleted(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

type Transitioner interface {
	Transition(ctx context.Context, req TransitionRequest) (models.Booking, error)
}

type FraudFlagStore interface {
	Insert(ctx context.Context, input store.FraudFlagInput) error
}

// SweepService auto-confirms bookings the client left in COMPLETED past the
// confirmation window. Each confirmation goes through the regular transition
// path so the commission effects and event trail stay identical to a manual
// confirmation.
type SweepService struct {
	bookings      StaleBookingLister
	transitions   Transitioner
	fraudFlags    FraudFlagStore
	log           *zap.Logger
	confirmWindow time.Duration
	systemActorID string
	now           func() time.Time
}

func NewSweepService(bookings StaleBookingLister, transitions Transitioner, fraudFlags FraudFlagStore, confirmWindow time.Duration, systemActorID string, log *zap.Logger) *SweepService {
	return &SweepService{
		bookings:      bookings,
		transitions:   transitions,
		fraudFlags:    fraudFlags,
		log:           log,
		confirmWindow: confirmWindow,
		systemActorID: systemActorID,
		now:           time.Now,
	}
}

func (s *SweepService) Name() string { return "booking-auto-confirm" }

// Run confirms every booking whose confirmation window has lapsed. Failures
// on individual bookings are logged and skipped so one bad row cannot stall
// the rest of the batch.
func (s *SweepService) Run(ctx context.Context) error {
	cutoff := s.now().Add(-s.confirmWindow)
	stale, err := s.bookings.ListStaleCompleted(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale bookings: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	s.log.Info("auto-confirmation sweep started",
		zap.Int("candidates", len(stale)),
		zap.Time("cutoff", cutoff))

	confirmed := 0
	for _, booking := range stale {
		if err := s.confirm(ctx, booking); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				// The booking moved on between listing and locking.
				continue
			}
			s.log.Error("auto-confirmation failed",
				zap.String("booking_id", booking.ID),
				zap.Error(err))
			continue
		}
		confirmed++
	}
	s.log.Info("auto-confirmation sweep finished", zap.Int("confirmed", confirmed))
	return nil
}

func (s *SweepService) confirm(ctx context.Context, booking models.Booking) error {
	_, err := s.transitions.Transition(ctx, TransitionRequest{
		BookingID: booking.ID,
		NewStatus: models.StatusClientConfirmed,
		ActorID:   s.systemActorID,
		ActorRole: models.RoleAdmin,
		Meta:      `{"autoConfirmed":true}`,
	})
	if err != nil {
		return err
	}
	// A client who never confirms is worth tracking, not punishing.
	if err := s.fraudFlags.Insert(ctx, store.FraudFlagInput{
		ID:       uuid.NewString(),
		UserID:   booking.ClientID,
		Type:     "CONFIRMATION_TIMEOUT",
		Severity: "LOW",
		Reason:   fmt.Sprintf("booking %s auto-confirmed after %s without client confirmation", booking.ID, s.confirmWindow),
	}); err != nil {
		s.log.Error("fraud flag insert failed",
			zap.String("booking_id", booking.ID),
			zap.Error(err))
	}
	return nil
}
