package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cleanly/internal/models"
	"cleanly/internal/store"

	"go.uber.org/zap"
)

func staleBookings(ids ...string) []models.Booking {
	bookings := make([]models.Booking, 0, len(ids))
	for _, id := range ids {
		bookings = append(bookings, models.Booking{
			ID:       id,
			ClientID: "client-" + id,
			Status:   models.StatusCompleted,
		})
	}
	return bookings
}

func TestSweepConfirmsStaleBookings(t *testing.T) {
	var transitions []TransitionRequest
	var flags []store.FraudFlagInput
	service := NewSweepService(stubStaleLister{
		listFn: func(_ context.Context, cutoff time.Time) ([]models.Booking, error) {
			if time.Until(cutoff) > -47*time.Hour {
				t.Fatalf("cutoff not pushed back by the window: %v", cutoff)
			}
			return staleBookings("b1", "b2"), nil
		},
	}, stubTransitioner{
		transitionFn: func(_ context.Context, req TransitionRequest) (models.Booking, error) {
			transitions = append(transitions, req)
			return models.Booking{ID: req.BookingID, Status: req.NewStatus}, nil
		},
	}, stubFraudFlags{
		insertFn: func(_ context.Context, input store.FraudFlagInput) error {
			flags = append(flags, input)
			return nil
		},
	}, 48*time.Hour, "system", zap.NewNop())

	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	for _, req := range transitions {
		if req.NewStatus != models.StatusClientConfirmed || req.ActorID != "system" || req.ActorRole != models.RoleAdmin {
			t.Fatalf("unexpected transition: %#v", req)
		}
		if req.Meta != `{"autoConfirmed":true}` {
			t.Fatalf("unexpected meta: %s", req.Meta)
		}
	}
	if len(flags) != 2 || flags[0].Type != "CONFIRMATION_TIMEOUT" || flags[0].Severity != "LOW" {
		t.Fatalf("unexpected fraud flags: %#v", flags)
	}
	if flags[0].UserID != "client-b1" {
		t.Fatalf("flag must target the client, got %s", flags[0].UserID)
	}
}

func TestSweepSkipsMovedBookings(t *testing.T) {
	var flagged int
	service := NewSweepService(stubStaleLister{
		listFn: func(context.Context, time.Time) ([]models.Booking, error) {
			return staleBookings("b1"), nil
		},
	}, stubTransitioner{
		transitionFn: func(context.Context, TransitionRequest) (models.Booking, error) {
			// The client disputed between listing and locking.
			return models.Booking{}, ErrInvalidTransition
		},
	}, stubFraudFlags{
		insertFn: func(context.Context, store.FraudFlagInput) error {
			flagged++
			return nil
		},
	}, 48*time.Hour, "system", zap.NewNop())

	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flagged != 0 {
		t.Fatal("a moved booking must not be flagged")
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	var confirmed []string
	service := NewSweepService(stubStaleLister{
		listFn: func(context.Context, time.Time) ([]models.Booking, error) {
			return staleBookings("b1", "b2", "b3"), nil
		},
	}, stubTransitioner{
		transitionFn: func(_ context.Context, req TransitionRequest) (models.Booking, error) {
			if req.BookingID == "b2" {
				return models.Booking{}, errors.New("connection reset")
			}
			confirmed = append(confirmed, req.BookingID)
			return models.Booking{ID: req.BookingID}, nil
		},
	}, stubFraudFlags{}, 48*time.Hour, "system", zap.NewNop())

	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(confirmed) != 2 || confirmed[0] != "b1" || confirmed[1] != "b3" {
		t.Fatalf("expected b1 and b3 confirmed, got %#v", confirmed)
	}
}

func TestSweepListFailure(t *testing.T) {
	service := NewSweepService(stubStaleLister{
		listFn: func(context.Context, time.Time) ([]models.Booking, error) {
			return nil, errors.New("db down")
		},
	}, stubTransitioner{
		transitionFn: func(context.Context, TransitionRequest) (models.Booking, error) {
			t.Fatal("no transitions when listing fails")
			return models.Booking{}, nil
		},
	}, stubFraudFlags{}, 48*time.Hour, "system", zap.NewNop())

	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSweepFraudFlagFailureNonFatal(t *testing.T) {
	service := NewSweepService(stubStaleLister{
		listFn: func(context.Context, time.Time) ([]models.Booking, error) {
			return staleBookings("b1"), nil
		},
	}, stubTransitioner{
		transitionFn: func(_ context.Context, req TransitionRequest) (models.Booking, error) {
			return models.Booking{ID: req.BookingID}, nil
		},
	}, stubFraudFlags{
		insertFn: func(context.Context, store.FraudFlagInput) error {
			return errors.New("insert failed")
		},
	}, 48*time.Hour, "system", zap.NewNop())

	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("flag failure must not fail the sweep: %v", err)
	}
}
