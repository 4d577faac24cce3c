package store

import (
	"context"

	"cleanly/internal/models"
)

type BookingEventStore struct {
	db DB
}

func NewBookingEventStore(db DB) *BookingEventStore {
	return &BookingEventStore{db: db}
}

type BookingEventInput struct {
	ID        string
	BookingID string
	ActorID   string
	OldStatus *models.BookingStatus
	NewStatus models.BookingStatus
	Meta      string
}

func (s *BookingEventStore) Insert(ctx context.Context, tx Execer, input BookingEventInput) error {
	meta := input.Meta
	if meta == "" {
		meta = "{}"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO booking_events (id, booking_id, actor_id, old_status, new_status, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.ID, input.BookingID, input.ActorID, input.OldStatus, input.NewStatus, meta)
	return err
}

func (s *BookingEventStore) ListByBooking(ctx context.Context, bookingID string) ([]models.BookingEvent, error) {
	var rows []models.BookingEvent
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, booking_id, actor_id, old_status, new_status, meta, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY created_at, id
	`, bookingID)
	return rows, err
}
