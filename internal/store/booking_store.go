package store

import (
	"context"
	"time"

	"cleanly/internal/models"
)

type BookingStore struct {
	db DB
}

func NewBookingStore(db DB) *BookingStore {
	return &BookingStore{db: db}
}

type BookingInput struct {
	ID          string
	ClientID    string
	Status      models.BookingStatus
	BasePrice   int64
	AddonsTotal int64
	TotalPrice  int64
	ScheduledAt time.Time
	Address     string
	Notes       string
}

func (s *BookingStore) Create(ctx context.Context, tx Execer, input BookingInput) error {
	query := `
		INSERT INTO bookings (id, client_id, status, base_price, addons_total, total_price, scheduled_at, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.ClientID, input.Status, input.BasePrice, input.AddonsTotal,
		input.TotalPrice, input.ScheduledAt, input.Address, input.Notes,
	)
	return err
}

func (s *BookingStore) GetByID(ctx context.Context, bookingID string) (models.Booking, error) {
	var row models.Booking
	err := s.db.GetContext(ctx, &row, `
		SELECT id, client_id, cleaner_id, status, base_price, addons_total, total_price,
		       scheduled_at, address, notes, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, bookingID)
	return row, err
}

func (s *BookingStore) GetForUpdate(ctx context.Context, tx Getter, bookingID string) (models.Booking, error) {
	var row models.Booking
	err := tx.GetContext(ctx, &row, `
		SELECT id, client_id, cleaner_id, status, base_price, addons_total, total_price,
		       scheduled_at, address, notes, created_at, updated_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingID)
	return row, err
}

// UpdateStatus moves a booking from one status to another only if it is still
// in the expected prior status; the returned row count is zero when another
// caller got there first.
func (s *BookingStore) UpdateStatus(ctx context.Context, tx Execer, bookingID string, from, to models.BookingStatus) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, bookingID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AssignCleaner records the accepting cleaner on a still-unassigned booking.
func (s *BookingStore) AssignCleaner(ctx context.Context, tx Execer, bookingID, cleanerID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET cleaner_id = $1, updated_at = now()
		WHERE id = $2 AND cleaner_id IS NULL
	`, cleanerID, bookingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *BookingStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Booking, error) {
	var rows []models.Booking
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, client_id, cleaner_id, status, base_price, addons_total, total_price,
		       scheduled_at, address, notes, created_at, updated_at
		FROM bookings
		WHERE client_id = $1 OR cleaner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}

// ListStaleCompleted returns bookings still sitting in COMPLETED whose last
// update is older than the cutoff, i.e. the client never confirmed in time.
func (s *BookingStore) ListStaleCompleted(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var rows []models.Booking
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, client_id, cleaner_id, status, base_price, addons_total, total_price,
		       scheduled_at, address, notes, created_at, updated_at
		FROM bookings
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
	`, models.StatusCompleted, cutoff)
	return rows, err
}
