package store

import (
	"context"

	"cleanly/internal/models"
)

type CommissionStore struct {
	db DB
}

func NewCommissionStore(db DB) *CommissionStore {
	return &CommissionStore{db: db}
}

type CommissionInput struct {
	BookingID        string
	CleanerID        string
	Percentage       string
	CommissionAmount int64
	IsFree           bool
	Status           string
}

func (s *CommissionStore) Create(ctx context.Context, tx Execer, input CommissionInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO commissions (booking_id, cleaner_id, percentage, commission_amount, is_free, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.BookingID, input.CleanerID, input.Percentage, input.CommissionAmount, input.IsFree, input.Status)
	return err
}

func (s *CommissionStore) Exists(ctx context.Context, tx Getter, bookingID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM commissions WHERE booking_id = $1)
	`, bookingID)
	return exists, err
}

func (s *CommissionStore) GetByBooking(ctx context.Context, bookingID string) (models.Commission, error) {
	var row models.Commission
	err := s.db.GetContext(ctx, &row, `
		SELECT booking_id, cleaner_id, percentage, commission_amount, is_free, status, created_at
		FROM commissions
		WHERE booking_id = $1
	`, bookingID)
	return row, err
}

type CommissionSummary struct {
	TotalJobs       int   `db:"total_jobs"`
	FreeJobs        int   `db:"free_jobs"`
	PaidJobs        int   `db:"paid_jobs"`
	TotalCommission int64 `db:"total_commission"`
}

// Summarize keys the free/paid split on the recorded verdict rather than the
// amount; a zero-price booking past the free tier still counts as paid.
func (s *CommissionStore) Summarize(ctx context.Context, cleanerID string) (CommissionSummary, error) {
	var row CommissionSummary
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total_jobs,
		       COUNT(*) FILTER (WHERE is_free) AS free_jobs,
		       COUNT(*) FILTER (WHERE NOT is_free) AS paid_jobs,
		       COALESCE(SUM(commission_amount), 0) AS total_commission
		FROM commissions
		WHERE cleaner_id = $1
	`, cleanerID)
	return row, err
}

type CommissionPeriodTotal struct {
	Period          string `db:"period"`
	Jobs            int    `db:"jobs"`
	CommissionTotal int64  `db:"commission_total"`
}

func (s *CommissionStore) MonthlyTotals(ctx context.Context, cleanerID string, months int) ([]CommissionPeriodTotal, error) {
	var rows []CommissionPeriodTotal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT to_char(created_at, 'YYYY-MM') AS period,
		       COUNT(*) AS jobs,
		       COALESCE(SUM(commission_amount), 0) AS commission_total
		FROM commissions
		WHERE cleaner_id = $1
		GROUP BY 1
		ORDER BY 1 DESC
		LIMIT $2
	`, cleanerID, months)
	return rows, err
}
