package store

import (
	"context"

	"cleanly/internal/models"
)

type DebtThresholdStore struct {
	db DB
}

func NewDebtThresholdStore(db DB) *DebtThresholdStore {
	return &DebtThresholdStore{db: db}
}

func (s *DebtThresholdStore) Get(ctx context.Context, cleanerID string) (models.DebtThreshold, error) {
	var row models.DebtThreshold
	err := s.db.GetContext(ctx, &row, `
		SELECT cleaner_id, debt_limit, updated_at
		FROM debt_thresholds
		WHERE cleaner_id = $1
	`, cleanerID)
	return row, err
}

func (s *DebtThresholdStore) Upsert(ctx context.Context, tx Execer, cleanerID string, debtLimit int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO debt_thresholds (cleaner_id, debt_limit)
		VALUES ($1, $2)
		ON CONFLICT (cleaner_id) DO UPDATE
		SET debt_limit = EXCLUDED.debt_limit, updated_at = now()
	`, cleanerID, debtLimit)
	return err
}
