package store

import (
	"context"

	"cleanly/internal/models"
)

type FraudFlagStore struct {
	db DB
}

func NewFraudFlagStore(db DB) *FraudFlagStore {
	return &FraudFlagStore{db: db}
}

type FraudFlagInput struct {
	ID       string
	UserID   string
	Type     string
	Severity string
	Reason   string
}

func (s *FraudFlagStore) Insert(ctx context.Context, input FraudFlagInput) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fraud_flags (id, user_id, type, severity, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, input.ID, input.UserID, input.Type, input.Severity, input.Reason)
	return err
}

func (s *FraudFlagStore) List(ctx context.Context, limit, offset int) ([]models.FraudFlag, error) {
	var rows []models.FraudFlag
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, type, severity, reason, created_at
		FROM fraud_flags
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}
