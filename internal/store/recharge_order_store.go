package store

import (
	"context"

	"cleanly/internal/models"
)

type RechargeOrderStore struct {
	db DB
}

func NewRechargeOrderStore(db DB) *RechargeOrderStore {
	return &RechargeOrderStore{db: db}
}

type RechargeOrderInput struct {
	ID              string
	OwnerID         string
	ProviderOrderID string
	Amount          int64
	Currency        string
	Status          string
}

func (s *RechargeOrderStore) Create(ctx context.Context, tx Execer, input RechargeOrderInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO recharge_orders (id, owner_id, provider_order_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.ID, input.OwnerID, input.ProviderOrderID, input.Amount, input.Currency, input.Status)
	return err
}

func (s *RechargeOrderStore) GetByProviderOrderID(ctx context.Context, providerOrderID string) (models.RechargeOrder, error) {
	var row models.RechargeOrder
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_id, provider_order_id, capture_id, amount, currency, status, created_at, completed_at
		FROM recharge_orders
		WHERE provider_order_id = $1
	`, providerOrderID)
	return row, err
}

// MarkCompleted flips a pending order to completed and records the provider
// capture id; zero rows affected means the order was already settled by
// another call.
func (s *RechargeOrderStore) MarkCompleted(ctx context.Context, tx Execer, providerOrderID, captureID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE recharge_orders
		SET status = 'COMPLETED', capture_id = $2, completed_at = now()
		WHERE provider_order_id = $1 AND status = 'PENDING'
	`, providerOrderID, captureID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
