package store

import (
	"context"

	"cleanly/internal/models"
)

type WalletStore struct {
	db DB
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, ownerID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (owner_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (owner_id) DO NOTHING
	`, ownerID)
	return err
}

func (s *WalletStore) Get(ctx context.Context, ownerID string) (models.Wallet, error) {
	var row models.Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT owner_id, balance, updated_at
		FROM wallets
		WHERE owner_id = $1
	`, ownerID)
	return row, err
}

type WalletTransactionInput struct {
	ID        string
	OwnerID   string
	Type      models.WalletTransactionType
	Amount    int64
	BookingID *string
	CaptureID *string
	Meta      string
}

// ApplyTransaction increments the wallet balance and appends the matching
// transaction row in the caller's transaction. The balance is never written
// without a paired ledger row; this is the only mutation path.
func (s *WalletStore) ApplyTransaction(ctx context.Context, tx Execer, input WalletTransactionInput) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (owner_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = now()
	`, input.OwnerID, input.Amount); err != nil {
		return err
	}
	meta := input.Meta
	if meta == "" {
		meta = "{}"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, owner_id, type, amount, booking_id, capture_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, input.ID, input.OwnerID, input.Type, input.Amount, input.BookingID, input.CaptureID, meta)
	return err
}

func (s *WalletStore) GetTransactionByCaptureID(ctx context.Context, captureID string) (models.WalletTransaction, error) {
	var row models.WalletTransaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_id, type, amount, booking_id, capture_id, meta, created_at
		FROM wallet_transactions
		WHERE capture_id = $1
	`, captureID)
	return row, err
}

func (s *WalletStore) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, owner_id, type, amount, booking_id, capture_id, meta, created_at
		FROM wallet_transactions
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	return rows, err
}

func (s *WalletStore) SumByOwner(ctx context.Context, ownerID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		WHERE owner_id = $1
	`, ownerID)
	return sum, err
}

type WalletBalanceSummary struct {
	OwnerID           string `db:"owner_id"`
	StoredBalance     int64  `db:"stored_balance"`
	CalculatedBalance int64  `db:"calculated_balance"`
	Difference        int64  `db:"difference"`
}

// ListBalanceSummaries compares each stored wallet balance against the sum of
// its transaction rows. Any nonzero difference means the ledger invariant has
// been broken.
func (s *WalletStore) ListBalanceSummaries(ctx context.Context) ([]WalletBalanceSummary, error) {
	var rows []WalletBalanceSummary
	err := s.db.SelectContext(ctx, &rows, `
		SELECT w.owner_id,
		       w.balance AS stored_balance,
		       COALESCE(SUM(t.amount), 0) AS calculated_balance,
		       (w.balance - COALESCE(SUM(t.amount), 0)) AS difference
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.owner_id = w.owner_id
		GROUP BY w.owner_id, w.balance
		ORDER BY w.owner_id
	`)
	return rows, err
}
