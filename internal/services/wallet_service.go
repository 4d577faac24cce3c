package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"cleanly/internal/commission"
	"cleanly/internal/db"
	"cleanly/internal/models"
	"cleanly/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Ledger amounts are minor units (halalas).
const (
	maxAdjustmentMinor    = 500_000    // 5,000.00
	minDebtLimitMinor     = -1_000_000 // -10,000.00
	defaultDebtLimitMinor = -20_000    // -200.00
)

type WalletStore interface {
	Get(ctx context.Context, ownerID string) (models.Wallet, error)
	ApplyTransaction(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error
	ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error)
	ListBalanceSummaries(ctx context.Context) ([]store.WalletBalanceSummary, error)
}

type DebtThresholdStore interface {
	Get(ctx context.Context, cleanerID string) (models.DebtThreshold, error)
	Upsert(ctx context.Context, tx store.Execer, cleanerID string, debtLimit int64) error
}

type CommissionReader interface {
	Summarize(ctx context.Context, cleanerID string) (store.CommissionSummary, error)
	MonthlyTotals(ctx context.Context, cleanerID string, months int) ([]store.CommissionPeriodTotal, error)
}

type CleanerProfileReader interface {
	GetProfile(ctx context.Context, userID string) (models.CleanerProfile, error)
}

type WalletService struct {
	txRunner    db.TxRunner
	wallets     WalletStore
	thresholds  DebtThresholdStore
	commissions CommissionReader
	cleaners    CleanerProfileReader
	audit       AuditStore
}

func NewWalletService(txRunner db.TxRunner, wallets WalletStore, thresholds DebtThresholdStore, commissions CommissionReader, cleaners CleanerProfileReader, audit AuditStore) *WalletService {
	return &WalletService{
		txRunner:    txRunner,
		wallets:     wallets,
		thresholds:  thresholds,
		commissions: commissions,
		cleaners:    cleaners,
		audit:       audit,
	}
}

type WalletView struct {
	OwnerID       string `json:"owner_id"`
	Balance       int64  `json:"balance"`
	DebtThreshold int64  `json:"debt_threshold"`
	IsBlocked     bool   `json:"is_blocked"`
}

// GetWallet returns the wallet balance together with the blocking decision: a
// cleaner whose balance has fallen below their debt threshold is blocked from
// taking new work.
func (s *WalletService) GetWallet(ctx context.Context, ownerID string) (WalletView, error) {
	wallet, err := s.wallets.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WalletView{}, ErrNotFound
		}
		return WalletView{}, err
	}
	limit := int64(defaultDebtLimitMinor)
	threshold, err := s.thresholds.Get(ctx, ownerID)
	if err == nil {
		limit = threshold.DebtLimit
	} else if !errors.Is(err, sql.ErrNoRows) {
		return WalletView{}, err
	}
	return WalletView{
		OwnerID:       ownerID,
		Balance:       wallet.Balance,
		DebtThreshold: limit,
		IsBlocked:     wallet.Balance < limit,
	}, nil
}

type AddTransactionRequest struct {
	OwnerID   string
	Type      models.WalletTransactionType
	Amount    int64
	BookingID *string
	Meta      string
}

// AddTransaction appends one wallet transaction and moves the balance by the
// same amount, atomically.
func (s *WalletService) AddTransaction(ctx context.Context, req AddTransactionRequest) (models.WalletTransaction, error) {
	input := store.WalletTransactionInput{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Type:      req.Type,
		Amount:    req.Amount,
		BookingID: req.BookingID,
		Meta:      req.Meta,
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.wallets.ApplyTransaction(ctx, tx, input)
	})
	if err != nil {
		return models.WalletTransaction{}, err
	}
	return models.WalletTransaction{
		ID:        input.ID,
		OwnerID:   input.OwnerID,
		Type:      input.Type,
		Amount:    input.Amount,
		BookingID: input.BookingID,
		Meta:      input.Meta,
	}, nil
}

// AdjustBalance is the admin-only correction path. Adjustments are capped and
// always audited with the acting admin and their stated reason.
func (s *WalletService) AdjustBalance(ctx context.Context, ownerID string, amount int64, reason, actorID string) (models.WalletTransaction, error) {
	if amount == 0 || amount > maxAdjustmentMinor || amount < -maxAdjustmentMinor {
		return models.WalletTransaction{}, ErrInvalidAmount
	}
	meta, _ := json.Marshal(map[string]string{
		"actor_id": actorID,
		"reason":   reason,
	})
	input := store.WalletTransactionInput{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Type:    models.TxAdjustment,
		Amount:  amount,
		Meta:    string(meta),
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.wallets.ApplyTransaction(ctx, tx, input); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actorID, "wallet_adjust", "wallet", ownerID, string(meta))
	})
	if err != nil {
		return models.WalletTransaction{}, err
	}
	return models.WalletTransaction{
		ID:      input.ID,
		OwnerID: ownerID,
		Type:    models.TxAdjustment,
		Amount:  amount,
		Meta:    input.Meta,
	}, nil
}

func (s *WalletService) UpdateDebtThreshold(ctx context.Context, ownerID string, newLimit int64, actorID string) error {
	if newLimit > 0 || newLimit < minDebtLimitMinor {
		return ErrInvalidAmount
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.thresholds.Upsert(ctx, tx, ownerID, newLimit); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]int64{"debt_limit": newLimit})
		return s.audit.Log(ctx, tx, actorID, "debt_threshold_update", "wallet", ownerID, string(data))
	})
}

func (s *WalletService) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error) {
	return s.wallets.ListTransactions(ctx, ownerID, limit, offset)
}

type CommissionSummaryView struct {
	TotalJobs         int                           `json:"total_jobs"`
	FreeJobs          int                           `json:"free_jobs"`
	PaidJobs          int                           `json:"paid_jobs"`
	FreeJobsRemaining int                           `json:"free_jobs_remaining"`
	TotalCommission   int64                         `json:"total_commission"`
	ByMonth           []store.CommissionPeriodTotal `json:"by_month"`
}

func (s *WalletService) GetCommissionSummary(ctx context.Context, ownerID string) (CommissionSummaryView, error) {
	freeJobsUsed := 0
	profile, err := s.cleaners.GetProfile(ctx, ownerID)
	if err == nil {
		freeJobsUsed = profile.FreeJobsUsed
	} else if !errors.Is(err, sql.ErrNoRows) {
		return CommissionSummaryView{}, err
	}
	summary, err := s.commissions.Summarize(ctx, ownerID)
	if err != nil {
		return CommissionSummaryView{}, err
	}
	byMonth, err := s.commissions.MonthlyTotals(ctx, ownerID, 12)
	if err != nil {
		return CommissionSummaryView{}, err
	}
	remaining := commission.DefaultFreeJobThreshold - freeJobsUsed
	if remaining < 0 {
		remaining = 0
	}
	return CommissionSummaryView{
		TotalJobs:         summary.TotalJobs,
		FreeJobs:          summary.FreeJobs,
		PaidJobs:          summary.PaidJobs,
		FreeJobsRemaining: remaining,
		TotalCommission:   summary.TotalCommission,
		ByMonth:           byMonth,
	}, nil
}

// Reconcile compares every stored wallet balance against the sum of its
// transactions.
func (s *WalletService) Reconcile(ctx context.Context) ([]store.WalletBalanceSummary, error) {
	return s.wallets.ListBalanceSummaries(ctx)
}
