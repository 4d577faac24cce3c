package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"cleanly/internal/db"
	"cleanly/internal/models"
	"cleanly/internal/payments"
	"cleanly/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	minRechargeMinor = 5_000     // 50.00
	maxRechargeMinor = 1_000_000 // 10,000.00
)

type RechargeOrderStore interface {
	Create(ctx context.Context, tx store.Execer, input store.RechargeOrderInput) error
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (models.RechargeOrder, error)
	MarkCompleted(ctx context.Context, tx store.Execer, providerOrderID, captureID string) (int64, error)
}

type CaptureLookup interface {
	ApplyTransaction(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error
	Get(ctx context.Context, ownerID string) (models.Wallet, error)
	GetTransactionByCaptureID(ctx context.Context, captureID string) (models.WalletTransaction, error)
}

// RechargeService turns captured provider payments into wallet credits. A
// capture may only ever be applied to the ledger once; the unique index on
// wallet_transactions.capture_id backs that up when calls race.
type RechargeService struct {
	txRunner db.TxRunner
	wallets  CaptureLookup
	orders   RechargeOrderStore
	audit    AuditStore
	provider payments.Provider
	log      *zap.Logger

	providerCurrency string
	ledgerCurrency   string
	rate             decimal.Decimal

	webhookHandlers map[string]func(ctx context.Context, event payments.WebhookEvent) error
}

func NewRechargeService(txRunner db.TxRunner, wallets CaptureLookup, orders RechargeOrderStore, audit AuditStore, provider payments.Provider, providerCurrency, ledgerCurrency, conversionRate string, log *zap.Logger) (*RechargeService, error) {
	rate, err := decimal.NewFromString(conversionRate)
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("invalid conversion rate")
	}
	s := &RechargeService{
		txRunner:         txRunner,
		wallets:          wallets,
		orders:           orders,
		audit:            audit,
		provider:         provider,
		log:              log,
		providerCurrency: providerCurrency,
		ledgerCurrency:   ledgerCurrency,
		rate:             rate,
	}
	// Webhook events only produce audit records; the ledger credit happens on
	// the capture path. Redelivered events are therefore harmless.
	s.webhookHandlers = map[string]func(ctx context.Context, event payments.WebhookEvent) error{
		"CHECKOUT.ORDER.APPROVED":   s.auditWebhook("payment_order_approved"),
		"PAYMENT.CAPTURE.COMPLETED": s.auditWebhook("payment_captured"),
		"PAYMENT.CAPTURE.DENIED":    s.auditWebhook("payment_denied"),
	}
	return s, nil
}

type RechargeOrderView struct {
	ProviderOrderID string `json:"provider_order_id"`
	ApproveURL      string `json:"approve_url,omitempty"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// InitiateRecharge creates a provider order for the requested ledger amount
// and records it as pending. Amount bounds are in ledger minor units.
func (s *RechargeService) InitiateRecharge(ctx context.Context, ownerID string, amountMinor int64) (RechargeOrderView, error) {
	if amountMinor < minRechargeMinor || amountMinor > maxRechargeMinor {
		return RechargeOrderView{}, ErrInvalidAmount
	}
	providerAmount := s.toProviderMinor(amountMinor)
	order, err := s.provider.CreateOrder(ctx, providerAmount, s.providerCurrency)
	if err != nil {
		return RechargeOrderView{}, err
	}
	data, _ := json.Marshal(map[string]any{
		"provider_order_id": order.ID,
		"amount":            amountMinor,
		"provider_amount":   providerAmount,
	})
	// Pending order and its audit row land in the same unit.
	if err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.Create(ctx, tx, store.RechargeOrderInput{
			ID:              uuid.NewString(),
			OwnerID:         ownerID,
			ProviderOrderID: order.ID,
			Amount:          amountMinor,
			Currency:        s.ledgerCurrency,
			Status:          "PENDING",
		}); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, ownerID, "recharge_initiate", "recharge_order", order.ID, string(data))
	}); err != nil {
		return RechargeOrderView{}, err
	}
	return RechargeOrderView{
		ProviderOrderID: order.ID,
		ApproveURL:      order.ApproveURL,
		Amount:          amountMinor,
		Currency:        s.ledgerCurrency,
	}, nil
}

type CompleteRechargeResult struct {
	Transaction models.WalletTransaction `json:"transaction"`
	Wallet      models.Wallet            `json:"wallet"`
}

// CompleteRecharge captures the provider order and credits the wallet with
// the converted amount. Replaying a completion for an already-applied capture
// returns the original transaction without a second credit.
func (s *RechargeService) CompleteRecharge(ctx context.Context, ownerID, providerOrderID string) (CompleteRechargeResult, error) {
	order, err := s.orders.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CompleteRechargeResult{}, ErrNotFound
		}
		return CompleteRechargeResult{}, err
	}
	if order.OwnerID != ownerID {
		return CompleteRechargeResult{}, ErrForbidden
	}
	if order.Status == "COMPLETED" && order.CaptureID != nil {
		return s.alreadyApplied(ctx, ownerID, *order.CaptureID)
	}

	capture, err := s.provider.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		return CompleteRechargeResult{}, err
	}
	if capture.Status != payments.CaptureCompleted {
		return CompleteRechargeResult{}, ErrPaymentNotCompleted
	}
	if existing, err := s.wallets.GetTransactionByCaptureID(ctx, capture.ID); err == nil {
		return s.result(ctx, ownerID, existing)
	}

	credited := s.toLedgerMinor(capture.Amount)
	meta, _ := json.Marshal(map[string]any{
		"provider_order_id": capture.OrderID,
		"capture_id":        capture.ID,
		"conversion_rate":   s.rate.String(),
		"provider_amount":   capture.Amount,
		"provider_currency": capture.Currency,
	})
	captureID := capture.ID
	input := store.WalletTransactionInput{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Type:      models.TxRecharge,
		Amount:    credited,
		CaptureID: &captureID,
		Meta:      string(meta),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.orders.MarkCompleted(ctx, tx, providerOrderID, capture.ID); err != nil {
			return err
		}
		if err := s.wallets.ApplyTransaction(ctx, tx, input); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, ownerID, "recharge_complete", "recharge_order", providerOrderID, string(meta))
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			// A concurrent completion won; nothing here was committed.
			return s.alreadyApplied(ctx, ownerID, capture.ID)
		}
		return CompleteRechargeResult{}, err
	}
	return s.result(ctx, ownerID, models.WalletTransaction{
		ID:        input.ID,
		OwnerID:   ownerID,
		Type:      models.TxRecharge,
		Amount:    credited,
		CaptureID: input.CaptureID,
		Meta:      input.Meta,
	})
}

func (s *RechargeService) alreadyApplied(ctx context.Context, ownerID, captureID string) (CompleteRechargeResult, error) {
	existing, err := s.wallets.GetTransactionByCaptureID(ctx, captureID)
	if err != nil {
		return CompleteRechargeResult{}, err
	}
	return s.result(ctx, ownerID, existing)
}

func (s *RechargeService) result(ctx context.Context, ownerID string, tx models.WalletTransaction) (CompleteRechargeResult, error) {
	wallet, err := s.wallets.Get(ctx, ownerID)
	if err != nil {
		return CompleteRechargeResult{}, err
	}
	return CompleteRechargeResult{Transaction: tx, Wallet: wallet}, nil
}

// HandleWebhook verifies the provider signature and dispatches on event type.
// Unknown event types are logged and acknowledged.
func (s *RechargeService) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	event, err := s.provider.VerifyWebhook(ctx, headers, body)
	if err != nil {
		return ErrWebhookVerificationFailed
	}
	handler, ok := s.webhookHandlers[event.EventType]
	if !ok {
		s.log.Info("ignoring unhandled webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType))
		return nil
	}
	return handler(ctx, event)
}

func (s *RechargeService) auditWebhook(action string) func(ctx context.Context, event payments.WebhookEvent) error {
	return func(ctx context.Context, event payments.WebhookEvent) error {
		data, _ := json.Marshal(map[string]any{
			"event_id":   event.ID,
			"event_type": event.EventType,
		})
		return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			return s.audit.Log(ctx, tx, "provider", action, "webhook_event", event.ID, string(data))
		})
	}
}

// toLedgerMinor converts provider minor units into ledger minor units at the
// recorded rate.
func (s *RechargeService) toLedgerMinor(providerMinor int64) int64 {
	return decimal.NewFromInt(providerMinor).Mul(s.rate).Round(0).IntPart()
}

// toProviderMinor converts a ledger amount into provider minor units.
func (s *RechargeService) toProviderMinor(ledgerMinor int64) int64 {
	return decimal.NewFromInt(ledgerMinor).Div(s.rate).Round(0).IntPart()
}
