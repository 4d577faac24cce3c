package services

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"cleanly/internal/models"
	"cleanly/internal/payments"
	"cleanly/internal/store"
	"cleanly/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubBookingStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.BookingInput) error
	getByIDFn       func(ctx context.Context, bookingID string) (models.Booking, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, bookingID string) (models.Booking, error)
	updateStatusFn  func(ctx context.Context, tx store.Execer, bookingID string, from, to models.BookingStatus) (int64, error)
	assignCleanerFn func(ctx context.Context, tx store.Execer, bookingID, cleanerID string) (int64, error)
}

func (s stubBookingStore) Create(ctx context.Context, tx store.Execer, input store.BookingInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubBookingStore) GetByID(ctx context.Context, bookingID string) (models.Booking, error) {
	if s.getByIDFn == nil {
		return models.Booking{ID: bookingID}, nil
	}
	return s.getByIDFn(ctx, bookingID)
}

func (s stubBookingStore) GetForUpdate(ctx context.Context, tx store.Getter, bookingID string) (models.Booking, error) {
	return s.getForUpdateFn(ctx, tx, bookingID)
}

func (s stubBookingStore) UpdateStatus(ctx context.Context, tx store.Execer, bookingID string, from, to models.BookingStatus) (int64, error) {
	if s.updateStatusFn == nil {
		return 1, nil
	}
	return s.updateStatusFn(ctx, tx, bookingID, from, to)
}

func (s stubBookingStore) AssignCleaner(ctx context.Context, tx store.Execer, bookingID, cleanerID string) (int64, error) {
	if s.assignCleanerFn == nil {
		return 1, nil
	}
	return s.assignCleanerFn(ctx, tx, bookingID, cleanerID)
}

type stubEventStore struct {
	insertFn func(ctx context.Context, tx store.Execer, input store.BookingEventInput) error
	listFn   func(ctx context.Context, bookingID string) ([]models.BookingEvent, error)
}

func (s stubEventStore) Insert(ctx context.Context, tx store.Execer, input store.BookingEventInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s stubEventStore) ListByBooking(ctx context.Context, bookingID string) ([]models.BookingEvent, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, bookingID)
}

type stubCleanerStore struct {
	incrementFn func(ctx context.Context, tx store.Getter, userID string, freeJobThreshold int) (int, error)
}

func (s stubCleanerStore) IncrementJobCounters(ctx context.Context, tx store.Getter, userID string, freeJobThreshold int) (int, error) {
	if s.incrementFn == nil {
		return 1, nil
	}
	return s.incrementFn(ctx, tx, userID, freeJobThreshold)
}

type stubCommissionStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.CommissionInput) error
	existsFn func(ctx context.Context, tx store.Getter, bookingID string) (bool, error)
}

func (s stubCommissionStore) Create(ctx context.Context, tx store.Execer, input store.CommissionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubCommissionStore) Exists(ctx context.Context, tx store.Getter, bookingID string) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, tx, bookingID)
}

type stubWalletLedger struct {
	applyFn func(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error
}

func (s stubWalletLedger) ApplyTransaction(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error {
	if s.applyFn == nil {
		return nil
	}
	return s.applyFn(ctx, tx, input)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	calls []websocket.BookingUpdate
}

func (s *stubHub) BroadcastBooking(_ string, update websocket.BookingUpdate) {
	s.calls = append(s.calls, update)
}

type stubWalletStore struct {
	getFn           func(ctx context.Context, ownerID string) (models.Wallet, error)
	applyFn         func(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error
	listTxFn        func(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error)
	listSummariesFn func(ctx context.Context) ([]store.WalletBalanceSummary, error)
}

func (s stubWalletStore) Get(ctx context.Context, ownerID string) (models.Wallet, error) {
	if s.getFn == nil {
		return models.Wallet{OwnerID: ownerID}, nil
	}
	return s.getFn(ctx, ownerID)
}

func (s stubWalletStore) ApplyTransaction(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error {
	if s.applyFn == nil {
		return nil
	}
	return s.applyFn(ctx, tx, input)
}

func (s stubWalletStore) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error) {
	if s.listTxFn == nil {
		return nil, nil
	}
	return s.listTxFn(ctx, ownerID, limit, offset)
}

func (s stubWalletStore) ListBalanceSummaries(ctx context.Context) ([]store.WalletBalanceSummary, error) {
	if s.listSummariesFn == nil {
		return nil, nil
	}
	return s.listSummariesFn(ctx)
}

type stubThresholdStore struct {
	getFn    func(ctx context.Context, cleanerID string) (models.DebtThreshold, error)
	upsertFn func(ctx context.Context, tx store.Execer, cleanerID string, debtLimit int64) error
}

func (s stubThresholdStore) Get(ctx context.Context, cleanerID string) (models.DebtThreshold, error) {
	if s.getFn == nil {
		return models.DebtThreshold{}, sql.ErrNoRows
	}
	return s.getFn(ctx, cleanerID)
}

func (s stubThresholdStore) Upsert(ctx context.Context, tx store.Execer, cleanerID string, debtLimit int64) error {
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, tx, cleanerID, debtLimit)
}

type stubCommissionReader struct {
	summarizeFn func(ctx context.Context, cleanerID string) (store.CommissionSummary, error)
	monthlyFn   func(ctx context.Context, cleanerID string, months int) ([]store.CommissionPeriodTotal, error)
}

func (s stubCommissionReader) Summarize(ctx context.Context, cleanerID string) (store.CommissionSummary, error) {
	if s.summarizeFn == nil {
		return store.CommissionSummary{}, nil
	}
	return s.summarizeFn(ctx, cleanerID)
}

func (s stubCommissionReader) MonthlyTotals(ctx context.Context, cleanerID string, months int) ([]store.CommissionPeriodTotal, error) {
	if s.monthlyFn == nil {
		return nil, nil
	}
	return s.monthlyFn(ctx, cleanerID, months)
}

type stubCleanerProfiles struct {
	getProfileFn func(ctx context.Context, userID string) (models.CleanerProfile, error)
}

func (s stubCleanerProfiles) GetProfile(ctx context.Context, userID string) (models.CleanerProfile, error) {
	if s.getProfileFn == nil {
		return models.CleanerProfile{}, sql.ErrNoRows
	}
	return s.getProfileFn(ctx, userID)
}

type stubCaptureLookup struct {
	applyFn        func(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error
	getFn          func(ctx context.Context, ownerID string) (models.Wallet, error)
	getByCaptureFn func(ctx context.Context, captureID string) (models.WalletTransaction, error)
}

func (s stubCaptureLookup) ApplyTransaction(ctx context.Context, tx store.Execer, input store.WalletTransactionInput) error {
	if s.applyFn == nil {
		return nil
	}
	return s.applyFn(ctx, tx, input)
}

func (s stubCaptureLookup) Get(ctx context.Context, ownerID string) (models.Wallet, error) {
	if s.getFn == nil {
		return models.Wallet{OwnerID: ownerID}, nil
	}
	return s.getFn(ctx, ownerID)
}

func (s stubCaptureLookup) GetTransactionByCaptureID(ctx context.Context, captureID string) (models.WalletTransaction, error) {
	if s.getByCaptureFn == nil {
		return models.WalletTransaction{}, sql.ErrNoRows
	}
	return s.getByCaptureFn(ctx, captureID)
}

type stubRechargeOrders struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.RechargeOrderInput) error
	getByProviderFn func(ctx context.Context, providerOrderID string) (models.RechargeOrder, error)
	markCompletedFn func(ctx context.Context, tx store.Execer, providerOrderID, captureID string) (int64, error)
}

func (s stubRechargeOrders) Create(ctx context.Context, tx store.Execer, input store.RechargeOrderInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubRechargeOrders) GetByProviderOrderID(ctx context.Context, providerOrderID string) (models.RechargeOrder, error) {
	if s.getByProviderFn == nil {
		return models.RechargeOrder{}, sql.ErrNoRows
	}
	return s.getByProviderFn(ctx, providerOrderID)
}

func (s stubRechargeOrders) MarkCompleted(ctx context.Context, tx store.Execer, providerOrderID, captureID string) (int64, error) {
	if s.markCompletedFn == nil {
		return 1, nil
	}
	return s.markCompletedFn(ctx, tx, providerOrderID, captureID)
}

type stubProvider struct {
	createOrderFn   func(ctx context.Context, amountMinor int64, currency string) (payments.Order, error)
	captureOrderFn  func(ctx context.Context, orderID string) (payments.Capture, error)
	verifyWebhookFn func(ctx context.Context, headers http.Header, body []byte) (payments.WebhookEvent, error)
}

func (s stubProvider) CreateOrder(ctx context.Context, amountMinor int64, currency string) (payments.Order, error) {
	if s.createOrderFn == nil {
		return payments.Order{ID: "order-1"}, nil
	}
	return s.createOrderFn(ctx, amountMinor, currency)
}

func (s stubProvider) CaptureOrder(ctx context.Context, orderID string) (payments.Capture, error) {
	return s.captureOrderFn(ctx, orderID)
}

func (s stubProvider) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (payments.WebhookEvent, error) {
	return s.verifyWebhookFn(ctx, headers, body)
}

type stubStaleLister struct {
	listFn func(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

func (s stubStaleLister) ListStaleCompleted(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	return s.listFn(ctx, cutoff)
}

type stubTransitioner struct {
	transitionFn func(ctx context.Context, req TransitionRequest) (models.Booking, error)
}

func (s stubTransitioner) Transition(ctx context.Context, req TransitionRequest) (models.Booking, error) {
	return s.transitionFn(ctx, req)
}

type stubFraudFlags struct {
	insertFn func(ctx context.Context, input store.FraudFlagInput) error
}

func (s stubFraudFlags) Insert(ctx context.Context, input store.FraudFlagInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, input)
}

func stringPtr(s string) *string {
	return &s
}
