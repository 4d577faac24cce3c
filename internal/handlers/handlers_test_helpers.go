package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cleanly/internal/auth"
	"cleanly/internal/config"
	"cleanly/internal/models"
	"cleanly/internal/services"
	"cleanly/internal/store"
	"cleanly/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, role models.Role) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, role models.Role) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash, role)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubCleanerStore struct {
	createProfileFn func(ctx context.Context, tx store.Execer, userID string) error
}

func (s stubCleanerStore) CreateProfile(ctx context.Context, tx store.Execer, userID string) error {
	if s.createProfileFn == nil {
		return nil
	}
	return s.createProfileFn(ctx, tx, userID)
}

type stubWalletStore struct {
	createFn func(ctx context.Context, tx store.Execer, ownerID string) error
}

func (s stubWalletStore) Create(ctx context.Context, tx store.Execer, ownerID string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, ownerID)
}

type stubBookingLister struct {
	listFn func(ctx context.Context, userID string, limit, offset int) ([]models.Booking, error)
}

func (s stubBookingLister) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Booking, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, limit, offset)
}

type stubFraudFlagStore struct {
	listFn func(ctx context.Context, limit, offset int) ([]models.FraudFlag, error)
}

func (s stubFraudFlagStore) List(ctx context.Context, limit, offset int) ([]models.FraudFlag, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubBookingService struct {
	createFn     func(ctx context.Context, req services.CreateBookingRequest) (models.Booking, error)
	transitionFn func(ctx context.Context, req services.TransitionRequest) (models.Booking, error)
	historyFn    func(ctx context.Context, bookingID string) ([]models.BookingEvent, error)
}

func (s stubBookingService) CreateBooking(ctx context.Context, req services.CreateBookingRequest) (models.Booking, error) {
	if s.createFn == nil {
		return models.Booking{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubBookingService) Transition(ctx context.Context, req services.TransitionRequest) (models.Booking, error) {
	if s.transitionFn == nil {
		return models.Booking{}, nil
	}
	return s.transitionFn(ctx, req)
}

func (s stubBookingService) GetHistory(ctx context.Context, bookingID string) ([]models.BookingEvent, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, bookingID)
}

type stubWalletService struct {
	getWalletFn       func(ctx context.Context, ownerID string) (services.WalletView, error)
	adjustFn          func(ctx context.Context, ownerID string, amount int64, reason, actorID string) (models.WalletTransaction, error)
	updateThresholdFn func(ctx context.Context, ownerID string, newLimit int64, actorID string) error
	listTxFn          func(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error)
	summaryFn         func(ctx context.Context, ownerID string) (services.CommissionSummaryView, error)
	reconcileFn       func(ctx context.Context) ([]store.WalletBalanceSummary, error)
}

func (s stubWalletService) GetWallet(ctx context.Context, ownerID string) (services.WalletView, error) {
	if s.getWalletFn == nil {
		return services.WalletView{OwnerID: ownerID}, nil
	}
	return s.getWalletFn(ctx, ownerID)
}

func (s stubWalletService) AdjustBalance(ctx context.Context, ownerID string, amount int64, reason, actorID string) (models.WalletTransaction, error) {
	if s.adjustFn == nil {
		return models.WalletTransaction{}, nil
	}
	return s.adjustFn(ctx, ownerID, amount, reason, actorID)
}

func (s stubWalletService) UpdateDebtThreshold(ctx context.Context, ownerID string, newLimit int64, actorID string) error {
	if s.updateThresholdFn == nil {
		return nil
	}
	return s.updateThresholdFn(ctx, ownerID, newLimit, actorID)
}

func (s stubWalletService) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error) {
	if s.listTxFn == nil {
		return nil, nil
	}
	return s.listTxFn(ctx, ownerID, limit, offset)
}

func (s stubWalletService) GetCommissionSummary(ctx context.Context, ownerID string) (services.CommissionSummaryView, error) {
	if s.summaryFn == nil {
		return services.CommissionSummaryView{}, nil
	}
	return s.summaryFn(ctx, ownerID)
}

func (s stubWalletService) Reconcile(ctx context.Context) ([]store.WalletBalanceSummary, error) {
	if s.reconcileFn == nil {
		return nil, nil
	}
	return s.reconcileFn(ctx)
}

type stubRechargeService struct {
	initiateFn func(ctx context.Context, ownerID string, amountMinor int64) (services.RechargeOrderView, error)
	completeFn func(ctx context.Context, ownerID, providerOrderID string) (services.CompleteRechargeResult, error)
	webhookFn  func(ctx context.Context, headers http.Header, body []byte) error
}

func (s stubRechargeService) InitiateRecharge(ctx context.Context, ownerID string, amountMinor int64) (services.RechargeOrderView, error) {
	if s.initiateFn == nil {
		return services.RechargeOrderView{}, nil
	}
	return s.initiateFn(ctx, ownerID, amountMinor)
}

func (s stubRechargeService) CompleteRecharge(ctx context.Context, ownerID, providerOrderID string) (services.CompleteRechargeResult, error) {
	if s.completeFn == nil {
		return services.CompleteRechargeResult{}, nil
	}
	return s.completeFn(ctx, ownerID, providerOrderID)
}

func (s stubRechargeService) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if s.webhookFn == nil {
		return nil
	}
	return s.webhookFn(ctx, headers, body)
}

type handlerStubs struct {
	users      stubUserStore
	cleaners   stubCleanerStore
	wallets    stubWalletStore
	bookings   stubBookingLister
	fraudFlags stubFraudFlagStore
	audit      stubAuditStore
	bookingSvc stubBookingService
	walletSvc  stubWalletService
	recharges  stubRechargeService
}

func newTestHandler(stubs handlerStubs) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	return New(fakeTxRunner{}, cfg, stubs.users, stubs.cleaners, stubs.wallets, stubs.bookings, stubs.fraudFlags, stubs.audit, stubs.bookingSvc, stubs.walletSvc, stubs.recharges, websocket.NewHub())
}

func doRequest(t *testing.T, h *Handler, method, path string, body io.Reader, userID string, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if userID != "" {
		token, err := auth.GenerateToken("secret", userID, role, time.Minute)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}
