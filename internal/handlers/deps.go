package handlers

import (
	"context"
	"net/http"

	"cleanly/internal/models"
	"cleanly/internal/services"
	"cleanly/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, role models.Role) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type CleanerStore interface {
	CreateProfile(ctx context.Context, tx store.Execer, userID string) error
}

type WalletStore interface {
	Create(ctx context.Context, tx store.Execer, ownerID string) error
}

type BookingLister interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Booking, error)
}

type FraudFlagStore interface {
	List(ctx context.Context, limit, offset int) ([]models.FraudFlag, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, req services.CreateBookingRequest) (models.Booking, error)
	Transition(ctx context.Context, req services.TransitionRequest) (models.Booking, error)
	GetHistory(ctx context.Context, bookingID string) ([]models.BookingEvent, error)
}

type WalletService interface {
	GetWallet(ctx context.Context, ownerID string) (services.WalletView, error)
	AdjustBalance(ctx context.Context, ownerID string, amount int64, reason, actorID string) (models.WalletTransaction, error)
	UpdateDebtThreshold(ctx context.Context, ownerID string, newLimit int64, actorID string) error
	ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error)
	GetCommissionSummary(ctx context.Context, ownerID string) (services.CommissionSummaryView, error)
	Reconcile(ctx context.Context) ([]store.WalletBalanceSummary, error)
}

type RechargeService interface {
	InitiateRecharge(ctx context.Context, ownerID string, amountMinor int64) (services.RechargeOrderView, error)
	CompleteRecharge(ctx context.Context, ownerID, providerOrderID string) (services.CompleteRechargeResult, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
}
