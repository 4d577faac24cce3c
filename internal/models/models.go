package models

import "time"

type Role string

const (
	RoleClient  Role = "CLIENT"
	RoleCleaner Role = "CLEANER"
	RoleAdmin   Role = "ADMIN"
)

type BookingStatus string

const (
	StatusRequested       BookingStatus = "REQUESTED"
	StatusAccepted        BookingStatus = "ACCEPTED"
	StatusOnTheWay        BookingStatus = "ON_THE_WAY"
	StatusArrived         BookingStatus = "ARRIVED"
	StatusInProgress      BookingStatus = "IN_PROGRESS"
	StatusCompleted       BookingStatus = "COMPLETED"
	StatusClientConfirmed BookingStatus = "CLIENT_CONFIRMED"
	StatusDisputed        BookingStatus = "DISPUTED"
	StatusCancelled       BookingStatus = "CANCELLED"
)

type WalletTransactionType string

const (
	TxRecharge   WalletTransactionType = "RECHARGE"
	TxCommission WalletTransactionType = "COMMISSION"
	TxAdjustment WalletTransactionType = "ADJUSTMENT"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CleanerProfile struct {
	UserID             string    `db:"user_id" json:"user_id"`
	CompletedJobsCount int       `db:"completed_jobs_count" json:"completed_jobs_count"`
	FreeJobsUsed       int       `db:"free_jobs_used" json:"free_jobs_used"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type Booking struct {
	ID          string        `db:"id" json:"id"`
	ClientID    string        `db:"client_id" json:"client_id"`
	CleanerID   *string       `db:"cleaner_id" json:"cleaner_id,omitempty"`
	Status      BookingStatus `db:"status" json:"status"`
	BasePrice   int64         `db:"base_price" json:"base_price"`
	AddonsTotal int64         `db:"addons_total" json:"addons_total"`
	TotalPrice  int64         `db:"total_price" json:"total_price"`
	ScheduledAt time.Time     `db:"scheduled_at" json:"scheduled_at"`
	Address     string        `db:"address" json:"address"`
	Notes       string        `db:"notes" json:"notes"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

type BookingEvent struct {
	ID        string         `db:"id" json:"id"`
	BookingID string         `db:"booking_id" json:"booking_id"`
	ActorID   string         `db:"actor_id" json:"actor_id"`
	OldStatus *BookingStatus `db:"old_status" json:"old_status,omitempty"`
	NewStatus BookingStatus  `db:"new_status" json:"new_status"`
	Meta      string         `db:"meta" json:"meta"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

type Wallet struct {
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type WalletTransaction struct {
	ID        string                `db:"id" json:"id"`
	OwnerID   string                `db:"owner_id" json:"owner_id"`
	Type      WalletTransactionType `db:"type" json:"type"`
	Amount    int64                 `db:"amount" json:"amount"`
	BookingID *string               `db:"booking_id" json:"booking_id,omitempty"`
	CaptureID *string               `db:"capture_id" json:"capture_id,omitempty"`
	Meta      string                `db:"meta" json:"meta"`
	CreatedAt time.Time             `db:"created_at" json:"created_at"`
}

type Commission struct {
	BookingID        string    `db:"booking_id" json:"booking_id"`
	CleanerID        string    `db:"cleaner_id" json:"cleaner_id"`
	Percentage       string    `db:"percentage" json:"percentage"`
	CommissionAmount int64     `db:"commission_amount" json:"commission_amount"`
	IsFree           bool      `db:"is_free" json:"is_free"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type DebtThreshold struct {
	CleanerID string    `db:"cleaner_id" json:"cleaner_id"`
	DebtLimit int64     `db:"debt_limit" json:"debt_limit"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type FraudFlag struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Severity  string    `db:"severity" json:"severity"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RechargeOrder struct {
	ID              string     `db:"id" json:"id"`
	OwnerID         string     `db:"owner_id" json:"owner_id"`
	ProviderOrderID string     `db:"provider_order_id" json:"provider_order_id"`
	CaptureID       *string    `db:"capture_id" json:"capture_id,omitempty"`
	Amount          int64      `db:"amount" json:"amount"`
	Currency        string     `db:"currency" json:"currency"`
	Status          string     `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
