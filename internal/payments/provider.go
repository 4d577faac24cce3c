package payments

import (
	"context"
	"encoding/json"
	"net/http"
)

// Order is a provider-side payment order awaiting buyer approval and capture.
type Order struct {
	ID         string
	Status     string
	ApproveURL string
}

// Capture is the provider's settlement record for an approved order. Amount is
// in the provider currency's minor units.
type Capture struct {
	ID       string
	OrderID  string
	Status   string
	Amount   int64
	Currency string
}

// WebhookEvent is a signature-verified provider notification.
type WebhookEvent struct {
	ID        string
	EventType string
	Resource  json.RawMessage
}

// Provider is the external payment gateway. Implementations must bound every
// call with the request context and their own HTTP timeout.
type Provider interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string) (Order, error)
	CaptureOrder(ctx context.Context, orderID string) (Capture, error)
	VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookEvent, error)
}

// CaptureCompleted is the only provider capture status that may credit the
// ledger.
const CaptureCompleted = "COMPLETED"
