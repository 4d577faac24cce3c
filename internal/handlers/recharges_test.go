package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"cleanly/internal/models"
	"cleanly/internal/services"
)

func TestInitiateRechargeInvalidAmount(t *testing.T) {
	h := newTestHandler(handlerStubs{
		recharges: stubRechargeService{
			initiateFn: func(context.Context, string, int64) (services.RechargeOrderView, error) {
				return services.RechargeOrderView{}, services.ErrInvalidAmount
			},
		},
	})
	body := `{"amount":100}`
	rr := doRequest(t, h, http.MethodPost, "/wallet/recharges", strings.NewReader(body), "cleaner-1", models.RoleCleaner)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCaptureRechargePaymentNotCompleted(t *testing.T) {
	h := newTestHandler(handlerStubs{
		recharges: stubRechargeService{
			completeFn: func(context.Context, string, string) (services.CompleteRechargeResult, error) {
				return services.CompleteRechargeResult{}, services.ErrPaymentNotCompleted
			},
		},
	})
	rr := doRequest(t, h, http.MethodPost, "/wallet/recharges/order-1/capture", nil, "cleaner-1", models.RoleCleaner)
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rr.Code)
	}
}

func TestCaptureRechargeScopesToCaller(t *testing.T) {
	var gotOwner, gotOrder string
	h := newTestHandler(handlerStubs{
		recharges: stubRechargeService{
			completeFn: func(_ context.Context, ownerID, providerOrderID string) (services.CompleteRechargeResult, error) {
				gotOwner, gotOrder = ownerID, providerOrderID
				return services.CompleteRechargeResult{}, nil
			},
		},
	})
	rr := doRequest(t, h, http.MethodPost, "/wallet/recharges/order-1/capture", nil, "cleaner-1", models.RoleCleaner)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotOwner != "cleaner-1" || gotOrder != "order-1" {
		t.Fatalf("unexpected call: %s %s", gotOwner, gotOrder)
	}
}

func TestPaymentWebhookBadSignature(t *testing.T) {
	h := newTestHandler(handlerStubs{
		recharges: stubRechargeService{
			webhookFn: func(context.Context, http.Header, []byte) error {
				return services.ErrWebhookVerificationFailed
			},
		},
	})
	rr := doRequest(t, h, http.MethodPost, "/webhooks/payments", strings.NewReader(`{}`), "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPaymentWebhookAccepted(t *testing.T) {
	h := newTestHandler(handlerStubs{})
	rr := doRequest(t, h, http.MethodPost, "/webhooks/payments", strings.NewReader(`{}`), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
