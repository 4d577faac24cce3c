package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cleanly/internal/money"
)

var (
	ErrOrderNotCreated    = errors.New("provider order not created")
	ErrCaptureFailed      = errors.New("provider capture failed")
	ErrVerificationFailed = errors.New("webhook signature verification failed")
)

// PayPalClient talks to the PayPal REST API (v2 checkout orders, v1 webhook
// verification). Access tokens are cached until shortly before expiry.
type PayPalClient struct {
	baseURL   string
	clientID  string
	secret    string
	webhookID string
	http      *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalClient(baseURL, clientID, secret, webhookID string) *PayPalClient {
	return &PayPalClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		clientID:  clientID,
		secret:    secret,
		webhookID: webhookID,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *PayPalClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed: %s", resp.Status)
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	c.accessToken = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *PayPalClient) doJSON(ctx context.Context, method, path string, body any, out any) (int, error) {
	token, err := c.token(ctx)
	if err != nil {
		return 0, err
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string       `json:"id"`
				Status string       `json:"status"`
				Amount paypalAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (c *PayPalClient) CreateOrder(ctx context.Context, amountMinor int64, currency string) (Order, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{"amount": paypalAmount{CurrencyCode: currency, Value: money.FormatMinor(amountMinor)}},
		},
	}
	var out paypalOrderResponse
	status, err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", body, &out)
	if err != nil {
		return Order{}, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return Order{}, fmt.Errorf("%w: http %d", ErrOrderNotCreated, status)
	}
	order := Order{ID: out.ID, Status: out.Status}
	for _, link := range out.Links {
		if link.Rel == "approve" {
			order.ApproveURL = link.Href
		}
	}
	return order, nil
}

func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (Capture, error) {
	var out paypalOrderResponse
	status, err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", map[string]any{}, &out)
	if err != nil {
		return Capture{}, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return Capture{}, fmt.Errorf("%w: http %d", ErrCaptureFailed, status)
	}
	if len(out.PurchaseUnits) == 0 || len(out.PurchaseUnits[0].Payments.Captures) == 0 {
		return Capture{}, ErrCaptureFailed
	}
	raw := out.PurchaseUnits[0].Payments.Captures[0]
	amountMinor, err := money.ParseMinor(raw.Amount.Value)
	if err != nil {
		return Capture{}, fmt.Errorf("%w: bad amount %q", ErrCaptureFailed, raw.Amount.Value)
	}
	return Capture{
		ID:       raw.ID,
		OrderID:  out.ID,
		Status:   raw.Status,
		Amount:   amountMinor,
		Currency: raw.Amount.CurrencyCode,
	}, nil
}

func (c *PayPalClient) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (WebhookEvent, error) {
	var event struct {
		ID        string          `json:"id"`
		EventType string          `json:"event_type"`
		Resource  json.RawMessage `json:"resource"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookEvent{}, ErrVerificationFailed
	}
	verifyReq := map[string]any{
		"auth_algo":         headers.Get("Paypal-Auth-Algo"),
		"cert_url":          headers.Get("Paypal-Cert-Url"),
		"transmission_id":   headers.Get("Paypal-Transmission-Id"),
		"transmission_sig":  headers.Get("Paypal-Transmission-Sig"),
		"transmission_time": headers.Get("Paypal-Transmission-Time"),
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(body),
	}
	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	status, err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", verifyReq, &out)
	if err != nil {
		return WebhookEvent{}, err
	}
	if status != http.StatusOK || out.VerificationStatus != "SUCCESS" {
		return WebhookEvent{}, ErrVerificationFailed
	}
	return WebhookEvent{ID: event.ID, EventType: event.EventType, Resource: event.Resource}, nil
}
