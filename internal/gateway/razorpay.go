package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-api/internal/config"
	"storefront-api/internal/logger"
	"storefront-api/internal/models"
)

const requestTimeout = 30 * time.Second

// RazorpayGateway talks to the Razorpay Orders and Refunds REST APIs.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	logger    *logger.Logger
}

// NewRazorpay creates a gateway client from the configured credentials.
func NewRazorpay(cfg *config.GatewayConfig, log *logger.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    log,
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

type refundRequest struct {
	Amount int64  `json:"amount"`
	Speed  string `json:"speed"`
}

type refundResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a gateway order for the amount, in paise. The receipt
// is passed through unchanged: Razorpay caps receipts at 40 characters, which
// a 36-character order id fits but a prefixed one would not.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, receipt string) (string, error) {
	body := createOrderRequest{
		Amount:         amount * 100,
		Currency:       "INR",
		Receipt:        receipt,
		PaymentCapture: 1,
	}

	var resp createOrderResponse
	if err := g.post(ctx, "/v1/orders", body, &resp); err != nil {
		return "", models.GatewayError{Op: "order creation", Err: err}
	}
	if resp.ID == "" {
		return "", models.GatewayError{Op: "order creation", Err: fmt.Errorf("empty gateway order id")}
	}

	g.logger.Debug("gateway_order_created", "Created gateway order", "", map[string]interface{}{
		"gateway_order_id": resp.ID,
		"receipt":          receipt,
	})

	return resp.ID, nil
}

// Refund issues a refund for a captured payment, amount in rupees.
func (g *RazorpayGateway) Refund(ctx context.Context, paymentID string, amount int64) (string, error) {
	body := refundRequest{
		Amount: amount * 100,
		Speed:  "normal",
	}

	var resp refundResponse
	path := fmt.Sprintf("/v1/payments/%s/refund", paymentID)
	if err := g.post(ctx, path, body, &resp); err != nil {
		return "", models.GatewayError{Op: "refund", Err: err}
	}
	if resp.ID == "" {
		return "", models.GatewayError{Op: "refund", Err: fmt.Errorf("empty refund id")}
	}

	g.logger.Debug("gateway_refund_created", "Created gateway refund", "", map[string]interface{}{
		"refund_id":  resp.ID,
		"payment_id": paymentID,
	})

	return resp.ID, nil
}

func (g *RazorpayGateway) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(detail))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}
