// Package lnbits issues and checks invoices through the LNbits wallet API.
package lnbits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxErrorBodyBytes     = 512
)

var ErrUnknownWallet = errors.New("no invoice key configured for wallet")

type createInvoiceRequest struct {
	Out    bool           `json:"out"`
	Amount int64          `json:"amount"`
	Memo   string         `json:"memo"`
	Expiry int64          `json:"expiry,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

type createInvoiceResponse struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	Bolt11         string `json:"bolt11"`
}

type paymentStatusResponse struct {
	Paid    bool `json:"paid"`
	Details struct {
		Status  string `json:"status"`
		Time    *int64 `json:"time"`
		Expiry  *int64 `json:"expiry"`
		Pending *bool  `json:"pending"`
	} `json:"details"`
}

// Client talks to one LNbits instance. Each wallet authenticates with its
// own invoice key.
type Client struct {
	baseURL    string
	walletKeys map[string]string
	httpClient *http.Client
	now        func() time.Time
	logger     logger.Interface
}

var _ paymentgateway.Provider = (*Client)(nil)

func NewClient(baseURL string, walletKeys map[string]string, timeout time.Duration, log logger.Interface) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		walletKeys: walletKeys,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		logger:     log.With("component", "lnbits"),
	}
}

func (c *Client) IssueInvoice(ctx context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error) {
	key, err := c.keyFor(req.Wallet)
	if err != nil {
		return nil, err
	}

	body := createInvoiceRequest{
		Out:    false,
		Amount: req.Amount,
		Memo:   req.Memo,
		Extra: map[string]any{
			"tag":            "subscriptions",
			"correlation_id": req.CorrelationID,
		},
	}
	if req.Expiry > 0 {
		body.Expiry = int64(req.Expiry.Seconds())
	}

	var resp createInvoiceResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/payments", key, body, &resp); err != nil {
		return nil, err
	}

	paymentRequest := resp.PaymentRequest
	if paymentRequest == "" {
		paymentRequest = resp.Bolt11
	}
	if resp.PaymentHash == "" || paymentRequest == "" {
		return nil, fmt.Errorf("lnbits returned an incomplete invoice")
	}

	c.logger.Debugw("invoice issued",
		"wallet", req.Wallet,
		"payment_hash", resp.PaymentHash,
		"correlation_id", req.CorrelationID,
	)

	return &paymentgateway.Invoice{
		PaymentHash:    resp.PaymentHash,
		PaymentRequest: paymentRequest,
	}, nil
}

// CheckInvoice maps the LNbits payment state. An unpaid invoice past its
// expiry is reported as failed so the collector can settle it.
func (c *Client) CheckInvoice(ctx context.Context, wallet, paymentHash string) (*paymentgateway.InvoiceStatus, error) {
	key, err := c.keyFor(wallet)
	if err != nil {
		return nil, err
	}

	var resp paymentStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/payments/"+paymentHash, key, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Paid || resp.Details.Status == "success" {
		paidAt := c.now().UTC()
		if resp.Details.Time != nil {
			paidAt = time.Unix(*resp.Details.Time, 0).UTC()
		}
		return &paymentgateway.InvoiceStatus{State: paymentgateway.InvoicePaid, PaidAt: &paidAt}, nil
	}

	if resp.Details.Status == "failed" {
		return &paymentgateway.InvoiceStatus{State: paymentgateway.InvoiceFailed, Reason: "invoice failed"}, nil
	}

	if resp.Details.Expiry != nil && !c.now().Before(time.Unix(*resp.Details.Expiry, 0)) {
		return &paymentgateway.InvoiceStatus{State: paymentgateway.InvoiceFailed, Reason: "invoice expired"}, nil
	}

	return &paymentgateway.InvoiceStatus{State: paymentgateway.InvoicePending}, nil
}

func (c *Client) keyFor(wallet string) (string, error) {
	key, ok := c.walletKeys[wallet]
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownWallet, wallet)
	}
	return key, nil
}

func (c *Client) do(ctx context.Context, method, path, key string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderAPIKey, key)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lnbits request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Warnw("lnbits returned an error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return fmt.Errorf("lnbits returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
