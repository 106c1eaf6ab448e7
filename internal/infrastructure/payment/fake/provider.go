// Package fake is an in-memory payment provider for development and tests.
// Invoices stay pending until MarkPaid or MarkFailed is called.
package fake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
)

type invoice struct {
	wallet string
	status paymentgateway.InvoiceStatus
}

type Provider struct {
	mu       sync.Mutex
	invoices map[string]*invoice
	now      func() time.Time
}

var _ paymentgateway.Provider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		invoices: make(map[string]*invoice),
		now:      time.Now,
	}
}

func (p *Provider) IssueInvoice(_ context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	preimage := uuid.New()
	sum := sha256.Sum256(preimage[:])
	hash := hex.EncodeToString(sum[:])

	p.mu.Lock()
	p.invoices[hash] = &invoice{
		wallet: req.Wallet,
		status: paymentgateway.InvoiceStatus{State: paymentgateway.InvoicePending},
	}
	p.mu.Unlock()

	return &paymentgateway.Invoice{
		PaymentHash:    hash,
		PaymentRequest: fmt.Sprintf("lnbcrt%dn1%s", req.Amount*10, strings.ReplaceAll(preimage.String(), "-", "")),
	}, nil
}

func (p *Provider) CheckInvoice(_ context.Context, wallet, paymentHash string) (*paymentgateway.InvoiceStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := p.invoices[paymentHash]
	if !ok || inv.wallet != wallet {
		return nil, fmt.Errorf("invoice %s not found", paymentHash)
	}
	status := inv.status
	return &status, nil
}

// MarkPaid settles the invoice as paid now.
func (p *Provider) MarkPaid(paymentHash string) error {
	paidAt := p.now().UTC()
	return p.set(paymentHash, paymentgateway.InvoiceStatus{State: paymentgateway.InvoicePaid, PaidAt: &paidAt})
}

func (p *Provider) MarkFailed(paymentHash, reason string) error {
	return p.set(paymentHash, paymentgateway.InvoiceStatus{State: paymentgateway.InvoiceFailed, Reason: reason})
}

func (p *Provider) set(paymentHash string, status paymentgateway.InvoiceStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := p.invoices[paymentHash]
	if !ok {
		return fmt.Errorf("invoice %s not found", paymentHash)
	}
	inv.status = status
	return nil
}
