package paymentgateway

import (
	"context"
	"time"
)

// Provider issues and inspects invoices on a Lightning wallet backend.
// Amounts are in satoshis.
type Provider interface {
	IssueInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	CheckInvoice(ctx context.Context, wallet, paymentHash string) (*InvoiceStatus, error)
}

type InvoiceRequest struct {
	Wallet        string
	Amount        int64
	Memo          string
	CorrelationID string
	Expiry        time.Duration
}

type Invoice struct {
	PaymentHash    string
	PaymentRequest string
}

type InvoiceState string

const (
	InvoicePending InvoiceState = "pending"
	InvoicePaid    InvoiceState = "paid"
	InvoiceFailed  InvoiceState = "failed"
)

type InvoiceStatus struct {
	State  InvoiceState
	Reason string
	PaidAt *time.Time
}
