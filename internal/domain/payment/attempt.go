package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/billing"
	vo "github.com/orris-inc/lnsubs/internal/domain/payment/valueobjects"
)

const maxFailureReasonLength = 500

// Attempt is one invoice issued to collect a subscription period. Its amount
// is fixed at issue time and it settles exactly once.
type Attempt struct {
	id             string
	subscriptionID string
	paymentHash    string
	paymentRequest string
	amount         int64
	status         vo.PaymentStatus
	periodStart    time.Time
	periodEnd      time.Time
	paymentDate    *time.Time
	failureReason  *string
	createdAt      time.Time
}

func NewAttempt(subscriptionID, paymentHash, paymentRequest string, amount int64, period billing.Period, now time.Time) (*Attempt, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if paymentHash == "" {
		return nil, fmt.Errorf("payment hash is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	if !period.End.After(period.Start) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	return &Attempt{
		subscriptionID: subscriptionID,
		paymentHash:    paymentHash,
		paymentRequest: paymentRequest,
		amount:         amount,
		status:         vo.PaymentStatusPending,
		periodStart:    period.Start.UTC(),
		periodEnd:      period.End.UTC(),
		createdAt:      now.UTC(),
	}, nil
}

// ReconstructAttempt rebuilds an attempt from persistence
func ReconstructAttempt(
	id, subscriptionID, paymentHash, paymentRequest string,
	amount int64,
	status vo.PaymentStatus,
	periodStart, periodEnd time.Time,
	paymentDate *time.Time,
	failureReason *string,
	createdAt time.Time,
) (*Attempt, error) {
	if id == "" {
		return nil, fmt.Errorf("payment attempt ID cannot be empty")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid payment status: %s", status)
	}

	return &Attempt{
		id:             id,
		subscriptionID: subscriptionID,
		paymentHash:    paymentHash,
		paymentRequest: paymentRequest,
		amount:         amount,
		status:         status,
		periodStart:    periodStart,
		periodEnd:      periodEnd,
		paymentDate:    paymentDate,
		failureReason:  failureReason,
		createdAt:      createdAt,
	}, nil
}

func (a *Attempt) ID() string               { return a.id }
func (a *Attempt) SubscriptionID() string   { return a.subscriptionID }
func (a *Attempt) PaymentHash() string      { return a.paymentHash }
func (a *Attempt) PaymentRequest() string   { return a.paymentRequest }
func (a *Attempt) Amount() int64            { return a.amount }
func (a *Attempt) Status() vo.PaymentStatus { return a.status }
func (a *Attempt) PeriodStart() time.Time   { return a.periodStart }
func (a *Attempt) PeriodEnd() time.Time     { return a.periodEnd }
func (a *Attempt) PaymentDate() *time.Time  { return a.paymentDate }
func (a *Attempt) FailureReason() *string   { return a.failureReason }
func (a *Attempt) CreatedAt() time.Time     { return a.createdAt }

func (a *Attempt) Period() billing.Period {
	return billing.Period{Start: a.periodStart, End: a.periodEnd}
}

func (a *Attempt) IsPending() bool {
	return a.status == vo.PaymentStatusPending
}

// SetID sets the attempt ID (only for persistence layer use)
func (a *Attempt) SetID(id string) error {
	if a.id != "" {
		return fmt.Errorf("payment attempt ID is already set")
	}
	if id == "" {
		return fmt.Errorf("payment attempt ID cannot be empty")
	}
	a.id = id
	return nil
}

func (a *Attempt) MarkPaid(paidAt time.Time) error {
	if !a.IsPending() {
		return fmt.Errorf("%w: status %s", ErrAttemptSettled, a.status)
	}
	paidAt = paidAt.UTC()
	a.status = vo.PaymentStatusPaid
	a.paymentDate = &paidAt
	return nil
}

func (a *Attempt) MarkFailed(reason string) error {
	if !a.IsPending() {
		return fmt.Errorf("%w: status %s", ErrAttemptSettled, a.status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}
	if len(reason) > maxFailureReasonLength {
		reason = reason[:maxFailureReasonLength]
	}
	a.status = vo.PaymentStatusFailed
	a.failureReason = &reason
	return nil
}
