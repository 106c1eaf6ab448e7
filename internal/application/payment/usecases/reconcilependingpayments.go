package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type ReconcileResult struct {
	Checked int `json:"checked" yaml:"checked"`
	Paid    int `json:"paid" yaml:"paid"`
	Failed  int `json:"failed" yaml:"failed"`
	Pending int `json:"pending" yaml:"pending"`
	Errors  int `json:"errors" yaml:"errors"`
}

type outcomeRecorder interface {
	Execute(ctx context.Context, cmd RecordPaymentOutcomeCommand) (*RecordPaymentOutcomeResult, error)
}

// ReconcilePendingPaymentsUseCase polls the provider for pending attempts so
// settlements arrive even when callbacks are lost.
type ReconcilePendingPaymentsUseCase struct {
	paymentRepo      payment.Repository
	subscriptionRepo subscription.Repository
	provider         paymentgateway.Provider
	recorder         outcomeRecorder
	minAge           time.Duration
	batchSize        int
	clock            biztime.Clock
	logger           logger.Interface
}

func NewReconcilePendingPaymentsUseCase(
	paymentRepo payment.Repository,
	subscriptionRepo subscription.Repository,
	provider paymentgateway.Provider,
	recorder outcomeRecorder,
	minAge time.Duration,
	batchSize int,
	clock biztime.Clock,
	logger logger.Interface,
) *ReconcilePendingPaymentsUseCase {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ReconcilePendingPaymentsUseCase{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		provider:         provider,
		recorder:         recorder,
		minAge:           minAge,
		batchSize:        batchSize,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *ReconcilePendingPaymentsUseCase) Execute(ctx context.Context) (*ReconcileResult, error) {
	cutoff := uc.clock.Now().Add(-uc.minAge)

	attempts, err := uc.paymentRepo.ListPending(ctx, cutoff, uc.batchSize)
	if err != nil {
		uc.logger.Errorw("pending payment scan failed", "error", err)
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	result := &ReconcileResult{}
	for _, attempt := range attempts {
		if ctx.Err() != nil {
			break
		}
		result.Checked++

		state, err := uc.reconcileOne(ctx, attempt)
		if err != nil {
			result.Errors++
			uc.logger.Warnw("failed to reconcile payment",
				"payment_id", attempt.ID(),
				"error", err,
			)
			continue
		}

		switch state {
		case paymentgateway.InvoicePaid:
			result.Paid++
		case paymentgateway.InvoiceFailed:
			result.Failed++
		default:
			result.Pending++
		}
	}

	if result.Checked > 0 {
		uc.logger.Infow("pending payments reconciled",
			"checked", result.Checked,
			"paid", result.Paid,
			"failed", result.Failed,
			"pending", result.Pending,
			"errors", result.Errors,
		)
	}
	return result, nil
}

func (uc *ReconcilePendingPaymentsUseCase) reconcileOne(ctx context.Context, attempt *payment.Attempt) (paymentgateway.InvoiceState, error) {
	sub, err := loadSubscription(ctx, uc.subscriptionRepo, attempt.SubscriptionID())
	if err != nil {
		return "", err
	}

	status, err := uc.provider.CheckInvoice(ctx, sub.Wallet(), attempt.PaymentHash())
	if err != nil {
		return "", fmt.Errorf("provider status check failed: %w", err)
	}

	switch status.State {
	case paymentgateway.InvoicePaid:
		_, err = uc.recorder.Execute(ctx, RecordPaymentOutcomeCommand{
			PaymentHash: attempt.PaymentHash(),
			Paid:        true,
			PaidAt:      status.PaidAt,
		})
	case paymentgateway.InvoiceFailed:
		_, err = uc.recorder.Execute(ctx, RecordPaymentOutcomeCommand{
			PaymentHash: attempt.PaymentHash(),
			Reason:      status.Reason,
		})
	}
	if err != nil {
		return "", err
	}
	return status.State, nil
}
