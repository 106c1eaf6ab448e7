package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orris-inc/lnsubs/internal/application/payment/dto"
	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/billing"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/goroutine"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// InvoiceSubscriptionUseCase issues the invoice for a subscription's next
// billable period and records it as a pending attempt.
type InvoiceSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	paymentRepo      payment.Repository
	provider         paymentgateway.Provider
	txMgr            TransactionRunner
	mailer           InvoiceMailer
	invoiceExpiry    time.Duration
	clock            biztime.Clock
	logger           logger.Interface
}

func NewInvoiceSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	paymentRepo payment.Repository,
	provider paymentgateway.Provider,
	txMgr TransactionRunner,
	invoiceExpiry time.Duration,
	clock biztime.Clock,
	logger logger.Interface,
) *InvoiceSubscriptionUseCase {
	return &InvoiceSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		paymentRepo:      paymentRepo,
		provider:         provider,
		txMgr:            txMgr,
		invoiceExpiry:    invoiceExpiry,
		clock:            clock,
		logger:           logger,
	}
}

// SetMailer enables invoice emails for subscribers with an email address.
func (uc *InvoiceSubscriptionUseCase) SetMailer(mailer InvoiceMailer) {
	uc.mailer = mailer
}

// Execute returns nil, nil when the subscription is not due, its billable
// period already has a pending invoice, or another run holds the claim.
func (uc *InvoiceSubscriptionUseCase) Execute(ctx context.Context, subscriptionID string) (*dto.InvoiceDTO, error) {
	now := uc.clock.Now()

	var (
		sub     *subscription.Subscription
		p       *plan.Plan
		attempt *payment.Attempt
		claimed bool
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = loadSubscription(txCtx, uc.subscriptionRepo, subscriptionID)
		if err != nil {
			return err
		}
		if !sub.IsDue(now) {
			return nil
		}

		p, err = loadPlan(txCtx, uc.planRepo, sub.PlanID())
		if err != nil {
			return err
		}

		period, err := billing.BillablePeriod(sub, p.Interval())
		if err != nil {
			return lifecycle.TranslateError(err)
		}

		pending, err := uc.paymentRepo.HasPendingForPeriod(txCtx, sub.ID(), period.Start)
		if err != nil {
			return fmt.Errorf("failed to check pending invoices: %w", err)
		}
		if pending {
			return nil
		}

		// Claim the row before the provider call. A concurrent run that read
		// the same version loses here and never reaches the provider.
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			if errors.Is(err, subscription.ErrConcurrentModification) {
				uc.logger.Infow("subscription claimed by another run", "subscription_id", sub.ID())
				claimed = true
				return nil
			}
			return fmt.Errorf("failed to claim subscription: %w", err)
		}

		invoice, err := uc.provider.IssueInvoice(txCtx, paymentgateway.InvoiceRequest{
			Wallet:        sub.Wallet(),
			Amount:        p.Amount(),
			Memo:          fmt.Sprintf("Subscription payment for %s", p.Name()),
			CorrelationID: fmt.Sprintf("%s_%s", sub.ID(), uuid.NewString()),
			Expiry:        uc.invoiceExpiry,
		})
		if err != nil {
			uc.logger.Warnw("payment provider failed to issue invoice",
				"subscription_id", sub.ID(),
				"error", err,
			)
			return apperrors.NewTransientError("payment provider unavailable").WithCause(err)
		}

		attempt, err = payment.NewAttempt(sub.ID(), invoice.PaymentHash, invoice.PaymentRequest, p.Amount(), period, now)
		if err != nil {
			return fmt.Errorf("failed to build payment attempt: %w", err)
		}
		paymentID, err := id.NewPaymentID()
		if err != nil {
			return fmt.Errorf("failed to generate payment ID: %w", err)
		}
		if err := attempt.SetID(paymentID); err != nil {
			return err
		}

		if err := uc.paymentRepo.Create(txCtx, attempt); err != nil {
			return fmt.Errorf("failed to record payment attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		uc.logger.Debugw("subscription not invoiced", "subscription_id", subscriptionID, "claimed_elsewhere", claimed)
		return nil, nil
	}

	uc.logger.Infow("subscription invoiced",
		"subscription_id", sub.ID(),
		"payment_id", attempt.ID(),
		"amount", attempt.Amount(),
		"period_start", attempt.PeriodStart(),
	)

	uc.sendInvoiceEmail(sub, p, attempt)

	return dto.ToInvoiceDTO(attempt), nil
}

func (uc *InvoiceSubscriptionUseCase) sendInvoiceEmail(sub *subscription.Subscription, p *plan.Plan, attempt *payment.Attempt) {
	if uc.mailer == nil || sub.SubscriberEmail() == nil {
		return
	}

	to := *sub.SubscriberEmail()
	planName := p.Name()
	goroutine.SafeGo(uc.logger, "invoice-email", func() {
		if err := uc.mailer.SendInvoiceEmail(to, planName, attempt.Amount(), attempt.PaymentRequest(), attempt.PeriodEnd()); err != nil {
			uc.logger.Warnw("failed to send invoice email",
				"subscription_id", sub.ID(),
				"payment_id", attempt.ID(),
				"error", err,
			)
		}
	})
}
