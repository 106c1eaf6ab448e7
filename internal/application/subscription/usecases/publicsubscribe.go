package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type PublicSubscribeCommand struct {
	PlanID     string
	Subscriber subscription.Subscriber
}

// PublicSubscribeResult is what an anonymous subscriber gets back. Invoice
// fields are empty while the subscription is in trial.
type PublicSubscribeResult struct {
	SubscriptionID   string     `json:"subscription_id"`
	Status           string     `json:"status"`
	CurrentPeriodEnd time.Time  `json:"current_period_end"`
	TrialEnd         *time.Time `json:"trial_end,omitempty"`
	TrialDays        int        `json:"trial_days,omitempty"`
	PaymentID        string     `json:"payment_id,omitempty"`
	PaymentHash      string     `json:"payment_hash,omitempty"`
	PaymentRequest   string     `json:"payment_request,omitempty"`
	Amount           int64      `json:"amount"`
	Message          string     `json:"message,omitempty"`
	SuccessMessage   string     `json:"success_message,omitempty"`
	SuccessURL       *string    `json:"success_url,omitempty"`
}

type PublicSubscribeUseCase struct {
	planRepo  plan.Repository
	manager   *lifecycle.Manager
	txMgr     TransactionRunner
	invoicer  InvoiceIssuer
	publisher lifecycle.Publisher
	clock     biztime.Clock
	logger    logger.Interface
}

func NewPublicSubscribeUseCase(
	planRepo plan.Repository,
	manager *lifecycle.Manager,
	txMgr TransactionRunner,
	invoicer InvoiceIssuer,
	publisher lifecycle.Publisher,
	clock biztime.Clock,
	logger logger.Interface,
) *PublicSubscribeUseCase {
	return &PublicSubscribeUseCase{
		planRepo:  planRepo,
		manager:   manager,
		txMgr:     txMgr,
		invoicer:  invoicer,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Execute subscribes an anonymous caller to a plan. Without a trial the first
// invoice is issued right away; if the provider is unavailable the
// subscription stays due and the next billing scan invoices it.
func (uc *PublicSubscribeUseCase) Execute(ctx context.Context, cmd PublicSubscribeCommand) (*PublicSubscribeResult, error) {
	if !id.ValidatePublicID(cmd.PlanID) {
		return nil, apperrors.NewValidationError("invalid plan ID format")
	}

	now := uc.clock.Now()

	var (
		p   *plan.Plan
		sub *subscription.Subscription
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		p, err = uc.planRepo.GetByID(txCtx, cmd.PlanID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperrors.NewNotFoundError("plan not found")
		}

		sub, err = uc.manager.Create(txCtx, p, cmd.Subscriber, now)
		return err
	})
	if err != nil {
		uc.logger.Warnw("public subscription rejected", "plan_id", cmd.PlanID, "error", err)
		return nil, err
	}

	uc.publisher.Publish(ctx, lifecycle.Event{
		Type:         lifecycle.EventSubscriptionCreated,
		Plan:         p,
		Subscription: sub,
		OccurredAt:   now,
	})

	result := &PublicSubscribeResult{
		SubscriptionID:   sub.ID(),
		Status:           sub.Status().String(),
		CurrentPeriodEnd: sub.CurrentPeriodEnd(),
		TrialEnd:         sub.TrialEnd(),
		Amount:           p.Amount(),
		SuccessMessage:   p.SuccessMessage(),
		SuccessURL:       p.SuccessURL(),
	}

	if p.TrialDays() > 0 {
		result.TrialDays = p.TrialDays()
		result.Message = fmt.Sprintf("Trial period of %d days activated", p.TrialDays())
		return result, nil
	}

	invoice, err := uc.invoicer.Execute(ctx, sub.ID())
	if err != nil {
		uc.logger.Warnw("first invoice not issued, the billing scan will retry",
			"subscription_id", sub.ID(),
			"error", err,
		)
		result.Message = "Subscription created, the invoice will be issued shortly"
		return result, nil
	}
	if invoice != nil {
		result.PaymentID = invoice.PaymentID
		result.PaymentHash = invoice.PaymentHash
		result.PaymentRequest = invoice.PaymentRequest
	}

	return result, nil
}
