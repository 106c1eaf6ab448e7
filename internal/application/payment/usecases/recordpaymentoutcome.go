package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orris-inc/lnsubs/internal/application/payment/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type RecordPaymentOutcomeCommand struct {
	PaymentHash string
	Paid        bool
	// Reason is recorded for failures.
	Reason string
	// PaidAt defaults to now.
	PaidAt *time.Time
}

type RecordPaymentOutcomeResult struct {
	Payment *dto.PaymentDTO `json:"payment"`
	// Applied is false when the attempt had already been settled.
	Applied bool `json:"applied"`
}

type RecordPaymentOutcomeUseCase struct {
	paymentRepo      payment.Repository
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	manager          *lifecycle.Manager
	txMgr            TransactionRunner
	publisher        lifecycle.Publisher
	clock            biztime.Clock
	logger           logger.Interface
}

func NewRecordPaymentOutcomeUseCase(
	paymentRepo payment.Repository,
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	manager *lifecycle.Manager,
	txMgr TransactionRunner,
	publisher lifecycle.Publisher,
	clock biztime.Clock,
	logger logger.Interface,
) *RecordPaymentOutcomeUseCase {
	return &RecordPaymentOutcomeUseCase{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		manager:          manager,
		txMgr:            txMgr,
		publisher:        publisher,
		clock:            clock,
		logger:           logger,
	}
}

// Execute settles the attempt identified by the payment hash and applies the
// matching lifecycle transition in one transaction. Repeated or racing
// notifications for a settled attempt change nothing.
func (uc *RecordPaymentOutcomeUseCase) Execute(ctx context.Context, cmd RecordPaymentOutcomeCommand) (*RecordPaymentOutcomeResult, error) {
	hash := strings.TrimSpace(cmd.PaymentHash)
	if hash == "" {
		return nil, apperrors.NewValidationError("payment hash is required")
	}

	now := uc.clock.Now()

	var (
		attempt  *payment.Attempt
		sub      *subscription.Subscription
		applied  bool
		canceled bool
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		attempt, err = loadAttemptByHash(txCtx, uc.paymentRepo, hash)
		if err != nil {
			return err
		}
		if !attempt.IsPending() {
			return nil
		}

		if cmd.Paid {
			paidAt := now
			if cmd.PaidAt != nil {
				paidAt = *cmd.PaidAt
			}
			err = attempt.MarkPaid(paidAt)
		} else {
			err = attempt.MarkFailed(cmd.Reason)
		}
		if err != nil {
			return lifecycle.TranslateError(err)
		}

		settled, err := uc.paymentRepo.Settle(txCtx, attempt)
		if err != nil {
			return fmt.Errorf("failed to settle payment: %w", err)
		}
		if !settled {
			return nil
		}
		applied = true

		sub, err = uc.subscriptionRepo.GetByID(txCtx, attempt.SubscriptionID())
		if err != nil {
			return err
		}
		if sub == nil {
			uc.logger.Errorw("payment settled for a missing subscription",
				"payment_id", attempt.ID(),
				"subscription_id", attempt.SubscriptionID(),
			)
			return nil
		}

		if cmd.Paid {
			_, err = uc.manager.RecordPaymentSuccess(txCtx, sub, attempt, now)
			return err
		}
		canceled, err = uc.manager.RecordPaymentFailure(txCtx, sub, now)
		return err
	})
	if err != nil {
		uc.logger.Warnw("failed to record payment outcome", "payment_hash", hash, "paid", cmd.Paid, "error", err)
		return nil, err
	}

	if applied && sub != nil {
		eventType := lifecycle.EventPaymentFailed
		if cmd.Paid {
			eventType = lifecycle.EventPaymentSucceeded
		}
		publishSubscriptionEvent(ctx, uc.planRepo, uc.publisher, uc.logger, eventType, sub, attempt, now)
		if canceled {
			publishSubscriptionEvent(ctx, uc.planRepo, uc.publisher, uc.logger, lifecycle.EventSubscriptionCanceled, sub, nil, now)
		}
	}

	if !applied {
		uc.logger.Infow("payment outcome ignored, attempt already settled",
			"payment_id", attempt.ID(),
			"status", attempt.Status(),
		)
	}

	return &RecordPaymentOutcomeResult{
		Payment: dto.ToPaymentDTO(attempt),
		Applied: applied,
	}, nil
}
