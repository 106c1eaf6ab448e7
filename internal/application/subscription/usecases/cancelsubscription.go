package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type CancelSubscriptionCommand struct {
	SubscriptionID string
	Wallet         string
	AtPeriodEnd    bool
	IPAddress      string
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	planRepo         plan.Repository
	manager          *lifecycle.Manager
	txMgr            TransactionRunner
	publisher        lifecycle.Publisher
	auditor          AuditRecorder
	clock            biztime.Clock
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.Repository,
	planRepo plan.Repository,
	manager *lifecycle.Manager,
	txMgr TransactionRunner,
	publisher lifecycle.Publisher,
	auditor AuditRecorder,
	clock biztime.Clock,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		manager:          manager,
		txMgr:            txMgr,
		publisher:        publisher,
		auditor:          auditor,
		clock:            clock,
		logger:           logger,
	}
}

// Execute cancels now or at the end of the paid period. Canceling an already
// canceled subscription succeeds without changes.
func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	now := uc.clock.Now()

	var (
		sub      *subscription.Subscription
		canceled bool
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = loadOwnedSubscription(txCtx, uc.subscriptionRepo, cmd.SubscriptionID, cmd.Wallet)
		if err != nil {
			return err
		}

		canceled, err = uc.manager.Cancel(txCtx, sub, cmd.AtPeriodEnd, now)
		return err
	})
	if err != nil {
		uc.logger.Warnw("failed to cancel subscription", "subscription_id", cmd.SubscriptionID, "error", err)
		return nil, err
	}

	uc.auditor.Record(ctx, audit.EventSubscriptionCanceled, cmd.Wallet, cmd.IPAddress,
		fmt.Sprintf("subscription %s cancel requested, at_period_end=%t", sub.ID(), cmd.AtPeriodEnd))

	if canceled {
		uc.publishCanceled(ctx, sub)
	}

	uc.logger.Infow("subscription cancel processed",
		"subscription_id", sub.ID(),
		"at_period_end", cmd.AtPeriodEnd,
		"status", sub.Status(),
	)
	return dto.ToSubscriptionDTO(sub), nil
}

func (uc *CancelSubscriptionUseCase) publishCanceled(ctx context.Context, sub *subscription.Subscription) {
	p, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil || p == nil {
		uc.logger.Warnw("plan unavailable for cancel notification", "plan_id", sub.PlanID(), "error", err)
		return
	}
	uc.publisher.Publish(ctx, lifecycle.Event{
		Type:         lifecycle.EventSubscriptionCanceled,
		Plan:         p,
		Subscription: sub,
		OccurredAt:   uc.clock.Now(),
	})
}
