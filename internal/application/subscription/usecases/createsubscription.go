package usecases

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type CreateSubscriptionCommand struct {
	Wallet     string
	PlanID     string
	Subscriber subscription.Subscriber
}

type CreateSubscriptionUseCase struct {
	planRepo  plan.Repository
	manager   *lifecycle.Manager
	txMgr     TransactionRunner
	publisher lifecycle.Publisher
	clock     biztime.Clock
	logger    logger.Interface
}

func NewCreateSubscriptionUseCase(
	planRepo plan.Repository,
	manager *lifecycle.Manager,
	txMgr TransactionRunner,
	publisher lifecycle.Publisher,
	clock biztime.Clock,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		planRepo:  planRepo,
		manager:   manager,
		txMgr:     txMgr,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	now := uc.clock.Now()

	var (
		p   *plan.Plan
		sub *subscription.Subscription
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		p, err = loadOwnedPlan(txCtx, uc.planRepo, cmd.PlanID, cmd.Wallet)
		if err != nil {
			return err
		}

		sub, err = uc.manager.Create(txCtx, p, cmd.Subscriber, now)
		return err
	})
	if err != nil {
		uc.logger.Warnw("failed to create subscription", "plan_id", cmd.PlanID, "error", err)
		return nil, err
	}

	uc.publisher.Publish(ctx, lifecycle.Event{
		Type:         lifecycle.EventSubscriptionCreated,
		Plan:         p,
		Subscription: sub,
		OccurredAt:   now,
	})

	return dto.ToSubscriptionDTO(sub), nil
}
