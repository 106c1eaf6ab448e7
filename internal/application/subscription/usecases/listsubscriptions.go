package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type ListSubscriptionsUseCase struct {
	subscriptionRepo subscription.Repository
	logger           logger.Interface
}

func NewListSubscriptionsUseCase(subscriptionRepo subscription.Repository, logger logger.Interface) *ListSubscriptionsUseCase {
	return &ListSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute lists every subscription across the wallet's plans, newest first.
func (uc *ListSubscriptionsUseCase) Execute(ctx context.Context, wallet string) ([]*dto.SubscriptionDTO, error) {
	subs, err := uc.subscriptionRepo.ListByWallet(ctx, wallet)
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions", "wallet", wallet, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return dto.ToSubscriptionDTOList(subs), nil
}

type ListPlanSubscriptionsQuery struct {
	PlanID string
	Wallet string
}

type ListPlanSubscriptionsUseCase struct {
	planRepo         plan.Repository
	subscriptionRepo subscription.Repository
	logger           logger.Interface
}

func NewListPlanSubscriptionsUseCase(
	planRepo plan.Repository,
	subscriptionRepo subscription.Repository,
	logger logger.Interface,
) *ListPlanSubscriptionsUseCase {
	return &ListPlanSubscriptionsUseCase{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListPlanSubscriptionsUseCase) Execute(ctx context.Context, query ListPlanSubscriptionsQuery) ([]*dto.SubscriptionDTO, error) {
	if _, err := loadOwnedPlan(ctx, uc.planRepo, query.PlanID, query.Wallet); err != nil {
		return nil, err
	}

	subs, err := uc.subscriptionRepo.ListByPlan(ctx, query.PlanID)
	if err != nil {
		uc.logger.Errorw("failed to list plan subscriptions", "plan_id", query.PlanID, "error", err)
		return nil, fmt.Errorf("failed to list plan subscriptions: %w", err)
	}
	return dto.ToSubscriptionDTOList(subs), nil
}
