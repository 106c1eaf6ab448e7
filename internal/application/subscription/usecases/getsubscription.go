package usecases

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type GetSubscriptionQuery struct {
	SubscriptionID string
	Wallet         string
}

type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.Repository
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(subscriptionRepo subscription.Repository, logger logger.Interface) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, query GetSubscriptionQuery) (*dto.SubscriptionDTO, error) {
	sub, err := loadOwnedSubscription(ctx, uc.subscriptionRepo, query.SubscriptionID, query.Wallet)
	if err != nil {
		uc.logger.Debugw("subscription lookup rejected", "subscription_id", query.SubscriptionID, "error", err)
		return nil, err
	}
	return dto.ToSubscriptionDTO(sub), nil
}
