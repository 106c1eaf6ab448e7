package usecases

import (
	"context"
	"fmt"

	subdto "github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

const defaultBatchSize = 100

type FindDueSubscriptionsUseCase struct {
	subscriptionRepo subscription.Repository
	clock            biztime.Clock
	logger           logger.Interface
}

func NewFindDueSubscriptionsUseCase(
	subscriptionRepo subscription.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *FindDueSubscriptionsUseCase {
	return &FindDueSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
		logger:           logger,
	}
}

// Execute lists subscriptions owed an invoice right now, oldest payment date first.
func (uc *FindDueSubscriptionsUseCase) Execute(ctx context.Context, limit int) ([]*subdto.SubscriptionDTO, error) {
	return uc.ExecuteExcluding(ctx, limit, nil)
}

// ExecuteExcluding is Execute without the given subscription IDs.
func (uc *FindDueSubscriptionsUseCase) ExecuteExcluding(ctx context.Context, limit int, exclude []string) ([]*subdto.SubscriptionDTO, error) {
	if limit <= 0 {
		limit = defaultBatchSize
	}

	subs, err := uc.subscriptionRepo.FindDue(ctx, subscription.DueQuery{
		Now:        uc.clock.Now(),
		Limit:      limit,
		ExcludeIDs: exclude,
	})
	if err != nil {
		uc.logger.Errorw("due subscription scan failed", "error", err)
		return nil, fmt.Errorf("failed to find due subscriptions: %w", err)
	}

	return subdto.ToSubscriptionDTOList(subs), nil
}
