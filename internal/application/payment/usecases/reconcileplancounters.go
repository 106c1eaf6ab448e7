package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// ReconcilePlanCountersUseCase recounts live subscriptions per plan and
// overwrites any drifted active_subscriptions counter.
type ReconcilePlanCountersUseCase struct {
	planRepo plan.Repository
	logger   logger.Interface
}

func NewReconcilePlanCountersUseCase(
	planRepo plan.Repository,
	logger logger.Interface,
) *ReconcilePlanCountersUseCase {
	return &ReconcilePlanCountersUseCase{
		planRepo: planRepo,
		logger:   logger,
	}
}

// Execute returns the number of corrected plans.
func (uc *ReconcilePlanCountersUseCase) Execute(ctx context.Context) (int, error) {
	planIDs, err := uc.planRepo.ListAllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list plans: %w", err)
	}

	corrected := 0
	for _, planID := range planIDs {
		changed, err := uc.planRepo.RecountActive(ctx, planID)
		if err != nil {
			uc.logger.Errorw("failed to correct plan counter", "plan_id", planID, "error", err)
			continue
		}
		if !changed {
			continue
		}
		corrected++
		uc.logger.Warnw("plan counter drift corrected", "plan_id", planID)
	}

	return corrected, nil
}
