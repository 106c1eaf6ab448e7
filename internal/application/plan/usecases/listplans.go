package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/application/plan/dto"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type ListPlansUseCase struct {
	planRepo plan.Repository
	logger   logger.Interface
}

func NewListPlansUseCase(planRepo plan.Repository, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{
		planRepo: planRepo,
		logger:   logger,
	}
}

// Execute returns the wallet's plans, newest first.
func (uc *ListPlansUseCase) Execute(ctx context.Context, wallet string) ([]*dto.PlanDTO, error) {
	plans, err := uc.planRepo.ListByWallet(ctx, wallet)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "wallet", wallet, "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return dto.ToPlanDTOList(plans), nil
}
