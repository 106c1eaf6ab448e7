package usecases

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/application/plan/dto"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type GetPlanQuery struct {
	PlanID string
	Wallet string
}

type GetPlanUseCase struct {
	planRepo plan.Repository
	logger   logger.Interface
}

func NewGetPlanUseCase(planRepo plan.Repository, logger logger.Interface) *GetPlanUseCase {
	return &GetPlanUseCase{
		planRepo: planRepo,
		logger:   logger,
	}
}

func (uc *GetPlanUseCase) Execute(ctx context.Context, query GetPlanQuery) (*dto.PlanDTO, error) {
	p, err := loadOwnedPlan(ctx, uc.planRepo, query.PlanID, query.Wallet)
	if err != nil {
		uc.logger.Debugw("plan lookup rejected", "plan_id", query.PlanID, "error", err)
		return nil, err
	}
	return dto.ToPlanDTO(p), nil
}
