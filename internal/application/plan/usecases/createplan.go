package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/application/plan/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type CreatePlanCommand struct {
	Wallet string
	Spec   plan.Spec
}

type CreatePlanUseCase struct {
	planRepo plan.Repository
	clock    biztime.Clock
	logger   logger.Interface
}

func NewCreatePlanUseCase(
	planRepo plan.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *CreatePlanUseCase {
	return &CreatePlanUseCase{
		planRepo: planRepo,
		clock:    clock,
		logger:   logger,
	}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*dto.PlanDTO, error) {
	p, err := plan.NewPlan(cmd.Wallet, cmd.Spec, uc.clock.Now())
	if err != nil {
		uc.logger.Warnw("invalid plan", "wallet", cmd.Wallet, "error", err)
		return nil, lifecycle.TranslateError(err)
	}

	planID, err := id.NewPlanID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan ID: %w", err)
	}
	if err := p.SetID(planID); err != nil {
		return nil, err
	}

	if err := uc.planRepo.Create(ctx, p); err != nil {
		uc.logger.Errorw("failed to create plan", "wallet", cmd.Wallet, "error", err)
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	uc.logger.Infow("plan created",
		"plan_id", p.ID(),
		"wallet", p.Wallet(),
		"amount", p.Amount(),
		"interval", p.Interval(),
	)

	return dto.ToPlanDTO(p), nil
}
