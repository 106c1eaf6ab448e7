package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/application/plan/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type UpdatePlanCommand struct {
	PlanID string
	Wallet string
	Spec   plan.Spec
}

type UpdatePlanUseCase struct {
	planRepo plan.Repository
	clock    biztime.Clock
	logger   logger.Interface
}

func NewUpdatePlanUseCase(
	planRepo plan.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *UpdatePlanUseCase {
	return &UpdatePlanUseCase{
		planRepo: planRepo,
		clock:    clock,
		logger:   logger,
	}
}

// Execute replaces the editable attributes of a plan. Existing invoices keep
// the price they were issued with.
func (uc *UpdatePlanUseCase) Execute(ctx context.Context, cmd UpdatePlanCommand) (*dto.PlanDTO, error) {
	p, err := loadOwnedPlan(ctx, uc.planRepo, cmd.PlanID, cmd.Wallet)
	if err != nil {
		return nil, err
	}

	if err := p.Update(cmd.Spec, uc.clock.Now()); err != nil {
		uc.logger.Warnw("invalid plan update", "plan_id", cmd.PlanID, "error", err)
		return nil, lifecycle.TranslateError(err)
	}

	if err := uc.planRepo.Update(ctx, p); err != nil {
		uc.logger.Errorw("failed to update plan", "plan_id", cmd.PlanID, "error", err)
		return nil, fmt.Errorf("failed to update plan: %w", lifecycle.TranslateError(err))
	}

	uc.logger.Infow("plan updated", "plan_id", p.ID(), "amount", p.Amount(), "interval", p.Interval())
	return dto.ToPlanDTO(p), nil
}
