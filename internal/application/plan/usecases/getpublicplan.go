package usecases

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/application/plan/dto"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type GetPublicPlanUseCase struct {
	planRepo plan.Repository
	renderer DescriptionRenderer
	logger   logger.Interface
}

func NewGetPublicPlanUseCase(
	planRepo plan.Repository,
	renderer DescriptionRenderer,
	logger logger.Interface,
) *GetPublicPlanUseCase {
	return &GetPublicPlanUseCase{
		planRepo: planRepo,
		renderer: renderer,
		logger:   logger,
	}
}

func (uc *GetPublicPlanUseCase) Execute(ctx context.Context, planID string) (*dto.PublicPlanDTO, error) {
	if !id.ValidatePublicID(planID) {
		return nil, apperrors.NewValidationError("invalid plan ID format")
	}

	p, err := uc.planRepo.GetByID(ctx, planID)
	if err != nil {
		uc.logger.Errorw("failed to load public plan", "plan_id", planID, "error", err)
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}

	html, err := uc.renderer.ToSafeHTML(p.Description())
	if err != nil {
		uc.logger.Warnw("failed to render plan description", "plan_id", planID, "error", err)
		html = ""
	}

	return dto.ToPublicPlanDTO(p, html), nil
}
