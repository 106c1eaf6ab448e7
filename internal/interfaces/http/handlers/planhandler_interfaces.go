package handlers

import (
	"context"

	plandto "github.com/orris-inc/lnsubs/internal/application/plan/dto"
	planusecases "github.com/orris-inc/lnsubs/internal/application/plan/usecases"
	subdto "github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
)

// Use case interfaces for PlanHandler

type createPlanUseCase interface {
	Execute(ctx context.Context, cmd planusecases.CreatePlanCommand) (*plandto.PlanDTO, error)
}

type updatePlanUseCase interface {
	Execute(ctx context.Context, cmd planusecases.UpdatePlanCommand) (*plandto.PlanDTO, error)
}

type getPlanUseCase interface {
	Execute(ctx context.Context, query planusecases.GetPlanQuery) (*plandto.PlanDTO, error)
}

type listPlansUseCase interface {
	Execute(ctx context.Context, wallet string) ([]*plandto.PlanDTO, error)
}

type deletePlanUseCase interface {
	Execute(ctx context.Context, cmd planusecases.DeletePlanCommand) error
}

type listPlanSubscriptionsUseCase interface {
	Execute(ctx context.Context, query subusecases.ListPlanSubscriptionsQuery) ([]*subdto.SubscriptionDTO, error)
}
