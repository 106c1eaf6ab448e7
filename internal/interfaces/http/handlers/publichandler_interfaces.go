package handlers

import (
	"context"

	plandto "github.com/orris-inc/lnsubs/internal/application/plan/dto"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
)

// Use case interfaces for PublicHandler

type publicSubscribeUseCase interface {
	Execute(ctx context.Context, cmd subusecases.PublicSubscribeCommand) (*subusecases.PublicSubscribeResult, error)
}

type getPublicPlanUseCase interface {
	Execute(ctx context.Context, planID string) (*plandto.PublicPlanDTO, error)
}

type getInvoiceQRUseCase interface {
	Execute(ctx context.Context, paymentID string) ([]byte, error)
}
