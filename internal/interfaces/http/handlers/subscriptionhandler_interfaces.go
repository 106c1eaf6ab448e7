package handlers

import (
	"context"

	paymentdto "github.com/orris-inc/lnsubs/internal/application/payment/dto"
	paymentusecases "github.com/orris-inc/lnsubs/internal/application/payment/usecases"
	subdto "github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
)

// Use case interfaces for SubscriptionHandler

type createSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd subusecases.CreateSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type getSubscriptionUseCase interface {
	Execute(ctx context.Context, query subusecases.GetSubscriptionQuery) (*subdto.SubscriptionDTO, error)
}

type listSubscriptionsUseCase interface {
	Execute(ctx context.Context, wallet string) ([]*subdto.SubscriptionDTO, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd subusecases.CancelSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type listSubscriptionPaymentsUseCase interface {
	Execute(ctx context.Context, query paymentusecases.ListSubscriptionPaymentsQuery) ([]*paymentdto.PaymentDTO, error)
}
