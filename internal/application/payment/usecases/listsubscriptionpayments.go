package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/application/payment/dto"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type ListSubscriptionPaymentsQuery struct {
	SubscriptionID string
	Wallet         string
}

type ListSubscriptionPaymentsUseCase struct {
	subscriptionRepo subscription.Repository
	paymentRepo      payment.Repository
	logger           logger.Interface
}

func NewListSubscriptionPaymentsUseCase(
	subscriptionRepo subscription.Repository,
	paymentRepo payment.Repository,
	logger logger.Interface,
) *ListSubscriptionPaymentsUseCase {
	return &ListSubscriptionPaymentsUseCase{
		subscriptionRepo: subscriptionRepo,
		paymentRepo:      paymentRepo,
		logger:           logger,
	}
}

// Execute lists every attempt for the subscription, newest first.
func (uc *ListSubscriptionPaymentsUseCase) Execute(ctx context.Context, query ListSubscriptionPaymentsQuery) ([]*dto.PaymentDTO, error) {
	sub, err := loadSubscription(ctx, uc.subscriptionRepo, query.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.OwnedBy(query.Wallet) {
		return nil, apperrors.NewForbiddenError("subscription belongs to another wallet")
	}

	attempts, err := uc.paymentRepo.ListBySubscription(ctx, sub.ID())
	if err != nil {
		uc.logger.Errorw("failed to list payments", "subscription_id", sub.ID(), "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return dto.ToPaymentDTOList(attempts), nil
}
