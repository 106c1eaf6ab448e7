package usecases

import (
	"context"

	paymentdto "github.com/orris-inc/lnsubs/internal/application/payment/dto"
	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
)

// TransactionRunner runs fn inside one database transaction.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// InvoiceIssuer bills a subscription for its next period. It returns nil, nil
// when the subscription is not due or already has a pending invoice.
type InvoiceIssuer interface {
	Execute(ctx context.Context, subscriptionID string) (*paymentdto.InvoiceDTO, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, eventType audit.EventType, wallet, ipAddress, details string)
}

func loadOwnedPlan(ctx context.Context, repo plan.Repository, planID, wallet string) (*plan.Plan, error) {
	p, err := repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	if !p.OwnedBy(wallet) {
		return nil, apperrors.NewForbiddenError("plan belongs to another wallet")
	}
	return p, nil
}

func loadOwnedSubscription(ctx context.Context, repo subscription.Repository, subscriptionID, wallet string) (*subscription.Subscription, error) {
	sub, err := repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	if !sub.OwnedBy(wallet) {
		return nil, apperrors.NewForbiddenError("subscription belongs to another wallet")
	}
	return sub, nil
}
