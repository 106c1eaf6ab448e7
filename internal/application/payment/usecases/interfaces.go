package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
)

type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// InvoiceMailer sends a freshly issued invoice to the subscriber.
type InvoiceMailer interface {
	SendInvoiceEmail(to, planName string, amount int64, paymentRequest string, periodEnd time.Time) error
}

// QREncoder renders content as a square PNG image of size pixels.
type QREncoder interface {
	EncodePNG(content string, size int) ([]byte, error)
}

func loadPlan(ctx context.Context, repo plan.Repository, planID string) (*plan.Plan, error) {
	p, err := repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	return p, nil
}

func loadSubscription(ctx context.Context, repo subscription.Repository, subscriptionID string) (*subscription.Subscription, error) {
	sub, err := repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	return sub, nil
}

func loadAttemptByHash(ctx context.Context, repo payment.Repository, paymentHash string) (*payment.Attempt, error) {
	attempt, err := repo.GetByPaymentHash(ctx, paymentHash)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, apperrors.NewNotFoundError("payment not found")
	}
	return attempt, nil
}
