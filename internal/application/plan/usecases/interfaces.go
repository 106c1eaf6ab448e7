package usecases

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
)

// TransactionRunner runs fn inside one database transaction.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// LiveSubscriptionCounter counts subscriptions that still hold plan capacity.
type LiveSubscriptionCounter interface {
	CountLiveByPlan(ctx context.Context, planID string) (int64, error)
}

// DescriptionRenderer turns a plan description into embeddable HTML.
type DescriptionRenderer interface {
	ToSafeHTML(markdown string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, eventType audit.EventType, wallet, ipAddress, details string)
}

// loadOwnedPlan fetches a plan and checks that wallet owns it.
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
