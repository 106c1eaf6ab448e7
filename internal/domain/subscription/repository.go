package subscription

import (
	"context"
	"time"
)

// DueQuery selects subscriptions the collector should invoice.
type DueQuery struct {
	Now   time.Time
	Limit int
	// ExcludeIDs skips subscriptions that are backing off after a failed run.
	ExcludeIDs []string
}

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	// GetByID returns nil, nil when the subscription does not exist.
	GetByID(ctx context.Context, id string) (*Subscription, error)
	// Update persists sub if its version still matches the stored row and
	// returns ErrConcurrentModification otherwise.
	Update(ctx context.Context, sub *Subscription) error

	ListByWallet(ctx context.Context, wallet string) ([]*Subscription, error)
	ListByPlan(ctx context.Context, planID string) ([]*Subscription, error)
	CountLiveByPlan(ctx context.Context, planID string) (int64, error)

	// FindDue returns billable subscriptions whose payment date has passed and
	// that have no pending invoice for the period the next invoice would cover.
	FindDue(ctx context.Context, query DueQuery) ([]*Subscription, error)
	// FindRolloverCandidates returns live subscriptions whose current period has ended
	// and that either need a trial conversion or have a pending cancellation.
	FindRolloverCandidates(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}
