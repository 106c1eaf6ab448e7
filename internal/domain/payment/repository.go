package payment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, attempt *Attempt) error
	// GetByID returns nil, nil when the attempt does not exist.
	GetByID(ctx context.Context, id string) (*Attempt, error)
	// GetByPaymentHash returns nil, nil when no attempt carries the hash.
	GetByPaymentHash(ctx context.Context, paymentHash string) (*Attempt, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Attempt, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*Attempt, error)
	HasPendingForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error)

	// Settle writes a paid or failed attempt only if the stored row is still
	// pending. It returns false when another writer settled it first.
	Settle(ctx context.Context, attempt *Attempt) (bool, error)
}
