package plan

import "context"

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	// GetByID returns nil, nil when the plan does not exist.
	GetByID(ctx context.Context, id string) (*Plan, error)
	ListByWallet(ctx context.Context, wallet string) ([]*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error

	// IncrementActive adds one live subscription, failing with
	// ErrCapacityExceeded when the plan is full.
	IncrementActive(ctx context.Context, planID string) error
	// DecrementActive removes one live subscription; it never goes below zero.
	DecrementActive(ctx context.Context, planID string) error
	// RecountActive resets the counter to the live subscription count and
	// reports whether it had drifted.
	RecountActive(ctx context.Context, planID string) (bool, error)
	ListAllIDs(ctx context.Context) ([]string, error)
}
