package lifecycle

import (
	"context"
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
)

type mockPlanRepo struct {
	IncrementActiveFunc func(ctx context.Context, planID string) error
	DecrementActiveFunc func(ctx context.Context, planID string) error

	increments int
	decrements int
}

func (m *mockPlanRepo) Create(ctx context.Context, p *plan.Plan) error { return nil }
func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	return nil, nil
}
func (m *mockPlanRepo) ListByWallet(ctx context.Context, wallet string) ([]*plan.Plan, error) {
	return nil, nil
}
func (m *mockPlanRepo) Update(ctx context.Context, p *plan.Plan) error { return nil }
func (m *mockPlanRepo) Delete(ctx context.Context, id string) error    { return nil }
func (m *mockPlanRepo) IncrementActive(ctx context.Context, planID string) error {
	m.increments++
	if m.IncrementActiveFunc != nil {
		return m.IncrementActiveFunc(ctx, planID)
	}
	return nil
}
func (m *mockPlanRepo) DecrementActive(ctx context.Context, planID string) error {
	m.decrements++
	if m.DecrementActiveFunc != nil {
		return m.DecrementActiveFunc(ctx, planID)
	}
	return nil
}
func (m *mockPlanRepo) RecountActive(ctx context.Context, planID string) (bool, error) {
	return false, nil
}
func (m *mockPlanRepo) ListAllIDs(ctx context.Context) ([]string, error) { return nil, nil }

type mockSubscriptionRepo struct {
	CreateFunc func(ctx context.Context, sub *subscription.Subscription) error
	UpdateFunc func(ctx context.Context, sub *subscription.Subscription) error

	created []*subscription.Subscription
	updates int
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sub)
	}
	m.created = append(m.created, sub)
	return nil
}
func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	m.updates++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, sub)
	}
	sub.SetVersion(sub.Version() + 1)
	return nil
}
func (m *mockSubscriptionRepo) ListByWallet(ctx context.Context, wallet string) ([]*subscription.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) ListByPlan(ctx context.Context, planID string) ([]*subscription.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) CountLiveByPlan(ctx context.Context, planID string) (int64, error) {
	return 0, nil
}
func (m *mockSubscriptionRepo) FindDue(ctx context.Context, query subscription.DueQuery) ([]*subscription.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) FindRolloverCandidates(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	return nil, nil
}
