package usecases

import (
	"context"
	"time"

	paymentdto "github.com/orris-inc/lnsubs/internal/application/payment/dto"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
)

type mockPlanRepo struct {
	plans map[string]*plan.Plan

	IncrementActiveFunc func(ctx context.Context, planID string) error

	increments int
	decrements int
}

func newMockPlanRepo(plans ...*plan.Plan) *mockPlanRepo {
	m := &mockPlanRepo{plans: make(map[string]*plan.Plan)}
	for _, p := range plans {
		m.plans[p.ID()] = p
	}
	return m
}

func (m *mockPlanRepo) Create(ctx context.Context, p *plan.Plan) error { return nil }
func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	return m.plans[id], nil
}
func (m *mockPlanRepo) ListByWallet(ctx context.Context, wallet string) ([]*plan.Plan, error) {
	return nil, nil
}
func (m *mockPlanRepo) Update(ctx context.Context, p *plan.Plan) error { return nil }
func (m *mockPlanRepo) Delete(ctx context.Context, id string) error    { return nil }
func (m *mockPlanRepo) IncrementActive(ctx context.Context, planID string) error {
	if m.IncrementActiveFunc != nil {
		return m.IncrementActiveFunc(ctx, planID)
	}
	m.increments++
	return nil
}
func (m *mockPlanRepo) DecrementActive(ctx context.Context, planID string) error {
	m.decrements++
	return nil
}
func (m *mockPlanRepo) RecountActive(ctx context.Context, planID string) (bool, error) {
	return false, nil
}
func (m *mockPlanRepo) ListAllIDs(ctx context.Context) ([]string, error) { return nil, nil }

type mockSubscriptionRepo struct {
	subs map[string]*subscription.Subscription
}

func newMockSubscriptionRepo(subs ...*subscription.Subscription) *mockSubscriptionRepo {
	m := &mockSubscriptionRepo{subs: make(map[string]*subscription.Subscription)}
	for _, s := range subs {
		m.subs[s.ID()] = s
	}
	return m
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	m.subs[sub.ID()] = sub
	return nil
}
func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	return m.subs[id], nil
}
func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.SetVersion(sub.Version() + 1)
	m.subs[sub.ID()] = sub
	return nil
}
func (m *mockSubscriptionRepo) ListByWallet(ctx context.Context, wallet string) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, s := range m.subs {
		if s.Wallet() == wallet {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *mockSubscriptionRepo) ListByPlan(ctx context.Context, planID string) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, s := range m.subs {
		if s.PlanID() == planID {
			out = append(out, s)
		}
	}
	return out, nil
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

type mockTxRunner struct {
	calls int
}

func (m *mockTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockInvoiceIssuer struct {
	ExecuteFunc func(ctx context.Context, subscriptionID string) (*paymentdto.InvoiceDTO, error)

	calls []string
}

func (m *mockInvoiceIssuer) Execute(ctx context.Context, subscriptionID string) (*paymentdto.InvoiceDTO, error) {
	m.calls = append(m.calls, subscriptionID)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, subscriptionID)
	}
	return &paymentdto.InvoiceDTO{
		PaymentID:      "pay_test000001",
		SubscriptionID: subscriptionID,
		PaymentHash:    "hash-1",
		PaymentRequest: "lnbc1test",
	}, nil
}

type recordingPublisher struct {
	events []lifecycle.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event lifecycle.Event) {
	p.events = append(p.events, event)
}

type mockAuditor struct {
	events []audit.EventType
}

func (m *mockAuditor) Record(ctx context.Context, eventType audit.EventType, wallet, ipAddress, details string) {
	m.events = append(m.events, eventType)
}
