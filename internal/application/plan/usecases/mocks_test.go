package usecases

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
)

type mockPlanRepo struct {
	plans map[string]*plan.Plan

	CreateFunc  func(ctx context.Context, p *plan.Plan) error
	GetByIDFunc func(ctx context.Context, id string) (*plan.Plan, error)
	DeleteFunc  func(ctx context.Context, id string) error

	deleted []string
}

func newMockPlanRepo(plans ...*plan.Plan) *mockPlanRepo {
	m := &mockPlanRepo{plans: make(map[string]*plan.Plan)}
	for _, p := range plans {
		m.plans[p.ID()] = p
	}
	return m
}

func (m *mockPlanRepo) Create(ctx context.Context, p *plan.Plan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.plans[p.ID()] = p
	return nil
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return m.plans[id], nil
}

func (m *mockPlanRepo) ListByWallet(ctx context.Context, wallet string) ([]*plan.Plan, error) {
	var out []*plan.Plan
	for _, p := range m.plans {
		if p.Wallet() == wallet {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPlanRepo) Update(ctx context.Context, p *plan.Plan) error {
	m.plans[p.ID()] = p
	return nil
}

func (m *mockPlanRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.deleted = append(m.deleted, id)
	delete(m.plans, id)
	return nil
}

func (m *mockPlanRepo) IncrementActive(ctx context.Context, planID string) error { return nil }
func (m *mockPlanRepo) DecrementActive(ctx context.Context, planID string) error { return nil }
func (m *mockPlanRepo) RecountActive(ctx context.Context, planID string) (bool, error) {
	return false, nil
}
func (m *mockPlanRepo) ListAllIDs(ctx context.Context) ([]string, error) { return nil, nil }

type mockLiveCounter struct {
	count int64
	err   error
}

func (m *mockLiveCounter) CountLiveByPlan(ctx context.Context, planID string) (int64, error) {
	return m.count, m.err
}

type mockTxRunner struct{}

func (mockTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockAuditor struct {
	events []audit.EventType
}

func (m *mockAuditor) Record(ctx context.Context, eventType audit.EventType, wallet, ipAddress, details string) {
	m.events = append(m.events, eventType)
}

type mockRenderer struct {
	html string
	err  error
}

func (m *mockRenderer) ToSafeHTML(markdown string) (string, error) {
	return m.html, m.err
}
