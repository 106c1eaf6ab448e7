package usecases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
)

type mockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*plan.Plan

	decrements int
	drifted    map[string]bool
	recountErr map[string]error
	recounted  []string
}

func newMockPlanRepo(plans ...*plan.Plan) *mockPlanRepo {
	m := &mockPlanRepo{
		plans:      make(map[string]*plan.Plan),
		drifted:    make(map[string]bool),
		recountErr: make(map[string]error),
	}
	for _, p := range plans {
		m.plans[p.ID()] = p
	}
	return m
}

func (m *mockPlanRepo) Create(ctx context.Context, p *plan.Plan) error { return nil }
func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plans[id], nil
}
func (m *mockPlanRepo) ListByWallet(ctx context.Context, wallet string) ([]*plan.Plan, error) {
	return nil, nil
}
func (m *mockPlanRepo) Update(ctx context.Context, p *plan.Plan) error           { return nil }
func (m *mockPlanRepo) Delete(ctx context.Context, id string) error              { return nil }
func (m *mockPlanRepo) IncrementActive(ctx context.Context, planID string) error { return nil }
func (m *mockPlanRepo) DecrementActive(ctx context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decrements++
	return nil
}
func (m *mockPlanRepo) RecountActive(ctx context.Context, planID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recounted = append(m.recounted, planID)
	if err := m.recountErr[planID]; err != nil {
		return false, err
	}
	changed := m.drifted[planID]
	m.drifted[planID] = false
	return changed, nil
}
func (m *mockPlanRepo) ListAllIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.plans))
	for id := range m.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type mockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*subscription.Subscription

	live      map[string]int64
	due       []*subscription.Subscription
	rollovers []*subscription.Subscription
	updateErr error
	queries   []subscription.DueQuery
}

func newMockSubscriptionRepo(subs ...*subscription.Subscription) *mockSubscriptionRepo {
	m := &mockSubscriptionRepo{
		subs: make(map[string]*subscription.Subscription),
		live: make(map[string]int64),
	}
	for _, s := range subs {
		m.subs[s.ID()] = s
	}
	return m
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID()] = sub
	return nil
}
func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id], nil
}
func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	sub.SetVersion(sub.Version() + 1)
	m.subs[sub.ID()] = sub
	return nil
}
func (m *mockSubscriptionRepo) ListByWallet(ctx context.Context, wallet string) ([]*subscription.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) ListByPlan(ctx context.Context, planID string) ([]*subscription.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) CountLiveByPlan(ctx context.Context, planID string) (int64, error) {
	return m.live[planID], nil
}
func (m *mockSubscriptionRepo) FindDue(ctx context.Context, query subscription.DueQuery) ([]*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	skip := make(map[string]bool, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		skip[id] = true
	}
	var found []*subscription.Subscription
	for _, sub := range m.due {
		if !skip[sub.ID()] {
			found = append(found, sub)
		}
	}
	return found, nil
}
func (m *mockSubscriptionRepo) FindRolloverCandidates(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	return m.rollovers, nil
}

type mockPaymentRepo struct {
	mu       sync.Mutex
	attempts map[string]*payment.Attempt
}

func newMockPaymentRepo(attempts ...*payment.Attempt) *mockPaymentRepo {
	m := &mockPaymentRepo{attempts: make(map[string]*payment.Attempt)}
	for _, a := range attempts {
		m.attempts[a.ID()] = a
	}
	return m
}

func (m *mockPaymentRepo) Create(ctx context.Context, attempt *payment.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attempt.ID()] = attempt
	return nil
}
func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*payment.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id], nil
}
func (m *mockPaymentRepo) GetByPaymentHash(ctx context.Context, paymentHash string) (*payment.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.PaymentHash() == paymentHash {
			return a, nil
		}
	}
	return nil, nil
}
func (m *mockPaymentRepo) ListBySubscription(ctx context.Context, subscriptionID string) ([]*payment.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Attempt
	for _, a := range m.attempts {
		if a.SubscriptionID() == subscriptionID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *mockPaymentRepo) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*payment.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Attempt
	for _, a := range m.attempts {
		if a.IsPending() && !a.CreatedAt().After(createdBefore) {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *mockPaymentRepo) HasPendingForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.SubscriptionID() == subscriptionID && a.IsPending() && a.PeriodStart().Equal(periodStart) {
			return true, nil
		}
	}
	return false, nil
}
func (m *mockPaymentRepo) Settle(ctx context.Context, attempt *payment.Attempt) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attempt.ID()] = attempt
	return true, nil
}

type mockProvider struct {
	mu sync.Mutex

	IssueInvoiceFunc func(ctx context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error)
	statuses         map[string]*paymentgateway.InvoiceStatus

	requests []paymentgateway.InvoiceRequest
}

func (m *mockProvider) IssueInvoice(ctx context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	n := len(m.requests)
	m.mu.Unlock()

	if m.IssueInvoiceFunc != nil {
		return m.IssueInvoiceFunc(ctx, req)
	}
	return &paymentgateway.Invoice{
		PaymentHash:    req.CorrelationID + "-hash",
		PaymentRequest: "lnbc" + string(rune('0'+n%10)),
	}, nil
}

func (m *mockProvider) CheckInvoice(ctx context.Context, wallet, paymentHash string) (*paymentgateway.InvoiceStatus, error) {
	if s, ok := m.statuses[paymentHash]; ok {
		return s, nil
	}
	return &paymentgateway.InvoiceStatus{State: paymentgateway.InvoicePending}, nil
}

type mockTxRunner struct{}

func (mockTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.EventType
}

func (p *recordingPublisher) Publish(ctx context.Context, event lifecycle.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.Type)
}

type mockQREncoder struct {
	content string
}

func (m *mockQREncoder) EncodePNG(content string, size int) ([]byte, error) {
	m.content = content
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
