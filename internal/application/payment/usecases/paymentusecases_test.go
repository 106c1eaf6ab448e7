package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lnsubs/internal/application/payment/paymentgateway"
	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/billing"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	subvo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

var (
	t0    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	month = 30 * 24 * time.Hour
)

func newTestPlan(t *testing.T, trialDays int) *plan.Plan {
	t.Helper()
	p, err := plan.NewPlan("wallet-1", plan.Spec{
		Name:      "Basic",
		Amount:    5000,
		Interval:  "monthly",
		TrialDays: trialDays,
	}, t0)
	require.NoError(t, err)
	require.NoError(t, p.SetID("plan_basic001"))
	return p
}

func newTestSubscription(t *testing.T, p *plan.Plan, id string) *subscription.Subscription {
	t.Helper()
	schedule, err := billing.InitialSchedule(p, t0)
	require.NoError(t, err)
	sub, err := subscription.NewSubscription(p.ID(), p.Wallet(), subscription.Subscriber{}, schedule, t0)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(id))
	return sub
}

type fixture struct {
	planRepo    *mockPlanRepo
	subRepo     *mockSubscriptionRepo
	paymentRepo *mockPaymentRepo
	provider    *mockProvider
	publisher   *recordingPublisher
	manager     *lifecycle.Manager
	clock       biztime.Clock
	log         logger.Interface
}

func newFixture(now time.Time, maxFailed int, p *plan.Plan, subs ...*subscription.Subscription) *fixture {
	f := &fixture{
		planRepo:    newMockPlanRepo(p),
		subRepo:     newMockSubscriptionRepo(subs...),
		paymentRepo: newMockPaymentRepo(),
		provider:    &mockProvider{statuses: map[string]*paymentgateway.InvoiceStatus{}},
		publisher:   &recordingPublisher{},
		clock:       biztime.FixedClock{T: now},
		log:         logger.NewNopLogger(),
	}
	f.manager = lifecycle.NewManager(f.planRepo, f.subRepo, maxFailed, f.log)
	return f
}

func (f *fixture) invoicer() *InvoiceSubscriptionUseCase {
	return NewInvoiceSubscriptionUseCase(f.subRepo, f.planRepo, f.paymentRepo, f.provider, mockTxRunner{}, time.Hour, f.clock, f.log)
}

func (f *fixture) recorder() *RecordPaymentOutcomeUseCase {
	return NewRecordPaymentOutcomeUseCase(f.paymentRepo, f.subRepo, f.planRepo, f.manager, mockTxRunner{}, f.publisher, f.clock, f.log)
}

func TestInvoiceSubscriptionUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("due subscription gets one pending attempt", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_invoice001")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)
		uc := f.invoicer()

		invoice, err := uc.Execute(ctx, sub.ID())
		require.NoError(t, err)
		require.NotNil(t, invoice)
		assert.Equal(t, int64(5000), invoice.Amount)
		assert.Equal(t, t0, invoice.PeriodStart)
		assert.Equal(t, t0.Add(month), invoice.PeriodEnd)

		require.Len(t, f.provider.requests, 1)
		req := f.provider.requests[0]
		assert.Equal(t, "Subscription payment for Basic", req.Memo)
		assert.Equal(t, "wallet-1", req.Wallet)
		assert.True(t, strings.HasPrefix(req.CorrelationID, sub.ID()+"_"))

		again, err := uc.Execute(ctx, sub.ID())
		require.NoError(t, err)
		assert.Nil(t, again)
		assert.Len(t, f.provider.requests, 1)
		assert.Len(t, f.paymentRepo.attempts, 1)
	})

	t.Run("trialing subscription is not due", func(t *testing.T) {
		p := newTestPlan(t, 14)
		sub := newTestSubscription(t, p, "sub_invoice002")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)

		invoice, err := f.invoicer().Execute(ctx, sub.ID())
		require.NoError(t, err)
		assert.Nil(t, invoice)
		assert.Empty(t, f.provider.requests)
	})

	t.Run("provider failure is transient and leaves no attempt", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_invoice003")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)
		f.provider.IssueInvoiceFunc = func(ctx context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error) {
			return nil, errors.New("connection refused")
		}

		_, err := f.invoicer().Execute(ctx, sub.ID())
		require.Error(t, err)
		assert.True(t, apperrors.IsTransientError(err))
		assert.Empty(t, f.paymentRepo.attempts)
		assert.Equal(t, subvo.StatusActive, sub.Status())
	})

	t.Run("row claimed by a concurrent run is skipped", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_invoice004")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)
		f.subRepo.updateErr = subscription.ErrConcurrentModification

		invoice, err := f.invoicer().Execute(ctx, sub.ID())
		require.NoError(t, err)
		assert.Nil(t, invoice)
		assert.Empty(t, f.provider.requests)
		assert.Empty(t, f.paymentRepo.attempts)
	})

	t.Run("claim failure stops before the provider", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_invoice005")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)
		f.subRepo.updateErr = errors.New("database is locked")

		_, err := f.invoicer().Execute(ctx, sub.ID())
		require.Error(t, err)
		assert.Empty(t, f.provider.requests)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		p := newTestPlan(t, 0)
		f := newFixture(t0, 0, p)

		_, err := f.invoicer().Execute(ctx, "sub_missing001")
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

func TestRunBillingCycleUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("per-subscription failures do not stop the batch", func(t *testing.T) {
		p := newTestPlan(t, 0)
		subs := []*subscription.Subscription{
			newTestSubscription(t, p, "sub_cycle00001"),
			newTestSubscription(t, p, "sub_cycle00002"),
			newTestSubscription(t, p, "sub_cycle00003"),
		}
		f := newFixture(t0.Add(time.Hour), 0, p, subs...)
		f.subRepo.due = subs
		f.provider.IssueInvoiceFunc = func(ctx context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error) {
			if strings.HasPrefix(req.CorrelationID, "sub_cycle00002") {
				return nil, errors.New("timeout")
			}
			return &paymentgateway.Invoice{PaymentHash: req.CorrelationID, PaymentRequest: "lnbc1"}, nil
		}

		invoicer := f.invoicer()
		uc := NewRunBillingCycleUseCase(
			f.subRepo, f.planRepo, f.manager, mockTxRunner{},
			NewFindDueSubscriptionsUseCase(f.subRepo, f.clock, f.log),
			invoicer, f.publisher,
			BillingCycleConfig{BatchSize: 10, Workers: 2},
			f.clock, f.log,
		)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Scanned)
		assert.Equal(t, 2, result.Issued)
		assert.Equal(t, 1, result.Failed)
		assert.Zero(t, result.Skipped)
		assert.Len(t, f.paymentRepo.attempts, 2)
	})

	t.Run("failed subscriptions sit out scans until the backoff expires", func(t *testing.T) {
		p := newTestPlan(t, 0)
		flaky := newTestSubscription(t, p, "sub_cycle00005")
		healthy := newTestSubscription(t, p, "sub_cycle00006")
		f := newFixture(t0.Add(time.Hour), 0, p, flaky, healthy)
		clock := &stepClock{t: t0.Add(time.Hour)}
		f.clock = clock
		f.subRepo.due = []*subscription.Subscription{flaky, healthy}

		providerDown := true
		f.provider.IssueInvoiceFunc = func(ctx context.Context, req paymentgateway.InvoiceRequest) (*paymentgateway.Invoice, error) {
			if providerDown && strings.HasPrefix(req.CorrelationID, flaky.ID()) {
				return nil, errors.New("connection refused")
			}
			return &paymentgateway.Invoice{PaymentHash: req.CorrelationID, PaymentRequest: "lnbc1"}, nil
		}

		uc := NewRunBillingCycleUseCase(
			f.subRepo, f.planRepo, f.manager, mockTxRunner{},
			NewFindDueSubscriptionsUseCase(f.subRepo, f.clock, f.log),
			f.invoicer(), f.publisher,
			BillingCycleConfig{BatchSize: 10, Workers: 1, RetryBackoff: 10 * time.Minute},
			f.clock, f.log,
		)

		first, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Issued)
		assert.Equal(t, 1, first.Failed)
		assert.Zero(t, first.BackingOff)

		clock.Advance(time.Minute)
		second, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, second.Scanned)
		assert.Equal(t, 1, second.BackingOff)
		assert.Zero(t, second.Failed)
		require.Len(t, f.subRepo.queries, 2)
		assert.Equal(t, []string{flaky.ID()}, f.subRepo.queries[1].ExcludeIDs)
		assert.Len(t, f.provider.requests, 2)

		providerDown = false
		clock.Advance(10 * time.Minute)
		third, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Zero(t, third.BackingOff)
		assert.Equal(t, 1, third.Issued)
		assert.Empty(t, f.subRepo.queries[2].ExcludeIDs)
		assert.Len(t, f.paymentRepo.attempts, 2)
	})

	t.Run("rollover cancels at period end before invoicing", func(t *testing.T) {
		p := newTestPlan(t, 7)
		sub := newTestSubscription(t, p, "sub_cycle00004")
		require.True(t, sub.ScheduleCancel(t0))

		f := newFixture(t0.Add(8*24*time.Hour), 0, p, sub)
		f.subRepo.rollovers = []*subscription.Subscription{sub}

		uc := NewRunBillingCycleUseCase(
			f.subRepo, f.planRepo, f.manager, mockTxRunner{},
			NewFindDueSubscriptionsUseCase(f.subRepo, f.clock, f.log),
			f.invoicer(), f.publisher,
			BillingCycleConfig{},
			f.clock, f.log,
		)

		result, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.RolledOver)
		assert.Equal(t, subvo.StatusCanceled, sub.Status())
		assert.Equal(t, 1, f.planRepo.decrements)
		assert.Equal(t, []lifecycle.EventType{lifecycle.EventSubscriptionCanceled}, f.publisher.events)
	})
}

func TestRecordPaymentOutcomeUseCase(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, f *fixture, subID string) string {
		t.Helper()
		invoice, err := f.invoicer().Execute(ctx, subID)
		require.NoError(t, err)
		require.NotNil(t, invoice)
		return invoice.PaymentHash
	}

	t.Run("paid attempt advances the subscription once", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_outcome001")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)
		hash := issue(t, f, sub.ID())

		result, err := f.recorder().Execute(ctx, RecordPaymentOutcomeCommand{PaymentHash: hash, Paid: true})
		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Equal(t, "paid", result.Payment.Status)
		assert.Equal(t, subvo.StatusActive, sub.Status())
		assert.Equal(t, t0.Add(month), sub.NextPaymentDate())
		require.NotNil(t, sub.LastPaymentID())
		assert.Equal(t, result.Payment.ID, *sub.LastPaymentID())

		dup, err := f.recorder().Execute(ctx, RecordPaymentOutcomeCommand{PaymentHash: hash, Paid: false})
		require.NoError(t, err)
		assert.False(t, dup.Applied)
		assert.Equal(t, "paid", dup.Payment.Status)
		assert.Equal(t, []lifecycle.EventType{lifecycle.EventPaymentSucceeded}, f.publisher.events)
	})

	t.Run("failure marks past due without canceling", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_outcome002")
		f := newFixture(t0.Add(time.Hour), 0, p, sub)
		hash := issue(t, f, sub.ID())

		result, err := f.recorder().Execute(ctx, RecordPaymentOutcomeCommand{PaymentHash: hash, Reason: "expired"})
		require.NoError(t, err)
		assert.True(t, result.Applied)
		require.NotNil(t, result.Payment.FailureReason)
		assert.Equal(t, "expired", *result.Payment.FailureReason)
		assert.Equal(t, subvo.StatusPastDue, sub.Status())
		assert.Equal(t, 1, sub.FailedPaymentCount())
		assert.Zero(t, f.planRepo.decrements)
	})

	t.Run("failure threshold cancels", func(t *testing.T) {
		p := newTestPlan(t, 0)
		sub := newTestSubscription(t, p, "sub_outcome003")
		f := newFixture(t0.Add(time.Hour), 1, p, sub)
		hash := issue(t, f, sub.ID())

		_, err := f.recorder().Execute(ctx, RecordPaymentOutcomeCommand{PaymentHash: hash})
		require.NoError(t, err)
		assert.Equal(t, subvo.StatusCanceled, sub.Status())
		assert.Equal(t, 1, f.planRepo.decrements)
		assert.Equal(t, []lifecycle.EventType{
			lifecycle.EventPaymentFailed,
			lifecycle.EventSubscriptionCanceled,
		}, f.publisher.events)
	})

	t.Run("unknown hash", func(t *testing.T) {
		p := newTestPlan(t, 0)
		f := newFixture(t0, 0, p)

		_, err := f.recorder().Execute(ctx, RecordPaymentOutcomeCommand{PaymentHash: "nope", Paid: true})
		assert.True(t, apperrors.IsNotFoundError(err))

		_, err = f.recorder().Execute(ctx, RecordPaymentOutcomeCommand{PaymentHash: "  "})
		assert.True(t, apperrors.IsValidationError(err))
	})
}

func TestReconcilePendingPaymentsUseCase(t *testing.T) {
	ctx := context.Background()
	p := newTestPlan(t, 0)
	paid := newTestSubscription(t, p, "sub_reconc0001")
	waiting := newTestSubscription(t, p, "sub_reconc0002")
	f := newFixture(t0.Add(time.Hour), 0, p, paid, waiting)

	paidInvoice, err := f.invoicer().Execute(ctx, paid.ID())
	require.NoError(t, err)
	_, err = f.invoicer().Execute(ctx, waiting.ID())
	require.NoError(t, err)

	f.provider.statuses[paidInvoice.PaymentHash] = &paymentgateway.InvoiceStatus{State: paymentgateway.InvoicePaid}

	uc := NewReconcilePendingPaymentsUseCase(f.paymentRepo, f.subRepo, f.provider, f.recorder(), 0, 10, f.clock, f.log)
	result, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Paid)
	assert.Equal(t, 1, result.Pending)
	assert.Zero(t, result.Errors)
	assert.Equal(t, t0.Add(month), paid.NextPaymentDate())
}

func TestReconcilePlanCountersUseCase(t *testing.T) {
	ctx := context.Background()
	p := newTestPlan(t, 0)
	f := newFixture(t0, 0, p)

	broken, err := plan.NewPlan("wallet-1", plan.Spec{Name: "Broken", Amount: 100, Interval: "daily"}, t0)
	require.NoError(t, err)
	require.NoError(t, broken.SetID("plan_broken01"))
	f.planRepo.plans[broken.ID()] = broken
	f.planRepo.recountErr[broken.ID()] = errors.New("database is locked")
	f.planRepo.drifted[p.ID()] = true

	uc := NewReconcilePlanCountersUseCase(f.planRepo, f.log)

	corrected, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)
	assert.ElementsMatch(t, []string{p.ID(), broken.ID()}, f.planRepo.recounted)

	corrected, err = uc.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, corrected)
}

func TestListSubscriptionPaymentsUseCase(t *testing.T) {
	ctx := context.Background()
	p := newTestPlan(t, 0)
	sub := newTestSubscription(t, p, "sub_listpay001")
	f := newFixture(t0.Add(time.Hour), 0, p, sub)
	_, err := f.invoicer().Execute(ctx, sub.ID())
	require.NoError(t, err)

	uc := NewListSubscriptionPaymentsUseCase(f.subRepo, f.paymentRepo, f.log)

	payments, err := uc.Execute(ctx, ListSubscriptionPaymentsQuery{SubscriptionID: sub.ID(), Wallet: "wallet-1"})
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = uc.Execute(ctx, ListSubscriptionPaymentsQuery{SubscriptionID: sub.ID(), Wallet: "wallet-2"})
	assert.True(t, apperrors.IsForbiddenError(err))
}

func TestGetInvoiceQRUseCase(t *testing.T) {
	ctx := context.Background()

	pending, err := payment.NewAttempt("sub_qr00000001", "hash-qr", "lnbc10n1abc", 10, billing.Period{Start: t0, End: t0.Add(month)}, t0)
	require.NoError(t, err)
	require.NoError(t, pending.SetID("pay_qr00000001"))

	settled, err := payment.NewAttempt("sub_qr00000001", "hash-qr2", "lnbc10n1def", 10, billing.Period{Start: t0, End: t0.Add(month)}, t0)
	require.NoError(t, err)
	require.NoError(t, settled.SetID("pay_qr00000002"))
	require.NoError(t, settled.MarkPaid(t0))

	encoder := &mockQREncoder{}
	uc := NewGetInvoiceQRUseCase(newMockPaymentRepo(pending, settled), encoder, logger.NewNopLogger())

	png, err := uc.Execute(ctx, pending.ID())
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	assert.Equal(t, "lightning:LNBC10N1ABC", encoder.content)

	_, err = uc.Execute(ctx, settled.ID())
	assert.True(t, apperrors.IsConflictError(err))

	_, err = uc.Execute(ctx, "pay_unknown001")
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = uc.Execute(ctx, "../etc")
	assert.True(t, apperrors.IsValidationError(err))
}
