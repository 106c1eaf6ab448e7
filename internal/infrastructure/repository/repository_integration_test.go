package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/domain/billing"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	vo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
	"github.com/orris-inc/lnsubs/internal/shared/db"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

var t0 = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return gdb
}

type repos struct {
	plans         plan.Repository
	subscriptions subscription.Repository
	payments      payment.Repository
	tx            *db.TransactionManager
}

func newRepos(t *testing.T) *repos {
	gdb := setupTestDB(t)
	log := logger.NewNopLogger()
	return &repos{
		plans:         NewPlanRepository(gdb, log),
		subscriptions: NewSubscriptionRepository(gdb, log),
		payments:      NewPaymentRepository(gdb, log),
		tx:            db.NewTransactionManager(gdb),
	}
}

func createPlan(t *testing.T, r *repos, id string, trialDays int, maxSubs *int) *plan.Plan {
	t.Helper()
	p, err := plan.NewPlan("wallet-1", plan.Spec{
		Name:             "Plan " + id,
		Amount:           1000,
		Interval:         "monthly",
		TrialDays:        trialDays,
		MaxSubscriptions: maxSubs,
	}, t0)
	require.NoError(t, err)
	require.NoError(t, p.SetID(id))
	require.NoError(t, r.plans.Create(context.Background(), p))
	return p
}

func buildSubscription(t *testing.T, p *plan.Plan, id string, at time.Time) *subscription.Subscription {
	t.Helper()
	schedule, err := billing.InitialSchedule(p, at)
	require.NoError(t, err)
	sub, err := subscription.NewSubscription(p.ID(), p.Wallet(), subscription.Subscriber{}, schedule, at)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(id))
	return sub
}

func createSubscription(t *testing.T, r *repos, sub *subscription.Subscription) {
	t.Helper()
	require.NoError(t, r.subscriptions.Create(context.Background(), sub))
}

func createAttempt(t *testing.T, r *repos, id, subID, hash string, period billing.Period) *payment.Attempt {
	t.Helper()
	a, err := payment.NewAttempt(subID, hash, "lnbc"+hash, 1000, period, t0)
	require.NoError(t, err)
	require.NoError(t, a.SetID(id))
	require.NoError(t, r.payments.Create(context.Background(), a))
	return a
}

func ptr[T any](v T) *T { return &v }

func TestPlanRepository_Counter(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	p := createPlan(t, r, "plan_counter01", 0, ptr(2))

	require.NoError(t, r.plans.IncrementActive(ctx, p.ID()))
	require.NoError(t, r.plans.IncrementActive(ctx, p.ID()))
	assert.ErrorIs(t, r.plans.IncrementActive(ctx, p.ID()), plan.ErrCapacityExceeded)
	assert.ErrorIs(t, r.plans.IncrementActive(ctx, "plan_missing01"), plan.ErrPlanNotFound)

	stored, err := r.plans.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ActiveSubscriptions())
	assert.Equal(t, 0, *stored.AvailableSlots())

	for i := 0; i < 3; i++ {
		require.NoError(t, r.plans.DecrementActive(ctx, p.ID()))
	}
	stored, err = r.plans.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ActiveSubscriptions())
}

func TestPlanRepository_RecountActive(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	p := createPlan(t, r, "plan_recount01", 0, nil)
	other := createPlan(t, r, "plan_recount02", 0, nil)

	createSubscription(t, r, buildSubscription(t, p, "sub_recount001", t0))
	createSubscription(t, r, buildSubscription(t, p, "sub_recount002", t0))
	createSubscription(t, r, buildSubscription(t, other, "sub_recount003", t0))
	canceled := buildSubscription(t, p, "sub_recount004", t0)
	require.True(t, canceled.CancelNow(t0))
	createSubscription(t, r, canceled)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.plans.IncrementActive(ctx, p.ID()))
	}

	changed, err := r.plans.RecountActive(ctx, p.ID())
	require.NoError(t, err)
	assert.True(t, changed)

	stored, err := r.plans.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ActiveSubscriptions())

	changed, err = r.plans.RecountActive(ctx, p.ID())
	require.NoError(t, err)
	assert.False(t, changed)

	// An increment that lands after the recount survives the next one.
	require.NoError(t, r.plans.IncrementActive(ctx, p.ID()))
	createSubscription(t, r, buildSubscription(t, p, "sub_recount005", t0))
	changed, err = r.plans.RecountActive(ctx, p.ID())
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err = r.plans.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ActiveSubscriptions())

	changed, err = r.plans.RecountActive(ctx, "plan_missing01")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestPlanRepository_UpdateKeepsCounter(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	p := createPlan(t, r, "plan_update001", 0, nil)
	require.NoError(t, r.plans.IncrementActive(ctx, p.ID()))

	require.NoError(t, p.Update(plan.Spec{Name: "Renamed", Amount: 2500, Interval: "weekly"}, t0.Add(time.Hour)))
	require.NoError(t, r.plans.Update(ctx, p))

	stored, err := r.plans.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name())
	assert.Equal(t, int64(2500), stored.Amount())
	assert.Equal(t, "weekly", stored.Interval().String())
	assert.Equal(t, 1, stored.ActiveSubscriptions())

	plans, err := r.plans.ListByWallet(ctx, "wallet-1")
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	require.NoError(t, r.plans.Delete(ctx, p.ID()))
	assert.ErrorIs(t, r.plans.Delete(ctx, p.ID()), plan.ErrPlanNotFound)
	missing, err := r.plans.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSubscriptionRepository_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	p := createPlan(t, r, "plan_lock00001", 0, nil)

	email := "ann@example.com"
	schedule, err := billing.InitialSchedule(p, t0)
	require.NoError(t, err)
	sub, err := subscription.NewSubscription(p.ID(), p.Wallet(), subscription.Subscriber{
		Email:    &email,
		Metadata: map[string]any{"ref": "newsletter", "tier": 2},
	}, schedule, t0)
	require.NoError(t, err)
	require.NoError(t, sub.SetID("sub_lock000001"))
	createSubscription(t, r, sub)

	first, err := r.subscriptions.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	second, err := r.subscriptions.GetByID(ctx, sub.ID())
	require.NoError(t, err)

	assert.Equal(t, "newsletter", first.Metadata()["ref"])
	assert.Equal(t, &email, first.SubscriberEmail())

	require.True(t, first.ScheduleCancel(t0.Add(time.Minute)))
	require.NoError(t, r.subscriptions.Update(ctx, first))
	assert.Equal(t, 2, first.Version())

	require.True(t, second.CancelNow(t0.Add(time.Minute)))
	assert.ErrorIs(t, r.subscriptions.Update(ctx, second), subscription.ErrConcurrentModification)

	stored, err := r.subscriptions.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.True(t, stored.CancelAtPeriodEnd())
	assert.Equal(t, vo.StatusActive, stored.Status())
}

func TestSubscriptionRepository_FindDue(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	monthly := createPlan(t, r, "plan_due00001", 0, nil)
	trial := createPlan(t, r, "plan_due00002", 5, nil)
	now := t0.Add(time.Hour)

	due := buildSubscription(t, monthly, "sub_due0000001", t0)
	createSubscription(t, r, due)

	pastDue := buildSubscription(t, monthly, "sub_due0000002", t0.Add(-time.Hour))
	_, err := pastDue.RecordFailure(t0)
	require.NoError(t, err)
	createSubscription(t, r, pastDue)

	future := buildSubscription(t, monthly, "sub_due0000003", now.Add(time.Minute))
	createSubscription(t, r, future)

	canceled := buildSubscription(t, monthly, "sub_due0000004", t0)
	require.True(t, canceled.CancelNow(t0))
	createSubscription(t, r, canceled)

	trialing := buildSubscription(t, trial, "sub_due0000005", t0)
	createSubscription(t, r, trialing)

	withPending := buildSubscription(t, monthly, "sub_due0000006", t0)
	createSubscription(t, r, withPending)
	period, err := billing.BillablePeriod(withPending, monthly.Interval())
	require.NoError(t, err)
	createAttempt(t, r, "pay_due0000001", withPending.ID(), "hash-pending", period)

	withFailed := buildSubscription(t, monthly, "sub_due0000007", t0)
	createSubscription(t, r, withFailed)
	failed := createAttempt(t, r, "pay_due0000002", withFailed.ID(), "hash-failed", period)
	require.NoError(t, failed.MarkFailed("expired"))
	settled, err := r.payments.Settle(ctx, failed)
	require.NoError(t, err)
	require.True(t, settled)

	endedCancelling := buildSubscription(t, monthly, "sub_due0000008", t0.Add(-40*24*time.Hour))
	require.True(t, endedCancelling.ScheduleCancel(t0.Add(-40*24*time.Hour)))
	createSubscription(t, r, endedCancelling)

	openCancelling := buildSubscription(t, monthly, "sub_due0000009", t0)
	require.True(t, openCancelling.ScheduleCancel(t0))
	createSubscription(t, r, openCancelling)

	found, err := r.subscriptions.FindDue(ctx, subscription.DueQuery{Now: now, Limit: 50})
	require.NoError(t, err)

	ids := make([]string, 0, len(found))
	for _, s := range found {
		assert.True(t, s.IsDue(now), s.ID())
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{pastDue.ID(), due.ID(), withFailed.ID(), openCancelling.ID()}, ids)
	assert.False(t, endedCancelling.IsDue(now))

	excluded, err := r.subscriptions.FindDue(ctx, subscription.DueQuery{
		Now:        now,
		Limit:      50,
		ExcludeIDs: []string{pastDue.ID(), withFailed.ID()},
	})
	require.NoError(t, err)
	require.Len(t, excluded, 2)
	assert.Equal(t, due.ID(), excluded[0].ID())
	assert.Equal(t, openCancelling.ID(), excluded[1].ID())

	limited, err := r.subscriptions.FindDue(ctx, subscription.DueQuery{Now: now, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, pastDue.ID(), limited[0].ID())
}

func TestSubscriptionRepository_FindDueAfterPayment(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	p := createPlan(t, r, "plan_paid00001", 0, nil)

	sub := buildSubscription(t, p, "sub_paid000001", t0)
	createSubscription(t, r, sub)
	period, err := billing.BillablePeriod(sub, p.Interval())
	require.NoError(t, err)

	attempt := createAttempt(t, r, "pay_paid000001", sub.ID(), "hash-paid", period)
	require.NoError(t, attempt.MarkPaid(t0.Add(time.Minute)))
	ok, err := r.payments.Settle(ctx, attempt)
	require.NoError(t, err)
	require.True(t, ok)

	again, err := r.payments.Settle(ctx, attempt)
	require.NoError(t, err)
	assert.False(t, again)

	applied, err := sub.ApplyPayment(period, attempt.ID(), t0.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, r.subscriptions.Update(ctx, sub))

	found, err := r.subscriptions.FindDue(ctx, subscription.DueQuery{Now: t0.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = r.subscriptions.FindDue(ctx, subscription.DueQuery{Now: period.End})
	require.NoError(t, err)
	require.Len(t, found, 1)

	next, err := billing.BillablePeriod(found[0], p.Interval())
	require.NoError(t, err)
	assert.Equal(t, period.End, next.Start)

	pending, err := r.payments.HasPendingForPeriod(ctx, sub.ID(), period.Start)
	require.NoError(t, err)
	assert.False(t, pending)

	byHash, err := r.payments.GetByPaymentHash(ctx, "hash-paid")
	require.NoError(t, err)
	require.NotNil(t, byHash.PaymentDate())
	assert.True(t, t0.Add(time.Minute).Equal(*byHash.PaymentDate()))
}

func TestSubscriptionRepository_RolloverCandidates(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	trial := createPlan(t, r, "plan_roll00001", 3, nil)
	monthly := createPlan(t, r, "plan_roll00002", 0, nil)

	endedTrial := buildSubscription(t, trial, "sub_roll000001", t0)
	createSubscription(t, r, endedTrial)

	cancelling := buildSubscription(t, monthly, "sub_roll000002", t0)
	require.True(t, cancelling.ScheduleCancel(t0))
	createSubscription(t, r, cancelling)

	plainActive := buildSubscription(t, monthly, "sub_roll000003", t0)
	createSubscription(t, r, plainActive)

	found, err := r.subscriptions.FindRolloverCandidates(ctx, t0.Add(4*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, endedTrial.ID(), found[0].ID())

	found, err = r.subscriptions.FindRolloverCandidates(ctx, t0.Add(31*24*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

// The plan counter must equal the live subscription count after any mix of
// lifecycle operations.
func TestLifecycle_CounterMatchesLiveCount(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	p := createPlan(t, r, "plan_life00001", 0, ptr(3))
	manager := lifecycle.NewManager(r.plans, r.subscriptions, 0, logger.NewNopLogger())

	var subs []*subscription.Subscription
	for i := 0; i < 3; i++ {
		err := r.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
			sub, err := manager.Create(txCtx, p, subscription.Subscriber{}, t0)
			subs = append(subs, sub)
			return err
		})
		require.NoError(t, err)
	}

	err := r.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		_, err := manager.Create(txCtx, p, subscription.Subscriber{}, t0)
		return err
	})
	require.Error(t, err)

	assertCounter := func(expected int64) {
		t.Helper()
		stored, err := r.plans.GetByID(ctx, p.ID())
		require.NoError(t, err)
		live, err := r.subscriptions.CountLiveByPlan(ctx, p.ID())
		require.NoError(t, err)
		assert.Equal(t, expected, live)
		assert.Equal(t, int(live), stored.ActiveSubscriptions())
	}
	assertCounter(3)

	for i := 0; i < 2; i++ {
		require.NoError(t, r.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
			_, err := manager.Cancel(txCtx, subs[0], false, t0.Add(time.Hour))
			return err
		}))
	}
	assertCounter(2)

	require.NoError(t, r.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		_, err := manager.Cancel(txCtx, subs[1], true, t0.Add(time.Hour))
		return err
	}))
	assertCounter(2)

	later := t0.Add(31 * 24 * time.Hour)
	candidates, err := r.subscriptions.FindRolloverCandidates(ctx, later, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	for i := 0; i < 2; i++ {
		require.NoError(t, r.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
			sub, err := r.subscriptions.GetByID(txCtx, subs[1].ID())
			if err != nil {
				return err
			}
			_, err = manager.Rollover(txCtx, sub, later)
			return err
		}))
	}
	assertCounter(1)
}

func TestSecurityAuditRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSecurityAuditRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, audit.NewEntry(audit.EventAuthFailed, "", "10.0.0.1", "bad key", t0)))
	require.NoError(t, repo.Create(ctx, audit.NewEntry(audit.EventPlanDeleted, "wallet-1", "10.0.0.2", "plan_x", t0.Add(time.Second))))

	all, err := repo.ListRecent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, audit.EventPlanDeleted, all[0].EventType)

	failed, err := repo.ListRecent(ctx, audit.EventAuthFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Nil(t, failed[0].Wallet)
}
