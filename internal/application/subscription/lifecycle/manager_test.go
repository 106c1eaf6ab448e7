package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lnsubs/internal/domain/billing"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	vo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestPlan(t *testing.T, trialDays int) *plan.Plan {
	t.Helper()
	p, err := plan.NewPlan("wallet-1", plan.Spec{
		Name:      "Gold",
		Amount:    1000,
		Interval:  "monthly",
		TrialDays: trialDays,
	}, t0)
	require.NoError(t, err)
	require.NoError(t, p.SetID("plan_gold01"))
	return p
}

func newTestManager(maxFailed int) (*Manager, *mockPlanRepo, *mockSubscriptionRepo) {
	planRepo := &mockPlanRepo{}
	subRepo := &mockSubscriptionRepo{}
	return NewManager(planRepo, subRepo, maxFailed, logger.NewNopLogger()), planRepo, subRepo
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("trial plan starts trialing", func(t *testing.T) {
		m, planRepo, subRepo := newTestManager(0)

		sub, err := m.Create(ctx, newTestPlan(t, 5), subscription.Subscriber{}, t0)
		require.NoError(t, err)

		trialEnd := t0.Add(5 * 24 * time.Hour)
		assert.Equal(t, vo.StatusTrialing, sub.Status())
		assert.Equal(t, trialEnd, sub.NextPaymentDate())
		assert.Equal(t, trialEnd, sub.CurrentPeriodEnd())
		assert.NotEmpty(t, sub.ID())
		assert.Equal(t, 1, planRepo.increments)
		assert.Len(t, subRepo.created, 1)
	})

	t.Run("no trial is due immediately", func(t *testing.T) {
		m, _, _ := newTestManager(0)

		sub, err := m.Create(ctx, newTestPlan(t, 0), subscription.Subscriber{}, t0)
		require.NoError(t, err)
		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.Equal(t, t0, sub.NextPaymentDate())
		assert.Equal(t, t0.Add(30*24*time.Hour), sub.CurrentPeriodEnd())
	})

	t.Run("capacity exceeded is a conflict", func(t *testing.T) {
		m, planRepo, subRepo := newTestManager(0)
		planRepo.IncrementActiveFunc = func(ctx context.Context, planID string) error {
			return plan.ErrCapacityExceeded
		}

		_, err := m.Create(ctx, newTestPlan(t, 0), subscription.Subscriber{}, t0)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflictError(err))
		assert.Empty(t, subRepo.created)
	})

	t.Run("invalid subscriber is rejected before reserving capacity", func(t *testing.T) {
		m, planRepo, _ := newTestManager(0)
		bad := "nope"

		_, err := m.Create(ctx, newTestPlan(t, 0), subscription.Subscriber{Email: &bad}, t0)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidationError(err))
		assert.Equal(t, 0, planRepo.increments)
	})
}

func createActive(t *testing.T, m *Manager) *subscription.Subscription {
	t.Helper()
	sub, err := m.Create(context.Background(), newTestPlan(t, 0), subscription.Subscriber{}, t0)
	require.NoError(t, err)
	return sub
}

func TestManager_RecordPaymentFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("threshold disabled never cancels", func(t *testing.T) {
		m, planRepo, _ := newTestManager(0)
		sub := createActive(t, m)

		for i := 0; i < 3; i++ {
			canceled, err := m.RecordPaymentFailure(ctx, sub, t0)
			require.NoError(t, err)
			assert.False(t, canceled)
		}

		assert.Equal(t, 3, sub.FailedPaymentCount())
		assert.Equal(t, vo.StatusPastDue, sub.Status())
		assert.Equal(t, 0, planRepo.decrements)
	})

	t.Run("threshold reached cancels once", func(t *testing.T) {
		m, planRepo, _ := newTestManager(2)
		sub := createActive(t, m)

		canceled, err := m.RecordPaymentFailure(ctx, sub, t0)
		require.NoError(t, err)
		assert.False(t, canceled)

		canceled, err = m.RecordPaymentFailure(ctx, sub, t0)
		require.NoError(t, err)
		assert.True(t, canceled)
		assert.Equal(t, vo.StatusCanceled, sub.Status())

		canceled, err = m.RecordPaymentFailure(ctx, sub, t0)
		require.NoError(t, err)
		assert.False(t, canceled)
		assert.Equal(t, 1, planRepo.decrements)
	})
}

func TestManager_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("at period end then rollover decrements once", func(t *testing.T) {
		m, planRepo, _ := newTestManager(0)
		sub := createActive(t, m)

		canceled, err := m.Cancel(ctx, sub, true, t0)
		require.NoError(t, err)
		assert.False(t, canceled)
		assert.True(t, sub.CancelAtPeriodEnd())
		assert.Equal(t, 0, planRepo.decrements)

		outcome, err := m.Rollover(ctx, sub, sub.CurrentPeriodEnd())
		require.NoError(t, err)
		assert.Equal(t, subscription.RolloverCanceled, outcome)
		assert.Equal(t, 1, planRepo.decrements)

		canceled, err = m.Cancel(ctx, sub, false, t0)
		require.NoError(t, err)
		assert.False(t, canceled)
		assert.Equal(t, 1, planRepo.decrements)
	})

	t.Run("immediate decrements once", func(t *testing.T) {
		m, planRepo, _ := newTestManager(0)
		sub := createActive(t, m)

		canceled, err := m.Cancel(ctx, sub, false, t0)
		require.NoError(t, err)
		assert.True(t, canceled)

		canceled, err = m.Cancel(ctx, sub, false, t0)
		require.NoError(t, err)
		assert.False(t, canceled)
		assert.Equal(t, 1, planRepo.decrements)
	})

	t.Run("lost optimistic lock does not decrement", func(t *testing.T) {
		m, planRepo, subRepo := newTestManager(0)
		sub := createActive(t, m)
		subRepo.UpdateFunc = func(ctx context.Context, s *subscription.Subscription) error {
			return subscription.ErrConcurrentModification
		}

		_, err := m.Cancel(ctx, sub, false, t0)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflictError(err))
		assert.Equal(t, 0, planRepo.decrements)
	})
}

func TestManager_RecordPaymentSuccess(t *testing.T) {
	ctx := context.Background()
	m, _, subRepo := newTestManager(0)
	sub := createActive(t, m)
	_, err := m.RecordPaymentFailure(ctx, sub, t0)
	require.NoError(t, err)

	period := billing.Period{Start: t0, End: t0.Add(30 * 24 * time.Hour)}
	attempt, err := payment.NewAttempt(sub.ID(), "hash", "lnbc", 1000, period, t0)
	require.NoError(t, err)
	require.NoError(t, attempt.SetID("pay_1"))

	applied, err := m.RecordPaymentSuccess(ctx, sub, attempt, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, 0, sub.FailedPaymentCount())
	assert.Equal(t, period.End, sub.NextPaymentDate())

	t.Run("canceled subscription is left alone", func(t *testing.T) {
		_, err := m.Cancel(ctx, sub, false, t0)
		require.NoError(t, err)
		updates := subRepo.updates

		applied, err := m.RecordPaymentSuccess(ctx, sub, attempt, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, updates, subRepo.updates)
	})
}

func TestManager_RolloverTrialConversion(t *testing.T) {
	ctx := context.Background()
	m, planRepo, _ := newTestManager(0)

	sub, err := m.Create(ctx, newTestPlan(t, 3), subscription.Subscriber{}, t0)
	require.NoError(t, err)

	outcome, err := m.Rollover(ctx, sub, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, subscription.RolloverNone, outcome)

	outcome, err = m.Rollover(ctx, sub, t0.Add(3*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, subscription.RolloverTrialConverted, outcome)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, 0, planRepo.decrements)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "capacity", err: plan.ErrCapacityExceeded, check: apperrors.IsConflictError},
		{name: "in use", err: plan.ErrPlanInUse, check: apperrors.IsConflictError},
		{name: "concurrent", err: subscription.ErrConcurrentModification, check: apperrors.IsConflictError},
		{name: "invalid plan", err: plan.ErrInvalidPlan, check: apperrors.IsValidationError},
		{name: "unknown interval", err: billing.ErrUnknownInterval, check: apperrors.IsValidationError},
		{name: "not found", err: subscription.ErrSubscriptionNotFound, check: apperrors.IsNotFoundError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(TranslateError(tt.err)))
		})
	}

	assert.Nil(t, TranslateError(nil))
}
