// Package lifecycle owns every state transition of a subscription together
// with the plan capacity counter that depends on it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/billing"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// Manager methods expect to run inside the caller's transaction so the
// subscription row and the plan counter change together.
type Manager struct {
	planRepo          plan.Repository
	subscriptionRepo  subscription.Repository
	maxFailedPayments int
	logger            logger.Interface
}

// NewManager creates a Manager. maxFailedPayments of zero disables
// automatic cancellation after repeated failures.
func NewManager(
	planRepo plan.Repository,
	subscriptionRepo subscription.Repository,
	maxFailedPayments int,
	logger logger.Interface,
) *Manager {
	return &Manager{
		planRepo:          planRepo,
		subscriptionRepo:  subscriptionRepo,
		maxFailedPayments: maxFailedPayments,
		logger:            logger,
	}
}

// Create schedules a new subscription on p and reserves one unit of capacity.
func (m *Manager) Create(ctx context.Context, p *plan.Plan, subscriber subscription.Subscriber, now time.Time) (*subscription.Subscription, error) {
	schedule, err := billing.InitialSchedule(p, now)
	if err != nil {
		m.logger.Errorw("plan has an unusable billing interval", "plan_id", p.ID(), "interval", p.Interval(), "error", err)
		return nil, TranslateError(err)
	}

	sub, err := subscription.NewSubscription(p.ID(), p.Wallet(), subscriber, schedule, now)
	if err != nil {
		return nil, TranslateError(err)
	}

	subID, err := id.NewSubscriptionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription ID: %w", err)
	}
	if err := sub.SetID(subID); err != nil {
		return nil, err
	}

	if err := m.planRepo.IncrementActive(ctx, p.ID()); err != nil {
		if errors.Is(err, plan.ErrCapacityExceeded) {
			m.logger.Warnw("plan is at capacity", "plan_id", p.ID())
		}
		return nil, TranslateError(err)
	}

	if err := m.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	m.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"plan_id", p.ID(),
		"status", sub.Status(),
		"next_payment_date", sub.NextPaymentDate(),
	)
	return sub, nil
}

// RecordPaymentSuccess moves sub onto the period paid by attempt. It returns
// false when the subscription was already canceled and nothing changed.
func (m *Manager) RecordPaymentSuccess(ctx context.Context, sub *subscription.Subscription, attempt *payment.Attempt, now time.Time) (bool, error) {
	applied, err := sub.ApplyPayment(attempt.Period(), attempt.ID(), now)
	if err != nil {
		return false, TranslateError(err)
	}
	if !applied {
		m.logger.Infow("payment settled for a canceled subscription, state left unchanged",
			"subscription_id", sub.ID(),
			"payment_id", attempt.ID(),
		)
		return false, nil
	}

	if err := m.subscriptionRepo.Update(ctx, sub); err != nil {
		return false, TranslateError(err)
	}

	m.logger.Infow("subscription payment recorded",
		"subscription_id", sub.ID(),
		"payment_id", attempt.ID(),
		"period_end", sub.CurrentPeriodEnd(),
	)
	return true, nil
}

// RecordPaymentFailure counts a failed collection. It returns true when the
// failure threshold canceled the subscription.
func (m *Manager) RecordPaymentFailure(ctx context.Context, sub *subscription.Subscription, now time.Time) (bool, error) {
	if sub.IsCanceled() {
		return false, nil
	}

	count, err := sub.RecordFailure(now)
	if err != nil {
		return false, TranslateError(err)
	}

	canceled := false
	if m.maxFailedPayments > 0 && count >= m.maxFailedPayments {
		canceled = sub.CancelNow(now)
	}

	if err := m.subscriptionRepo.Update(ctx, sub); err != nil {
		return false, TranslateError(err)
	}

	if canceled {
		if err := m.releaseCapacity(ctx, sub); err != nil {
			return false, err
		}
		m.logger.Warnw("subscription canceled after repeated payment failures",
			"subscription_id", sub.ID(),
			"failed_payment_count", count,
		)
		return true, nil
	}

	m.logger.Infow("subscription payment failed",
		"subscription_id", sub.ID(),
		"failed_payment_count", count,
	)
	return false, nil
}

// Cancel ends sub now or at the end of its current period. It returns true
// only when the subscription became canceled by this call.
func (m *Manager) Cancel(ctx context.Context, sub *subscription.Subscription, atPeriodEnd bool, now time.Time) (bool, error) {
	if sub.IsCanceled() {
		return false, nil
	}

	if atPeriodEnd {
		if !sub.ScheduleCancel(now) {
			return false, nil
		}
		if err := m.subscriptionRepo.Update(ctx, sub); err != nil {
			return false, TranslateError(err)
		}
		m.logger.Infow("subscription set to cancel at period end",
			"subscription_id", sub.ID(),
			"period_end", sub.CurrentPeriodEnd(),
		)
		return false, nil
	}

	if !sub.CancelNow(now) {
		return false, nil
	}
	if err := m.subscriptionRepo.Update(ctx, sub); err != nil {
		return false, TranslateError(err)
	}
	if err := m.releaseCapacity(ctx, sub); err != nil {
		return false, err
	}

	m.logger.Infow("subscription canceled", "subscription_id", sub.ID())
	return true, nil
}

// Rollover applies period-end transitions to sub.
func (m *Manager) Rollover(ctx context.Context, sub *subscription.Subscription, now time.Time) (subscription.RolloverOutcome, error) {
	outcome := sub.Rollover(now)
	if outcome == subscription.RolloverNone {
		return outcome, nil
	}

	if err := m.subscriptionRepo.Update(ctx, sub); err != nil {
		return subscription.RolloverNone, TranslateError(err)
	}

	switch outcome {
	case subscription.RolloverCanceled:
		if err := m.releaseCapacity(ctx, sub); err != nil {
			return subscription.RolloverNone, err
		}
		m.logger.Infow("subscription canceled at period end", "subscription_id", sub.ID())
	case subscription.RolloverTrialConverted:
		m.logger.Infow("trial ended, subscription now billable",
			"subscription_id", sub.ID(),
			"next_payment_date", sub.NextPaymentDate(),
		)
	}

	return outcome, nil
}

// releaseCapacity must only follow a persisted transition into canceled.
func (m *Manager) releaseCapacity(ctx context.Context, sub *subscription.Subscription) error {
	if err := m.planRepo.DecrementActive(ctx, sub.PlanID()); err != nil {
		m.logger.Errorw("failed to release plan capacity",
			"plan_id", sub.PlanID(),
			"subscription_id", sub.ID(),
			"error", err,
		)
		return fmt.Errorf("failed to release plan capacity: %w", err)
	}
	return nil
}

// TranslateError maps domain sentinels onto application errors. Unknown
// errors pass through and are reported as internal failures.
func TranslateError(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		return apperrors.NewNotFoundError("plan not found").WithCause(err)
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return apperrors.NewNotFoundError("subscription not found").WithCause(err)
	case errors.Is(err, payment.ErrAttemptNotFound):
		return apperrors.NewNotFoundError("payment not found").WithCause(err)
	case errors.Is(err, plan.ErrCapacityExceeded):
		return apperrors.NewConflictError("plan has reached its subscription limit").WithCause(err)
	case errors.Is(err, plan.ErrPlanInUse):
		return apperrors.NewConflictError("plan still has live subscriptions").WithCause(err)
	case errors.Is(err, subscription.ErrConcurrentModification):
		return apperrors.NewConflictError("subscription was modified concurrently, retry the request").WithCause(err)
	case errors.Is(err, subscription.ErrInvalidStatusTransition):
		return apperrors.NewConflictError("operation not allowed in the current subscription state", err.Error()).WithCause(err)
	case errors.Is(err, payment.ErrAttemptSettled):
		return apperrors.NewConflictError("payment already settled").WithCause(err)
	case errors.Is(err, plan.ErrInvalidPlan),
		errors.Is(err, subscription.ErrInvalidSubscriber),
		errors.Is(err, billing.ErrUnknownInterval):
		return apperrors.NewValidationError(err.Error()).WithCause(err)
	}

	return err
}
