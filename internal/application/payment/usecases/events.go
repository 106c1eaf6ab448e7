package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/lnsubs/internal/application/subscription/lifecycle"
	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// publishSubscriptionEvent runs after commit. A missing plan only costs the
// notification.
func publishSubscriptionEvent(
	ctx context.Context,
	planRepo plan.Repository,
	publisher lifecycle.Publisher,
	log logger.Interface,
	eventType lifecycle.EventType,
	sub *subscription.Subscription,
	attempt *payment.Attempt,
	now time.Time,
) {
	p, err := planRepo.GetByID(ctx, sub.PlanID())
	if err != nil || p == nil {
		log.Warnw("plan unavailable for lifecycle event",
			"event", eventType,
			"plan_id", sub.PlanID(),
			"error", err,
		)
		return
	}

	publisher.Publish(ctx, lifecycle.Event{
		Type:         eventType,
		Plan:         p,
		Subscription: sub,
		Attempt:      attempt,
		OccurredAt:   now,
	})
}
