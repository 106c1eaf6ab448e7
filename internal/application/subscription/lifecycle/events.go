package lifecycle

import (
	"context"
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/payment"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type EventType string

const (
	EventSubscriptionCreated  EventType = "subscription.created"
	EventSubscriptionCanceled EventType = "subscription.canceled"
	EventPaymentSucceeded     EventType = "payment.succeeded"
	EventPaymentFailed        EventType = "payment.failed"
)

// Event describes a committed lifecycle change. Attempt is set for payment events.
type Event struct {
	Type         EventType
	Plan         *plan.Plan
	Subscription *subscription.Subscription
	Attempt      *payment.Attempt
	OccurredAt   time.Time
}

// Publisher delivers events to interested parties on a best-effort basis.
// Publish must not block the caller on network I/O.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// MultiPublisher fans an event out to several publishers.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		p.Publish(ctx, event)
	}
}

type logPublisher struct {
	logger logger.Interface
}

// LogPublisher records every event in the service log.
func LogPublisher(log logger.Interface) Publisher {
	return logPublisher{logger: log}
}

func (p logPublisher) Publish(_ context.Context, event Event) {
	fields := []any{"event", string(event.Type)}
	if event.Plan != nil {
		fields = append(fields, "plan_id", event.Plan.ID(), "wallet", event.Plan.Wallet())
	}
	if event.Subscription != nil {
		fields = append(fields, "subscription_id", event.Subscription.ID())
	}
	if event.Attempt != nil {
		fields = append(fields, "payment_id", event.Attempt.ID(), "amount", event.Attempt.Amount())
	}
	p.logger.Infow("lifecycle event", fields...)
}
