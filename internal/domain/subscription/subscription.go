package subscription

import (
	"fmt"
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/billing"
	vo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
)

// RolloverOutcome describes what a period-end rollover did.
type RolloverOutcome int

const (
	RolloverNone RolloverOutcome = iota
	RolloverCanceled
	RolloverTrialConverted
)

// Subscription is the aggregate root tracking one subscriber's billing state on a plan.
type Subscription struct {
	id                 string
	planID             string
	wallet             string
	subscriberEmail    *string
	subscriberName     *string
	status             vo.SubscriptionStatus
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	trialEnd           *time.Time
	cancelAtPeriodEnd  bool
	canceledAt         *time.Time
	metadata           map[string]any
	lastPaymentID      *string
	lastPaymentDate    *time.Time
	failedPaymentCount int
	nextPaymentDate    time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewSubscription creates a subscription on planID following schedule.
func NewSubscription(planID, wallet string, subscriber Subscriber, schedule billing.Schedule, now time.Time) (*Subscription, error) {
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if wallet == "" {
		return nil, fmt.Errorf("wallet is required")
	}
	if !schedule.Period.End.After(schedule.Period.Start) {
		return nil, fmt.Errorf("period end must be after period start")
	}
	if err := subscriber.Validate(); err != nil {
		return nil, err
	}

	metadata := subscriber.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	now = now.UTC()
	return &Subscription{
		planID:             planID,
		wallet:             wallet,
		subscriberEmail:    subscriber.Email,
		subscriberName:     subscriber.Name,
		status:             schedule.Status,
		currentPeriodStart: schedule.Period.Start,
		currentPeriodEnd:   schedule.Period.End,
		trialEnd:           schedule.TrialEnd,
		metadata:           metadata,
		nextPaymentDate:    schedule.NextPaymentDate,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	id, planID, wallet string,
	subscriberEmail, subscriberName *string,
	status vo.SubscriptionStatus,
	currentPeriodStart, currentPeriodEnd time.Time,
	trialEnd *time.Time,
	cancelAtPeriodEnd bool,
	canceledAt *time.Time,
	metadata map[string]any,
	lastPaymentID *string,
	lastPaymentDate *time.Time,
	failedPaymentCount int,
	nextPaymentDate time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == "" {
		return nil, fmt.Errorf("subscription ID cannot be empty")
	}
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Subscription{
		id:                 id,
		planID:             planID,
		wallet:             wallet,
		subscriberEmail:    subscriberEmail,
		subscriberName:     subscriberName,
		status:             status,
		currentPeriodStart: currentPeriodStart,
		currentPeriodEnd:   currentPeriodEnd,
		trialEnd:           trialEnd,
		cancelAtPeriodEnd:  cancelAtPeriodEnd,
		canceledAt:         canceledAt,
		metadata:           metadata,
		lastPaymentID:      lastPaymentID,
		lastPaymentDate:    lastPaymentDate,
		failedPaymentCount: failedPaymentCount,
		nextPaymentDate:    nextPaymentDate,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (s *Subscription) ID() string                    { return s.id }
func (s *Subscription) PlanID() string                { return s.planID }
func (s *Subscription) Wallet() string                { return s.wallet }
func (s *Subscription) SubscriberEmail() *string      { return s.subscriberEmail }
func (s *Subscription) SubscriberName() *string       { return s.subscriberName }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) CurrentPeriodStart() time.Time { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() time.Time   { return s.currentPeriodEnd }
func (s *Subscription) TrialEnd() *time.Time          { return s.trialEnd }
func (s *Subscription) CancelAtPeriodEnd() bool       { return s.cancelAtPeriodEnd }
func (s *Subscription) CanceledAt() *time.Time        { return s.canceledAt }
func (s *Subscription) Metadata() map[string]any      { return s.metadata }
func (s *Subscription) LastPaymentID() *string        { return s.lastPaymentID }
func (s *Subscription) LastPaymentDate() *time.Time   { return s.lastPaymentDate }
func (s *Subscription) FailedPaymentCount() int       { return s.failedPaymentCount }
func (s *Subscription) NextPaymentDate() time.Time    { return s.nextPaymentDate }
func (s *Subscription) Version() int                  { return s.version }
func (s *Subscription) CreatedAt() time.Time          { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time          { return s.updatedAt }

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id string) error {
	if s.id != "" {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == "" {
		return fmt.Errorf("subscription ID cannot be empty")
	}
	s.id = id
	return nil
}

// SetVersion records the version stored by the persistence layer after a successful update.
func (s *Subscription) SetVersion(version int) {
	s.version = version
}

func (s *Subscription) OwnedBy(wallet string) bool {
	return s.wallet == wallet
}

func (s *Subscription) IsCanceled() bool {
	return s.status.IsTerminal()
}

// IsDue reports whether the collector should invoice the subscription at now.
func (s *Subscription) IsDue(now time.Time) bool {
	if s.status != vo.StatusActive && s.status != vo.StatusPastDue {
		return false
	}
	if s.canceledAt != nil && !s.canceledAt.After(now) {
		return false
	}
	// the period after a scheduled cancellation is never billed
	if s.cancelAtPeriodEnd && !s.currentPeriodEnd.After(now) {
		return false
	}
	return !s.nextPaymentDate.After(now)
}

// ApplyPayment moves the subscription onto a paid period. It returns false
// and leaves the subscription untouched when it is already canceled.
func (s *Subscription) ApplyPayment(period billing.Period, paymentID string, paidAt time.Time) (bool, error) {
	if s.IsCanceled() {
		return false, nil
	}
	if !period.End.After(period.Start) {
		return false, fmt.Errorf("period end must be after period start")
	}
	if !s.status.CanTransitionTo(vo.StatusActive) {
		return false, ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	paidAt = paidAt.UTC()
	s.status = vo.StatusActive
	s.failedPaymentCount = 0
	s.lastPaymentID = &paymentID
	s.lastPaymentDate = &paidAt
	s.currentPeriodStart = period.Start
	s.currentPeriodEnd = period.End
	s.nextPaymentDate = period.End
	s.updatedAt = paidAt

	return true, nil
}

// RecordFailure counts a failed collection and returns the new count.
// Canceled subscriptions are left alone.
func (s *Subscription) RecordFailure(now time.Time) (int, error) {
	if s.IsCanceled() {
		return s.failedPaymentCount, nil
	}
	if !s.status.CanTransitionTo(vo.StatusPastDue) {
		return s.failedPaymentCount, ErrInvalidTransition(s.status.String(), vo.StatusPastDue.String())
	}

	s.failedPaymentCount++
	s.status = vo.StatusPastDue
	s.updatedAt = now.UTC()

	return s.failedPaymentCount, nil
}

// ScheduleCancel records the intent to cancel when the current period ends.
// It returns false if nothing changed.
func (s *Subscription) ScheduleCancel(now time.Time) bool {
	if s.IsCanceled() || s.cancelAtPeriodEnd {
		return false
	}
	s.cancelAtPeriodEnd = true
	s.updatedAt = now.UTC()
	return true
}

// CancelNow moves the subscription to canceled. It returns true only on the
// transition itself, so callers release plan capacity exactly once.
func (s *Subscription) CancelNow(now time.Time) bool {
	if s.IsCanceled() {
		return false
	}

	now = now.UTC()
	s.status = vo.StatusCanceled
	s.canceledAt = &now
	s.cancelAtPeriodEnd = false
	s.updatedAt = now
	return true
}

// Rollover applies period-end transitions once the current period is over.
// Advancing the period itself belongs to ApplyPayment.
func (s *Subscription) Rollover(now time.Time) RolloverOutcome {
	if s.IsCanceled() || s.currentPeriodEnd.After(now) {
		return RolloverNone
	}

	if s.cancelAtPeriodEnd {
		if s.CancelNow(now) {
			return RolloverCanceled
		}
		return RolloverNone
	}

	if s.status == vo.StatusTrialing {
		s.status = vo.StatusActive
		s.updatedAt = now.UTC()
		return RolloverTrialConverted
	}

	return RolloverNone
}
