// Package billing holds the pure period arithmetic behind recurring charges.
// Every function is deterministic in its inputs; nothing here reads the clock.
package billing

import (
	"errors"
	"fmt"
	"time"

	planvo "github.com/orris-inc/lnsubs/internal/domain/plan/valueobjects"
	subvo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
)

var ErrUnknownInterval = errors.New("unknown billing interval")

const day = 24 * time.Hour

// Period lengths are fixed durations, not calendar months or years.
var periodLengths = map[planvo.BillingInterval]time.Duration{
	planvo.IntervalDaily:   day,
	planvo.IntervalWeekly:  7 * day,
	planvo.IntervalMonthly: 30 * day,
	planvo.IntervalYearly:  365 * day,
}

// Period is a half-open billing window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Pricing is the part of a plan the clock needs.
type Pricing interface {
	Interval() planvo.BillingInterval
	TrialDays() int
}

// Cycle is the part of a subscription the clock needs.
type Cycle interface {
	CurrentPeriodStart() time.Time
	CurrentPeriodEnd() time.Time
	NextPaymentDate() time.Time
}

// Schedule is the initial state assigned to a new subscription.
type Schedule struct {
	Status          subvo.SubscriptionStatus
	Period          Period
	NextPaymentDate time.Time
	TrialEnd        *time.Time
}

func PeriodLength(interval planvo.BillingInterval) (time.Duration, error) {
	length, ok := periodLengths[interval]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInterval, interval)
	}
	return length, nil
}

// InitialSchedule starts a trial when the plan offers one; otherwise the
// first period is billed immediately.
func InitialSchedule(plan Pricing, now time.Time) (Schedule, error) {
	length, err := PeriodLength(plan.Interval())
	if err != nil {
		return Schedule{}, err
	}

	now = now.UTC()
	if plan.TrialDays() > 0 {
		trialEnd := now.Add(time.Duration(plan.TrialDays()) * day)
		return Schedule{
			Status:          subvo.StatusTrialing,
			Period:          Period{Start: now, End: trialEnd},
			NextPaymentDate: trialEnd,
			TrialEnd:        &trialEnd,
		}, nil
	}

	return Schedule{
		Status:          subvo.StatusActive,
		Period:          Period{Start: now, End: now.Add(length)},
		NextPaymentDate: now,
	}, nil
}

// Advance returns the period that follows one ending at periodEnd.
func Advance(periodEnd time.Time, interval planvo.BillingInterval) (Period, error) {
	length, err := PeriodLength(interval)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: periodEnd, End: periodEnd.Add(length)}, nil
}

// BillablePeriod is the window the next invoice pays for. A subscription
// whose payment date equals its period start has not paid for the current
// period yet; any other subscription is paying for the one after it.
func BillablePeriod(c Cycle, interval planvo.BillingInterval) (Period, error) {
	if _, err := PeriodLength(interval); err != nil {
		return Period{}, err
	}
	if c.NextPaymentDate().Equal(c.CurrentPeriodStart()) {
		return Period{Start: c.CurrentPeriodStart(), End: c.CurrentPeriodEnd()}, nil
	}
	return Advance(c.CurrentPeriodEnd(), interval)
}
