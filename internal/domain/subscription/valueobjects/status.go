package valueobjects

type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
)

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusTrialing: true,
	StatusActive:   true,
	StatusPastDue:  true,
	StatusCanceled: true,
}

// LiveStatuses are the states that count against a plan's capacity.
var LiveStatuses = []SubscriptionStatus{StatusTrialing, StatusActive, StatusPastDue}

// BillableStatuses are the states the due scan invoices.
var BillableStatuses = []SubscriptionStatus{StatusActive, StatusPastDue}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return ValidStatuses[s]
}

func (s SubscriptionStatus) IsLive() bool {
	return s == StatusTrialing || s == StatusActive || s == StatusPastDue
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusTrialing: {StatusActive, StatusCanceled},
		StatusActive:   {StatusActive, StatusPastDue, StatusCanceled},
		StatusPastDue:  {StatusActive, StatusPastDue, StatusCanceled},
		StatusCanceled: {},
	}

	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
