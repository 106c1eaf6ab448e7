package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrInvalidSubscriber       = errors.New("invalid subscriber")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	// ErrConcurrentModification means the row changed after it was loaded.
	ErrConcurrentModification = errors.New("subscription was modified concurrently")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
