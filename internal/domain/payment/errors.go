package payment

import "errors"

var (
	ErrAttemptNotFound = errors.New("payment attempt not found")
	// ErrAttemptSettled is returned when an attempt already left the pending state.
	ErrAttemptSettled = errors.New("payment attempt already settled")
	// ErrPendingExists is returned when the period already has a pending attempt.
	ErrPendingExists = errors.New("period already has a pending payment attempt")
)
