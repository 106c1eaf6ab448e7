// Package audit records security-relevant events for later review.
package audit

import (
	"context"
	"time"
)

type EventType string

const (
	EventAuthFailed           EventType = "auth_failed"
	EventAccessDenied         EventType = "access_denied"
	EventRateLimited          EventType = "rate_limited"
	EventPlanDeleted          EventType = "plan_deleted"
	EventSubscriptionCanceled EventType = "subscription_canceled"
	EventCallbackRejected     EventType = "callback_rejected"
)

const maxDetailsLength = 1000

type Entry struct {
	ID        uint
	EventType EventType
	Wallet    *string
	IPAddress string
	Details   string
	CreatedAt time.Time
}

func NewEntry(eventType EventType, wallet, ipAddress, details string, now time.Time) *Entry {
	if len(details) > maxDetailsLength {
		details = details[:maxDetailsLength]
	}

	entry := &Entry{
		EventType: eventType,
		IPAddress: ipAddress,
		Details:   details,
		CreatedAt: now.UTC(),
	}
	if wallet != "" {
		entry.Wallet = &wallet
	}
	return entry
}

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	ListRecent(ctx context.Context, eventType EventType, limit int) ([]*Entry, error)
}
