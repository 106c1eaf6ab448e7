package dto

import (
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/subscription"
)

type SubscriptionDTO struct {
	ID                 string         `json:"id" yaml:"id"`
	PlanID             string         `json:"plan_id" yaml:"plan_id"`
	Wallet             string         `json:"wallet" yaml:"wallet"`
	SubscriberEmail    *string        `json:"subscriber_email" yaml:"subscriber_email"`
	SubscriberName     *string        `json:"subscriber_name" yaml:"subscriber_name"`
	Status             string         `json:"status" yaml:"status"`
	CurrentPeriodStart time.Time      `json:"current_period_start" yaml:"current_period_start"`
	CurrentPeriodEnd   time.Time      `json:"current_period_end" yaml:"current_period_end"`
	TrialEnd           *time.Time     `json:"trial_end" yaml:"trial_end"`
	CancelAtPeriodEnd  bool           `json:"cancel_at_period_end" yaml:"cancel_at_period_end"`
	CanceledAt         *time.Time     `json:"canceled_at" yaml:"canceled_at"`
	Metadata           map[string]any `json:"metadata" yaml:"metadata"`
	LastPaymentID      *string        `json:"last_payment_id" yaml:"last_payment_id"`
	LastPaymentDate    *time.Time     `json:"last_payment_date" yaml:"last_payment_date"`
	FailedPaymentCount int            `json:"failed_payment_count" yaml:"failed_payment_count"`
	NextPaymentDate    time.Time      `json:"next_payment_date" yaml:"next_payment_date"`
	CreatedAt          time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" yaml:"updated_at"`
}

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	return &SubscriptionDTO{
		ID:                 sub.ID(),
		PlanID:             sub.PlanID(),
		Wallet:             sub.Wallet(),
		SubscriberEmail:    sub.SubscriberEmail(),
		SubscriberName:     sub.SubscriberName(),
		Status:             sub.Status().String(),
		CurrentPeriodStart: sub.CurrentPeriodStart(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd(),
		TrialEnd:           sub.TrialEnd(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd(),
		CanceledAt:         sub.CanceledAt(),
		Metadata:           sub.Metadata(),
		LastPaymentID:      sub.LastPaymentID(),
		LastPaymentDate:    sub.LastPaymentDate(),
		FailedPaymentCount: sub.FailedPaymentCount(),
		NextPaymentDate:    sub.NextPaymentDate(),
		CreatedAt:          sub.CreatedAt(),
		UpdatedAt:          sub.UpdatedAt(),
	}
}

func ToSubscriptionDTOList(subs []*subscription.Subscription) []*SubscriptionDTO {
	dtos := make([]*SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		if sub != nil {
			dtos = append(dtos, ToSubscriptionDTO(sub))
		}
	}
	return dtos
}
