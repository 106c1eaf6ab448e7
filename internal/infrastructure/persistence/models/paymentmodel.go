package models

import (
	"time"

	"github.com/orris-inc/lnsubs/internal/shared/constants"
)

// SubscriptionPaymentModel is one invoice issued for a subscription period.
// idx_payments_period serves the pending-invoice lookup of the due scan.
// PendingKey is set only while the attempt is pending, so uk_payments_pending
// allows one pending attempt per subscription period.
type SubscriptionPaymentModel struct {
	ID             string    `gorm:"primaryKey;size:50"`
	SubscriptionID string    `gorm:"not null;size:50;index:idx_payments_subscription;index:idx_payments_period,priority:1"`
	PaymentHash    string    `gorm:"not null;size:128;uniqueIndex"`
	PaymentRequest string    `gorm:"type:text;not null"`
	Amount         int64     `gorm:"not null"`
	Status         string    `gorm:"not null;size:20;index:idx_payments_period,priority:3"`
	PeriodStart    time.Time `gorm:"not null;index:idx_payments_period,priority:2"`
	PeriodEnd      time.Time `gorm:"not null"`
	PaymentDate    *time.Time
	FailureReason  *string   `gorm:"size:500"`
	PendingKey     *string   `gorm:"size:100;uniqueIndex:uk_payments_pending"`
	CreatedAt      time.Time `gorm:"index:idx_payments_created"`
}

func (SubscriptionPaymentModel) TableName() string {
	return constants.TableSubscriptionPayments
}
