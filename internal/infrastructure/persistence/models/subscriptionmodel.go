package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/orris-inc/lnsubs/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
type SubscriptionModel struct {
	ID                 string    `gorm:"primaryKey;size:50"`
	PlanID             string    `gorm:"not null;size:50;index:idx_subscriptions_plan"`
	Wallet             string    `gorm:"not null;size:100;index:idx_subscriptions_wallet_created,priority:1"`
	SubscriberEmail    *string   `gorm:"size:255"`
	SubscriberName     *string   `gorm:"size:100"`
	Status             string    `gorm:"not null;size:20;index:idx_subscriptions_status"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null"`
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool `gorm:"not null;default:false"`
	CanceledAt         *time.Time
	Metadata           datatypes.JSON
	LastPaymentID      *string `gorm:"size:50"`
	LastPaymentDate    *time.Time
	FailedPaymentCount int       `gorm:"not null;default:0"`
	NextPaymentDate    time.Time `gorm:"not null;index:idx_subscriptions_next_payment"`
	Version            int       `gorm:"not null;default:1"`
	CreatedAt          time.Time `gorm:"index:idx_subscriptions_wallet_created,priority:2"`
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
