package models

import (
	"time"

	"github.com/orris-inc/lnsubs/internal/shared/constants"
)

// PlanModel represents the database persistence model for plans.
// "interval" is a reserved word in MySQL, hence billing_interval.
type PlanModel struct {
	ID                  string    `gorm:"primaryKey;size:50"`
	Wallet              string    `gorm:"not null;size:100;index:idx_plans_wallet_created,priority:1"`
	Name                string    `gorm:"not null;size:100"`
	Description         string    `gorm:"size:500"`
	Amount              int64     `gorm:"not null"`
	BillingInterval     string    `gorm:"not null;size:20"`
	TrialDays           int       `gorm:"not null;default:0"`
	MaxSubscriptions    *int      `gorm:"comment:NULL means unlimited"`
	ActiveSubscriptions int       `gorm:"not null;default:0"`
	WebhookURL          *string   `gorm:"size:500"`
	SuccessMessage      string    `gorm:"size:200"`
	SuccessURL          *string   `gorm:"size:500"`
	CreatedAt           time.Time `gorm:"index:idx_plans_wallet_created,priority:2"`
	UpdatedAt           time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}
