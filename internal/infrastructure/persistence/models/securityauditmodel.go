package models

import (
	"time"

	"github.com/orris-inc/lnsubs/internal/shared/constants"
)

type SecurityAuditModel struct {
	ID        uint      `gorm:"primaryKey"`
	EventType string    `gorm:"not null;size:50;index:idx_security_audit_event"`
	Wallet    *string   `gorm:"size:100"`
	IPAddress string    `gorm:"size:64"`
	Details   string    `gorm:"size:1000"`
	CreatedAt time.Time `gorm:"index:idx_security_audit_created"`
}

func (SecurityAuditModel) TableName() string {
	return constants.TableSecurityAudit
}
