package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
	"github.com/orris-inc/lnsubs/internal/shared/db"
)

type SecurityAuditRepositoryImpl struct {
	db *gorm.DB
}

func NewSecurityAuditRepository(db *gorm.DB) audit.Repository {
	return &SecurityAuditRepositoryImpl{db: db}
}

func (r *SecurityAuditRepositoryImpl) Create(ctx context.Context, entry *audit.Entry) error {
	model := &models.SecurityAuditModel{
		EventType: string(entry.EventType),
		Wallet:    entry.Wallet,
		IPAddress: entry.IPAddress,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	entry.ID = model.ID
	return nil
}

// ListRecent returns the newest entries, optionally filtered by event type.
func (r *SecurityAuditRepositoryImpl) ListRecent(ctx context.Context, eventType audit.EventType, limit int) ([]*audit.Entry, error) {
	var auditModels []*models.SecurityAuditModel

	q := db.GetTxFromContext(ctx, r.db).Order("created_at DESC").Order("id DESC")
	if eventType != "" {
		q = q.Where("event_type = ?", string(eventType))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&auditModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]*audit.Entry, 0, len(auditModels))
	for _, m := range auditModels {
		entries = append(entries, &audit.Entry{
			ID:        m.ID,
			EventType: audit.EventType(m.EventType),
			Wallet:    m.Wallet,
			IPAddress: m.IPAddress,
			Details:   m.Details,
			CreatedAt: m.CreatedAt.UTC(),
		})
	}
	return entries, nil
}
