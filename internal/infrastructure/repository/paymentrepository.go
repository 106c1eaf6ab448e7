package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/lnsubs/internal/domain/payment"
	vo "github.com/orris-inc/lnsubs/internal/domain/payment/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
	"github.com/orris-inc/lnsubs/internal/shared/db"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type PaymentRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PaymentMapper
	logger logger.Interface
}

func NewPaymentRepository(db *gorm.DB, logger logger.Interface) payment.Repository {
	return &PaymentRepositoryImpl{
		db:     db,
		mapper: mappers.NewPaymentMapper(),
		logger: logger,
	}
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, attempt *payment.Attempt) error {
	model := r.mapper.ToModel(attempt)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if isPendingKeyConflict(err) {
			r.logger.Warnw("pending payment attempt already exists",
				"payment_id", model.ID,
				"subscription_id", model.SubscriptionID,
				"period_start", model.PeriodStart,
			)
			return payment.ErrPendingExists
		}
		r.logger.Errorw("failed to create payment attempt", "payment_id", model.ID, "error", err)
		return fmt.Errorf("failed to create payment attempt: %w", err)
	}
	return nil
}

func (r *PaymentRepositoryImpl) GetByID(ctx context.Context, id string) (*payment.Attempt, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PaymentRepositoryImpl) GetByPaymentHash(ctx context.Context, paymentHash string) (*payment.Attempt, error) {
	return r.first(ctx, "payment_hash = ?", paymentHash)
}

func (r *PaymentRepositoryImpl) first(ctx context.Context, query string, arg string) (*payment.Attempt, error) {
	var model models.SubscriptionPaymentModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get payment attempt", "query", query, "error", err)
		return nil, fmt.Errorf("failed to get payment attempt: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PaymentRepositoryImpl) ListBySubscription(ctx context.Context, subscriptionID string) ([]*payment.Attempt, error) {
	var paymentModels []*models.SubscriptionPaymentModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("subscription_id = ?", subscriptionID).
		Scopes(db.NewestFirst()).
		Find(&paymentModels).Error; err != nil {
		r.logger.Errorw("failed to list payments", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return r.mapper.ToEntities(paymentModels)
}

func (r *PaymentRepositoryImpl) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*payment.Attempt, error) {
	var paymentModels []*models.SubscriptionPaymentModel

	tx := db.GetTxFromContext(ctx, r.db)
	q := tx.Scopes(db.StatusIn(vo.PaymentStatusPending)).
		Where("created_at <= ?", createdBefore).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&paymentModels).Error; err != nil {
		r.logger.Errorw("failed to list pending payments", "error", err)
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	return r.mapper.ToEntities(paymentModels)
}

func (r *PaymentRepositoryImpl) HasPendingForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.SubscriptionPaymentModel{}).
		Scopes(db.StatusIn(vo.PaymentStatusPending)).
		Where("subscription_id = ? AND period_start = ?", subscriptionID, periodStart).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending payments: %w", err)
	}
	return count > 0, nil
}

// Settle is a compare-and-set on status: only a pending row is written.
func (r *PaymentRepositoryImpl) Settle(ctx context.Context, attempt *payment.Attempt) (bool, error) {
	model := r.mapper.ToModel(attempt)

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.SubscriptionPaymentModel{}).
		Where("id = ? AND status = ?", model.ID, vo.PaymentStatusPending.String()).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"payment_date":   model.PaymentDate,
			"failure_reason": model.FailureReason,
			"pending_key":    model.PendingKey,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to settle payment", "payment_id", model.ID, "error", result.Error)
		return false, fmt.Errorf("failed to settle payment: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func isPendingKeyConflict(err error) bool {
	if !apperrors.IsDuplicateError(err) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "pending_key") || strings.Contains(msg, "uk_payments_pending")
}
