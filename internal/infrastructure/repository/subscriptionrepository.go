package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	paymentvo "github.com/orris-inc/lnsubs/internal/domain/payment/valueobjects"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	vo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/db"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// pendingForBillablePeriod matches a pending invoice for the period the next
// invoice would cover: the current period while it is still unpaid, the
// following one otherwise.
var pendingForBillablePeriod = fmt.Sprintf(`NOT EXISTS (
	SELECT 1 FROM %[1]s p
	WHERE p.subscription_id = %[2]s.id
	  AND p.status = ?
	  AND p.period_start = CASE
		WHEN %[2]s.next_payment_date = %[2]s.current_period_start THEN %[2]s.current_period_start
		ELSE %[2]s.current_period_end
	  END
)`, constants.TableSubscriptionPayments, constants.TableSubscriptions)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.Repository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "subscription_id", model.ID, "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription by ID", "subscription_id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "subscription_id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}
	return entity, nil
}

// Update writes the mutable state with optimistic locking on version.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "subscription_id", sub.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"current_period_start": model.CurrentPeriodStart,
			"current_period_end":   model.CurrentPeriodEnd,
			"trial_end":            model.TrialEnd,
			"cancel_at_period_end": model.CancelAtPeriodEnd,
			"canceled_at":          model.CanceledAt,
			"metadata":             model.Metadata,
			"last_payment_id":      model.LastPaymentID,
			"last_payment_date":    model.LastPaymentDate,
			"failed_payment_count": model.FailedPaymentCount,
			"next_payment_date":    model.NextPaymentDate,
			"version":              model.Version + 1,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "subscription_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.Warnw("subscription version mismatch", "subscription_id", model.ID, "version", model.Version)
		return subscription.ErrConcurrentModification
	}

	sub.SetVersion(model.Version + 1)
	return nil
}

func (r *SubscriptionRepositoryImpl) ListByWallet(ctx context.Context, wallet string) ([]*subscription.Subscription, error) {
	return r.list(ctx, "wallet", wallet, db.OwnedBy(wallet))
}

func (r *SubscriptionRepositoryImpl) ListByPlan(ctx context.Context, planID string) ([]*subscription.Subscription, error) {
	return r.list(ctx, "plan_id", planID, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("plan_id = ?", planID)
	})
}

func (r *SubscriptionRepositoryImpl) list(ctx context.Context, key, value string, filter func(*gorm.DB) *gorm.DB) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Scopes(filter, db.NewestFirst()).Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions", key, value, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return r.mapper.ToEntities(subscriptionModels)
}

func (r *SubscriptionRepositoryImpl) CountLiveByPlan(ctx context.Context, planID string) (int64, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.SubscriptionModel{}).
		Scopes(db.StatusIn(vo.LiveStatuses...)).
		Where("plan_id = ?", planID).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count live subscriptions", "plan_id", planID, "error", err)
		return 0, fmt.Errorf("failed to count live subscriptions: %w", err)
	}
	return count, nil
}

func (r *SubscriptionRepositoryImpl) FindDue(ctx context.Context, query subscription.DueQuery) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	q := tx.Scopes(db.StatusIn(vo.BillableStatuses...)).
		Where("next_payment_date <= ?", query.Now).
		Where("canceled_at IS NULL OR canceled_at > ?", query.Now).
		Where("cancel_at_period_end = ? OR current_period_end > ?", false, query.Now).
		Where(pendingForBillablePeriod, paymentvo.PaymentStatusPending.String()).
		Order("next_payment_date ASC").
		Order("id ASC")
	if len(query.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN ?", query.ExcludeIDs)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	if err := q.Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to find due subscriptions", "error", err)
		return nil, fmt.Errorf("failed to find due subscriptions: %w", err)
	}

	return r.mapper.ToEntities(subscriptionModels)
}

func (r *SubscriptionRepositoryImpl) FindRolloverCandidates(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	q := tx.Scopes(db.StatusIn(vo.LiveStatuses...)).
		Where("current_period_end <= ?", now).
		Where("status = ? OR cancel_at_period_end = ?", vo.StatusTrialing.String(), true).
		Order("current_period_end ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to find rollover candidates", "error", err)
		return nil, fmt.Errorf("failed to find rollover candidates: %w", err)
	}

	return r.mapper.ToEntities(subscriptionModels)
}
