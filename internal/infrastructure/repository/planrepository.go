package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/lnsubs/internal/domain/plan"
	subvo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/db"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) plan.Repository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, p *plan.Plan) error {
	model := r.mapper.ToModel(p)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "plan_id", model.ID, "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}

	r.logger.Infow("plan created successfully", "plan_id", model.ID, "wallet", model.Wallet)
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	var model models.PlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by ID", "plan_id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) ListByWallet(ctx context.Context, wallet string) ([]*plan.Plan, error) {
	var planModels []*models.PlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Scopes(db.OwnedBy(wallet), db.NewestFirst()).Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list plans", "wallet", wallet, "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return r.mapper.ToEntities(planModels)
}

// Update writes the editable fields. The capacity counter is owned by
// IncrementActive and DecrementActive and is never written here.
func (r *PlanRepositoryImpl) Update(ctx context.Context, p *plan.Plan) error {
	model := r.mapper.ToModel(p)

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.PlanModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":              model.Name,
			"description":       model.Description,
			"amount":            model.Amount,
			"billing_interval":  model.BillingInterval,
			"trial_days":        model.TrialDays,
			"max_subscriptions": model.MaxSubscriptions,
			"webhook_url":       model.WebhookURL,
			"success_message":   model.SuccessMessage,
			"success_url":       model.SuccessURL,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "plan_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return plan.ErrPlanNotFound
	}

	r.logger.Infow("plan updated successfully", "plan_id", model.ID)
	return nil
}

func (r *PlanRepositoryImpl) Delete(ctx context.Context, id string) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Where("id = ?", id).Delete(&models.PlanModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete plan", "plan_id", id, "error", result.Error)
		return fmt.Errorf("failed to delete plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return plan.ErrPlanNotFound
	}

	r.logger.Infow("plan deleted successfully", "plan_id", id)
	return nil
}

// IncrementActive reserves a slot with a single conditional UPDATE so two
// concurrent subscribers can never both take the last one.
func (r *PlanRepositoryImpl) IncrementActive(ctx context.Context, planID string) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.PlanModel{}).
		Where("id = ? AND (max_subscriptions IS NULL OR active_subscriptions < max_subscriptions)", planID).
		UpdateColumn("active_subscriptions", gorm.Expr("active_subscriptions + ?", 1))
	if result.Error != nil {
		r.logger.Errorw("failed to increment plan counter", "plan_id", planID, "error", result.Error)
		return fmt.Errorf("failed to increment plan counter: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.PlanModel{}).Where("id = ?", planID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check plan existence: %w", err)
	}
	if count == 0 {
		return plan.ErrPlanNotFound
	}
	return plan.ErrCapacityExceeded
}

func (r *PlanRepositoryImpl) DecrementActive(ctx context.Context, planID string) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.PlanModel{}).
		Where("id = ? AND active_subscriptions > 0", planID).
		UpdateColumn("active_subscriptions", gorm.Expr("active_subscriptions - ?", 1))
	if result.Error != nil {
		r.logger.Errorw("failed to decrement plan counter", "plan_id", planID, "error", result.Error)
		return fmt.Errorf("failed to decrement plan counter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.Warnw("plan counter already at zero or plan missing", "plan_id", planID)
	}
	return nil
}

// RecountActive overwrites the counter with the live subscription count in a
// single statement, so an increment committed between a read and the write
// cannot be lost.
func (r *PlanRepositoryImpl) RecountActive(ctx context.Context, planID string) (bool, error) {
	countLive := fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE plan_id = ? AND status IN ?)", constants.TableSubscriptions)
	statuses := make([]string, len(subvo.LiveStatuses))
	for i, s := range subvo.LiveStatuses {
		statuses[i] = s.String()
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.PlanModel{}).
		Where("id = ?", planID).
		Where("active_subscriptions <> "+countLive, planID, statuses).
		UpdateColumn("active_subscriptions", gorm.Expr(countLive, planID, statuses))
	if result.Error != nil {
		r.logger.Errorw("failed to recount plan counter", "plan_id", planID, "error", result.Error)
		return false, fmt.Errorf("failed to recount plan counter: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *PlanRepositoryImpl) ListAllIDs(ctx context.Context) ([]string, error) {
	var ids []string

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.PlanModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list plan IDs: %w", err)
	}
	return ids, nil
}
