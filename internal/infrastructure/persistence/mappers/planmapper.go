package mappers

import (
	"fmt"

	"github.com/orris-inc/lnsubs/internal/domain/plan"
	vo "github.com/orris-inc/lnsubs/internal/domain/plan/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
)

type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*plan.Plan, error)
	ToModel(entity *plan.Plan) *models.PlanModel
	ToEntities(models []*models.PlanModel) ([]*plan.Plan, error)
}

type PlanMapperImpl struct{}

func NewPlanMapper() PlanMapper {
	return &PlanMapperImpl{}
}

func (m *PlanMapperImpl) ToEntity(model *models.PlanModel) (*plan.Plan, error) {
	if model == nil {
		return nil, nil
	}

	interval, err := vo.ParseBillingInterval(model.BillingInterval)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", model.ID, err)
	}

	entity, err := plan.ReconstructPlan(
		model.ID,
		model.Wallet,
		model.Name,
		model.Description,
		model.Amount,
		interval,
		model.TrialDays,
		model.MaxSubscriptions,
		model.ActiveSubscriptions,
		model.WebhookURL,
		model.SuccessMessage,
		model.SuccessURL,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}

	return entity, nil
}

func (m *PlanMapperImpl) ToModel(entity *plan.Plan) *models.PlanModel {
	if entity == nil {
		return nil
	}

	return &models.PlanModel{
		ID:                  entity.ID(),
		Wallet:              entity.Wallet(),
		Name:                entity.Name(),
		Description:         entity.Description(),
		Amount:              entity.Amount(),
		BillingInterval:     entity.Interval().String(),
		TrialDays:           entity.TrialDays(),
		MaxSubscriptions:    entity.MaxSubscriptions(),
		ActiveSubscriptions: entity.ActiveSubscriptions(),
		WebhookURL:          entity.WebhookURL(),
		SuccessMessage:      entity.SuccessMessage(),
		SuccessURL:          entity.SuccessURL(),
		CreatedAt:           entity.CreatedAt(),
		UpdatedAt:           entity.UpdatedAt(),
	}
}

func (m *PlanMapperImpl) ToEntities(models []*models.PlanModel) ([]*plan.Plan, error) {
	entities := make([]*plan.Plan, 0, len(models))
	for _, model := range models {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
