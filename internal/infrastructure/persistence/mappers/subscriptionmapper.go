package mappers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	vo "github.com/orris-inc/lnsubs/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	var metadata map[string]any
	if len(model.Metadata) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(model.Metadata))
		decoder.UseNumber()
		if err := decoder.Decode(&metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.PlanID,
		model.Wallet,
		model.SubscriberEmail,
		model.SubscriberName,
		status,
		model.CurrentPeriodStart.UTC(),
		model.CurrentPeriodEnd.UTC(),
		utcPtr(model.TrialEnd),
		model.CancelAtPeriodEnd,
		utcPtr(model.CanceledAt),
		metadata,
		model.LastPaymentID,
		utcPtr(model.LastPaymentDate),
		model.FailedPaymentCount,
		model.NextPaymentDate.UTC(),
		model.Version,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var metadataJSON datatypes.JSON
	if metadata := entity.Metadata(); len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = data
	}

	return &models.SubscriptionModel{
		ID:                 entity.ID(),
		PlanID:             entity.PlanID(),
		Wallet:             entity.Wallet(),
		SubscriberEmail:    entity.SubscriberEmail(),
		SubscriberName:     entity.SubscriberName(),
		Status:             entity.Status().String(),
		CurrentPeriodStart: entity.CurrentPeriodStart(),
		CurrentPeriodEnd:   entity.CurrentPeriodEnd(),
		TrialEnd:           entity.TrialEnd(),
		CancelAtPeriodEnd:  entity.CancelAtPeriodEnd(),
		CanceledAt:         entity.CanceledAt(),
		Metadata:           metadataJSON,
		LastPaymentID:      entity.LastPaymentID(),
		LastPaymentDate:    entity.LastPaymentDate(),
		FailedPaymentCount: entity.FailedPaymentCount(),
		NextPaymentDate:    entity.NextPaymentDate(),
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	entities := make([]*subscription.Subscription, 0, len(models))
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
