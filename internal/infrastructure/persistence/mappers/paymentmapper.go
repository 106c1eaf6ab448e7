package mappers

import (
	"fmt"

	"github.com/orris-inc/lnsubs/internal/domain/payment"
	vo "github.com/orris-inc/lnsubs/internal/domain/payment/valueobjects"
	"github.com/orris-inc/lnsubs/internal/infrastructure/persistence/models"
)

type PaymentMapper interface {
	ToEntity(model *models.SubscriptionPaymentModel) (*payment.Attempt, error)
	ToModel(entity *payment.Attempt) *models.SubscriptionPaymentModel
	ToEntities(models []*models.SubscriptionPaymentModel) ([]*payment.Attempt, error)
}

type PaymentMapperImpl struct{}

func NewPaymentMapper() PaymentMapper {
	return &PaymentMapperImpl{}
}

func (m *PaymentMapperImpl) ToEntity(model *models.SubscriptionPaymentModel) (*payment.Attempt, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := payment.ReconstructAttempt(
		model.ID,
		model.SubscriptionID,
		model.PaymentHash,
		model.PaymentRequest,
		model.Amount,
		vo.PaymentStatus(model.Status),
		model.PeriodStart.UTC(),
		model.PeriodEnd.UTC(),
		utcPtr(model.PaymentDate),
		model.FailureReason,
		model.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct payment attempt: %w", err)
	}
	return entity, nil
}

func (m *PaymentMapperImpl) ToModel(entity *payment.Attempt) *models.SubscriptionPaymentModel {
	if entity == nil {
		return nil
	}

	return &models.SubscriptionPaymentModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		PaymentHash:    entity.PaymentHash(),
		PaymentRequest: entity.PaymentRequest(),
		Amount:         entity.Amount(),
		Status:         entity.Status().String(),
		PeriodStart:    entity.PeriodStart(),
		PeriodEnd:      entity.PeriodEnd(),
		PaymentDate:    entity.PaymentDate(),
		FailureReason:  entity.FailureReason(),
		PendingKey:     pendingKey(entity),
		CreatedAt:      entity.CreatedAt(),
	}
}

// pendingKey identifies the subscription period of a pending attempt and is
// nil once the attempt settles.
func pendingKey(entity *payment.Attempt) *string {
	if entity.Status() != vo.PaymentStatusPending {
		return nil
	}
	key := fmt.Sprintf("%s@%d", entity.SubscriptionID(), entity.PeriodStart().UTC().Unix())
	return &key
}

func (m *PaymentMapperImpl) ToEntities(models []*models.SubscriptionPaymentModel) ([]*payment.Attempt, error) {
	entities := make([]*payment.Attempt, 0, len(models))
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
