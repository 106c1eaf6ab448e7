package dto

import (
	"time"

	"github.com/orris-inc/lnsubs/internal/domain/payment"
)

type PaymentDTO struct {
	ID             string     `json:"id"`
	SubscriptionID string     `json:"subscription_id"`
	PaymentHash    string     `json:"payment_hash"`
	PaymentRequest string     `json:"payment_request"`
	Amount         int64      `json:"amount"`
	Status         string     `json:"status"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	PaymentDate    *time.Time `json:"payment_date"`
	FailureReason  *string    `json:"failure_reason"`
	CreatedAt      time.Time  `json:"created_at"`
}

func ToPaymentDTO(a *payment.Attempt) *PaymentDTO {
	if a == nil {
		return nil
	}

	return &PaymentDTO{
		ID:             a.ID(),
		SubscriptionID: a.SubscriptionID(),
		PaymentHash:    a.PaymentHash(),
		PaymentRequest: a.PaymentRequest(),
		Amount:         a.Amount(),
		Status:         a.Status().String(),
		PeriodStart:    a.PeriodStart(),
		PeriodEnd:      a.PeriodEnd(),
		PaymentDate:    a.PaymentDate(),
		FailureReason:  a.FailureReason(),
		CreatedAt:      a.CreatedAt(),
	}
}

func ToPaymentDTOList(attempts []*payment.Attempt) []*PaymentDTO {
	dtos := make([]*PaymentDTO, 0, len(attempts))
	for _, a := range attempts {
		if a != nil {
			dtos = append(dtos, ToPaymentDTO(a))
		}
	}
	return dtos
}

// InvoiceDTO describes a freshly issued invoice for one subscription period.
type InvoiceDTO struct {
	PaymentID      string    `json:"payment_id"`
	SubscriptionID string    `json:"subscription_id"`
	PaymentHash    string    `json:"payment_hash"`
	PaymentRequest string    `json:"payment_request"`
	Amount         int64     `json:"amount"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

func ToInvoiceDTO(a *payment.Attempt) *InvoiceDTO {
	if a == nil {
		return nil
	}

	return &InvoiceDTO{
		PaymentID:      a.ID(),
		SubscriptionID: a.SubscriptionID(),
		PaymentHash:    a.PaymentHash(),
		PaymentRequest: a.PaymentRequest(),
		Amount:         a.Amount(),
		PeriodStart:    a.PeriodStart(),
		PeriodEnd:      a.PeriodEnd(),
	}
}
