package handlers

import (
	"context"

	paymentusecases "github.com/orris-inc/lnsubs/internal/application/payment/usecases"
)

// Use case interfaces for CallbackHandler

type recordPaymentOutcomeUseCase interface {
	Execute(ctx context.Context, cmd paymentusecases.RecordPaymentOutcomeCommand) (*paymentusecases.RecordPaymentOutcomeResult, error)
}
