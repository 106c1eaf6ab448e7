package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/lnsubs/internal/domain/payment"
	apperrors "github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

const qrSize = 256

type GetInvoiceQRUseCase struct {
	paymentRepo payment.Repository
	encoder     QREncoder
	logger      logger.Interface
}

func NewGetInvoiceQRUseCase(paymentRepo payment.Repository, encoder QREncoder, logger logger.Interface) *GetInvoiceQRUseCase {
	return &GetInvoiceQRUseCase{
		paymentRepo: paymentRepo,
		encoder:     encoder,
		logger:      logger,
	}
}

// Execute renders the pending invoice as a PNG with the "lightning:" URI scheme.
func (uc *GetInvoiceQRUseCase) Execute(ctx context.Context, paymentID string) ([]byte, error) {
	if !id.ValidatePublicID(paymentID) {
		return nil, apperrors.NewValidationError("invalid payment ID format")
	}

	attempt, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, apperrors.NewNotFoundError("payment not found")
	}
	if !attempt.IsPending() {
		return nil, apperrors.NewConflictError("payment already settled")
	}

	png, err := uc.encoder.EncodePNG("lightning:"+strings.ToUpper(attempt.PaymentRequest()), qrSize)
	if err != nil {
		uc.logger.Errorw("failed to render invoice QR", "payment_id", paymentID, "error", err)
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
