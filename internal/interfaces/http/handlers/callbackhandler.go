package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	paymentusecases "github.com/orris-inc/lnsubs/internal/application/payment/usecases"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

// CallbackHandler receives settlement notifications from the invoice backend.
type CallbackHandler struct {
	recordPaymentOutcomeUC recordPaymentOutcomeUseCase
	logger                 logger.Interface
}

func NewCallbackHandler(recordPaymentOutcomeUC recordPaymentOutcomeUseCase, logger logger.Interface) *CallbackHandler {
	return &CallbackHandler{
		recordPaymentOutcomeUC: recordPaymentOutcomeUC,
		logger:                 logger,
	}
}

type PaymentCallbackRequest struct {
	PaymentHash string     `json:"payment_hash" binding:"required,len=64,hexadecimal"`
	Status      string     `json:"status" binding:"required,oneof=paid failed"`
	Reason      string     `json:"reason" binding:"max=200"`
	PaidAt      *time.Time `json:"paid_at"`
}

// HandlePaymentCallback applies a payment outcome. Repeated deliveries for an
// already settled payment succeed with applied=false.
func (h *CallbackHandler) HandlePaymentCallback(c *gin.Context) {
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid payment callback body", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.recordPaymentOutcomeUC.Execute(c.Request.Context(), paymentusecases.RecordPaymentOutcomeCommand{
		PaymentHash: req.PaymentHash,
		Paid:        req.Status == "paid",
		Reason:      req.Reason,
		PaidAt:      req.PaidAt,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
