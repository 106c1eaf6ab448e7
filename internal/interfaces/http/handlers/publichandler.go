package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
	"github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/id"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

// PublicHandler serves the unauthenticated subscribe flow.
type PublicHandler struct {
	publicSubscribeUC publicSubscribeUseCase
	getPublicPlanUC   getPublicPlanUseCase
	getInvoiceQRUC    getInvoiceQRUseCase
	logger            logger.Interface
}

func NewPublicHandler(
	publicSubscribeUC publicSubscribeUseCase,
	getPublicPlanUC getPublicPlanUseCase,
	getInvoiceQRUC getInvoiceQRUseCase,
	logger logger.Interface,
) *PublicHandler {
	return &PublicHandler{
		publicSubscribeUC: publicSubscribeUC,
		getPublicPlanUC:   getPublicPlanUC,
		getInvoiceQRUC:    getInvoiceQRUC,
		logger:            logger,
	}
}

func publicID(c *gin.Context, name, label string) (string, error) {
	value := c.Param(name)
	if !id.ValidatePublicID(value) {
		return "", errors.NewValidationError("invalid " + label + " format")
	}
	return value, nil
}

// Subscribe creates a subscription for an anonymous subscriber. Plans without
// a trial return the first invoice in the response.
func (h *PublicHandler) Subscribe(c *gin.Context) {
	planID, err := publicID(c, "plan_id", "plan id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for public subscribe",
			"plan_id", planID,
			"error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.publicSubscribeUC.Execute(c.Request.Context(), subusecases.PublicSubscribeCommand{
		PlanID:     planID,
		Subscriber: req.toSubscriber(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Subscription created successfully")
}

func (h *PublicHandler) GetPlan(c *gin.Context) {
	planID, err := publicID(c, "plan_id", "plan id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getPublicPlanUC.Execute(c.Request.Context(), planID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetInvoiceQR renders the payment request of a payment attempt as a PNG.
func (h *PublicHandler) GetInvoiceQR(c *gin.Context) {
	paymentID, err := publicID(c, "id", "payment id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	png, err := h.getInvoiceQRUC.Execute(c.Request.Context(), paymentID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
