package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	paymentusecases "github.com/orris-inc/lnsubs/internal/application/payment/usecases"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
	"github.com/orris-inc/lnsubs/internal/domain/subscription"
	"github.com/orris-inc/lnsubs/internal/shared/errors"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

type SubscriptionHandler struct {
	createSubscriptionUC       createSubscriptionUseCase
	getSubscriptionUC          getSubscriptionUseCase
	listSubscriptionsUC        listSubscriptionsUseCase
	cancelSubscriptionUC       cancelSubscriptionUseCase
	listSubscriptionPaymentsUC listSubscriptionPaymentsUseCase
	logger                     logger.Interface
}

func NewSubscriptionHandler(
	createSubscriptionUC createSubscriptionUseCase,
	getSubscriptionUC getSubscriptionUseCase,
	listSubscriptionsUC listSubscriptionsUseCase,
	cancelSubscriptionUC cancelSubscriptionUseCase,
	listSubscriptionPaymentsUC listSubscriptionPaymentsUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createSubscriptionUC:       createSubscriptionUC,
		getSubscriptionUC:          getSubscriptionUC,
		listSubscriptionsUC:        listSubscriptionsUC,
		cancelSubscriptionUC:       cancelSubscriptionUC,
		listSubscriptionPaymentsUC: listSubscriptionPaymentsUC,
		logger:                     logger,
	}
}

// SubscriberRequest holds the optional subscriber details shared by the
// authenticated and public subscribe endpoints.
type SubscriberRequest struct {
	SubscriberEmail *string        `json:"subscriber_email" binding:"omitempty,max=255"`
	SubscriberName  *string        `json:"subscriber_name" binding:"omitempty,max=100"`
	Metadata        map[string]any `json:"metadata"`
}

func (r SubscriberRequest) toSubscriber() subscription.Subscriber {
	return subscription.Subscriber{
		Email:    r.SubscriberEmail,
		Name:     r.SubscriberName,
		Metadata: r.Metadata,
	}
}

type CreateSubscriptionRequest struct {
	PlanID string `json:"plan_id" binding:"required,plan_id"`
	SubscriberRequest
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.createSubscriptionUC.Execute(c.Request.Context(), subusecases.CreateSubscriptionCommand{
		Wallet:     wallet,
		PlanID:     req.PlanID,
		Subscriber: req.toSubscriber(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Subscription created successfully")
}

func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listSubscriptionsUC.Execute(c.Request.Context(), wallet)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result, len(result))
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	subscriptionID, err := pathID(c, "id", "subscription id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getSubscriptionUC.Execute(c.Request.Context(), subusecases.GetSubscriptionQuery{
		SubscriptionID: subscriptionID,
		Wallet:         wallet,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// CancelSubscription cancels at the end of the current period unless
// at_period_end=false is passed.
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	subscriptionID, err := pathID(c, "id", "subscription id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	atPeriodEnd := true
	if raw := c.Query("at_period_end"); raw != "" {
		atPeriodEnd, err = strconv.ParseBool(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("at_period_end must be a boolean"))
			return
		}
	}

	result, err := h.cancelSubscriptionUC.Execute(c.Request.Context(), subusecases.CancelSubscriptionCommand{
		SubscriptionID: subscriptionID,
		Wallet:         wallet,
		AtPeriodEnd:    atPeriodEnd,
		IPAddress:      c.ClientIP(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	message := "Subscription canceled successfully"
	if atPeriodEnd {
		message = "Subscription will be canceled at the end of the current period"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}

func (h *SubscriptionHandler) ListSubscriptionPayments(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	subscriptionID, err := pathID(c, "id", "subscription id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listSubscriptionPaymentsUC.Execute(c.Request.Context(), paymentusecases.ListSubscriptionPaymentsQuery{
		SubscriptionID: subscriptionID,
		Wallet:         wallet,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result, len(result))
}
