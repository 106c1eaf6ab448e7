package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	planusecases "github.com/orris-inc/lnsubs/internal/application/plan/usecases"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
	"github.com/orris-inc/lnsubs/internal/domain/plan"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

type PlanHandler struct {
	createPlanUC            createPlanUseCase
	updatePlanUC            updatePlanUseCase
	getPlanUC               getPlanUseCase
	listPlansUC             listPlansUseCase
	deletePlanUC            deletePlanUseCase
	listPlanSubscriptionsUC listPlanSubscriptionsUseCase
	logger                  logger.Interface
}

func NewPlanHandler(
	createPlanUC createPlanUseCase,
	updatePlanUC updatePlanUseCase,
	getPlanUC getPlanUseCase,
	listPlansUC listPlansUseCase,
	deletePlanUC deletePlanUseCase,
	listPlanSubscriptionsUC listPlanSubscriptionsUseCase,
	logger logger.Interface,
) *PlanHandler {
	return &PlanHandler{
		createPlanUC:            createPlanUC,
		updatePlanUC:            updatePlanUC,
		getPlanUC:               getPlanUC,
		listPlansUC:             listPlansUC,
		deletePlanUC:            deletePlanUC,
		listPlanSubscriptionsUC: listPlanSubscriptionsUC,
		logger:                  logger,
	}
}

// PlanRequest is the body of plan create and update. Updates replace every
// field, so omitted optional fields are cleared.
type PlanRequest struct {
	Name             string  `json:"name" binding:"required,max=100"`
	Description      string  `json:"description" binding:"max=500"`
	Amount           int64   `json:"amount" binding:"required,gt=0"`
	Interval         string  `json:"interval" binding:"required,billing_interval"`
	TrialDays        int     `json:"trial_days" binding:"gte=0,lte=365"`
	MaxSubscriptions *int    `json:"max_subscriptions" binding:"omitempty,gt=0"`
	WebhookURL       *string `json:"webhook_url" binding:"omitempty,url,max=500"`
	SuccessMessage   string  `json:"success_message" binding:"max=200"`
	SuccessURL       *string `json:"success_url" binding:"omitempty,url,max=500"`
}

func (r PlanRequest) toSpec() plan.Spec {
	return plan.Spec{
		Name:             r.Name,
		Description:      r.Description,
		Amount:           r.Amount,
		Interval:         r.Interval,
		TrialDays:        r.TrialDays,
		MaxSubscriptions: r.MaxSubscriptions,
		WebhookURL:       r.WebhookURL,
		SuccessMessage:   r.SuccessMessage,
		SuccessURL:       r.SuccessURL,
	}
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.createPlanUC.Execute(c.Request.Context(), planusecases.CreatePlanCommand{
		Wallet: wallet,
		Spec:   req.toSpec(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Plan created successfully")
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	planID, err := pathID(c, "id", "plan id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for update plan",
			"plan_id", planID,
			"error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.updatePlanUC.Execute(c.Request.Context(), planusecases.UpdatePlanCommand{
		PlanID: planID,
		Wallet: wallet,
		Spec:   req.toSpec(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan updated successfully", result)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	planID, err := pathID(c, "id", "plan id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getPlanUC.Execute(c.Request.Context(), planusecases.GetPlanQuery{
		PlanID: planID,
		Wallet: wallet,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listPlansUC.Execute(c.Request.Context(), wallet)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result, len(result))
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	planID, err := pathID(c, "id", "plan id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	err = h.deletePlanUC.Execute(c.Request.Context(), planusecases.DeletePlanCommand{
		PlanID:    planID,
		Wallet:    wallet,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan deleted successfully", nil)
}

func (h *PlanHandler) ListPlanSubscriptions(c *gin.Context) {
	wallet, err := walletFromContext(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	planID, err := pathID(c, "id", "plan id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listPlanSubscriptionsUC.Execute(c.Request.Context(), subusecases.ListPlanSubscriptionsQuery{
		PlanID: planID,
		Wallet: wallet,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result, len(result))
}
