package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/infrastructure/auth"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/handlers"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/middleware"
)

// PlanRouteConfig holds dependencies for plan routes.
type PlanRouteConfig struct {
	PlanHandler      *handlers.PlanHandler
	APIKeyMiddleware *middleware.APIKeyMiddleware
}

// SetupPlanRoutes configures plan routes.
func SetupPlanRoutes(api *gin.RouterGroup, cfg *PlanRouteConfig) {
	plans := api.Group("/plans")
	plans.Use(cfg.APIKeyMiddleware.RequireKey())
	{
		read := cfg.APIKeyMiddleware.RequirePermission(auth.ObjectPlans, auth.ActionRead)
		write := cfg.APIKeyMiddleware.RequirePermission(auth.ObjectPlans, auth.ActionWrite)
		readSubscriptions := cfg.APIKeyMiddleware.RequirePermission(auth.ObjectSubscriptions, auth.ActionRead)

		plans.GET("", read, cfg.PlanHandler.ListPlans)
		plans.GET("/:id", read, cfg.PlanHandler.GetPlan)
		plans.GET("/:id/subscriptions", readSubscriptions, cfg.PlanHandler.ListPlanSubscriptions)

		plans.POST("", write, cfg.PlanHandler.CreatePlan)
		plans.PUT("/:id", write, cfg.PlanHandler.UpdatePlan)
		plans.DELETE("/:id", write, cfg.PlanHandler.DeletePlan)
	}
}
