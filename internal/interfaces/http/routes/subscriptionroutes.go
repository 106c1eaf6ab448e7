package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/infrastructure/auth"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/handlers"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	APIKeyMiddleware    *middleware.APIKeyMiddleware
}

// SetupSubscriptionRoutes configures subscription routes.
func SetupSubscriptionRoutes(api *gin.RouterGroup, cfg *SubscriptionRouteConfig) {
	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(cfg.APIKeyMiddleware.RequireKey())
	{
		read := cfg.APIKeyMiddleware.RequirePermission(auth.ObjectSubscriptions, auth.ActionRead)
		write := cfg.APIKeyMiddleware.RequirePermission(auth.ObjectSubscriptions, auth.ActionWrite)
		readPayments := cfg.APIKeyMiddleware.RequirePermission(auth.ObjectPayments, auth.ActionRead)

		subscriptions.GET("", read, cfg.SubscriptionHandler.ListSubscriptions)
		subscriptions.GET("/:id", read, cfg.SubscriptionHandler.GetSubscription)
		subscriptions.GET("/:id/payments", readPayments, cfg.SubscriptionHandler.ListSubscriptionPayments)

		subscriptions.POST("", write, cfg.SubscriptionHandler.CreateSubscription)
		subscriptions.POST("/:id/cancel", write, cfg.SubscriptionHandler.CancelSubscription)
	}
}
