package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/interfaces/http/handlers"
)

// CallbackRouteConfig holds dependencies for invoice backend callbacks.
type CallbackRouteConfig struct {
	CallbackHandler *handlers.CallbackHandler
	SecretGuard     gin.HandlerFunc
}

// SetupCallbackRoutes configures callback routes.
func SetupCallbackRoutes(api *gin.RouterGroup, cfg *CallbackRouteConfig) {
	callbacks := api.Group("/callbacks")
	callbacks.Use(cfg.SecretGuard)
	{
		callbacks.POST("/payments", cfg.CallbackHandler.HandlePaymentCallback)
	}
}
