package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/interfaces/http/handlers"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/middleware"
)

// PublicRouteConfig holds dependencies for the unauthenticated routes.
type PublicRouteConfig struct {
	PublicHandler *handlers.PublicHandler
	RateLimiter   *middleware.RateLimiter
}

// SetupPublicRoutes configures public routes. Only subscribe is rate limited,
// being the only one that writes.
func SetupPublicRoutes(api *gin.RouterGroup, cfg *PublicRouteConfig) {
	public := api.Group("/public")
	{
		public.POST("/subscribe/:plan_id", cfg.RateLimiter.Limit(), cfg.PublicHandler.Subscribe)
		public.GET("/plans/:plan_id", cfg.PublicHandler.GetPlan)
		public.GET("/payments/:id/qr", cfg.PublicHandler.GetInvoiceQR)
	}
}
