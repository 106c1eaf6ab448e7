package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/orris-inc/lnsubs/internal/app"
	"github.com/orris-inc/lnsubs/internal/infrastructure/auth"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/handlers"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/middleware"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/routes"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/validators"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Router represents the HTTP router configuration
type Router struct {
	engine              *gin.Engine
	logger              logger.Interface
	allowedOrigins      []string
	planHandler         *handlers.PlanHandler
	subscriptionHandler *handlers.SubscriptionHandler
	publicHandler       *handlers.PublicHandler
	callbackHandler     *handlers.CallbackHandler
	healthHandler       *handlers.HealthHandler
	apiKeyMiddleware    *middleware.APIKeyMiddleware
	rateLimiter         *middleware.RateLimiter
	callbackGuard       gin.HandlerFunc
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(c *app.Container, log logger.Interface) (*Router, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validators.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	keys, err := auth.NewKeyStore(c.Config.Auth.APIKeys)
	if err != nil {
		return nil, err
	}
	enforcer, err := auth.NewEnforcer(log.With("component", "casbin"))
	if err != nil {
		return nil, err
	}

	handlerLog := log.With("component", "http")

	var pinger handlers.Pinger
	if sqlDB, err := c.DB.DB(); err == nil {
		pinger = sqlDB
	}

	return &Router{
		engine:         gin.New(),
		logger:         log,
		allowedOrigins: c.Config.Server.AllowedOrigins,
		planHandler: handlers.NewPlanHandler(
			c.CreatePlan, c.UpdatePlan, c.GetPlan, c.ListPlans, c.DeletePlan, c.ListPlanSubscriptions, handlerLog,
		),
		subscriptionHandler: handlers.NewSubscriptionHandler(
			c.CreateSubscription, c.GetSubscription, c.ListSubscriptions, c.CancelSubscription, c.ListSubscriptionPayments, handlerLog,
		),
		publicHandler:    handlers.NewPublicHandler(c.PublicSubscribe, c.GetPublicPlan, c.GetInvoiceQR, handlerLog),
		callbackHandler:  handlers.NewCallbackHandler(c.RecordPaymentOutcome, handlerLog),
		healthHandler:    handlers.NewHealthHandler(pinger, Version, handlerLog),
		apiKeyMiddleware: middleware.NewAPIKeyMiddleware(keys, enforcer, c.Audit, handlerLog),
		rateLimiter:      middleware.NewRateLimiter(c.PublicRateLimiter(), c.Audit, handlerLog),
		callbackGuard:    middleware.RequireCallbackSecret(c.Config.Auth.CallbackSecret, c.Audit, handlerLog),
	}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.CustomLogger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(r.allowedOrigins))

	r.engine.GET("/health", r.healthHandler.Health)

	api := r.engine.Group("/api/v1")

	routes.SetupPlanRoutes(api, &routes.PlanRouteConfig{
		PlanHandler:      r.planHandler,
		APIKeyMiddleware: r.apiKeyMiddleware,
	})
	routes.SetupSubscriptionRoutes(api, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: r.subscriptionHandler,
		APIKeyMiddleware:    r.apiKeyMiddleware,
	})
	routes.SetupPublicRoutes(api, &routes.PublicRouteConfig{
		PublicHandler: r.publicHandler,
		RateLimiter:   r.rateLimiter,
	})
	routes.SetupCallbackRoutes(api, &routes.CallbackRouteConfig{
		CallbackHandler: r.callbackHandler,
		SecretGuard:     r.callbackGuard,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
