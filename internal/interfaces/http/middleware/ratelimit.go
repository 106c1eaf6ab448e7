package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/infrastructure/ratelimit"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

// RateLimiter applies an injected limiter per client IP.
type RateLimiter struct {
	limiter ratelimit.Limiter
	audit   AuditRecorder
	logger  logger.Interface
}

func NewRateLimiter(limiter ratelimit.Limiter, recorder AuditRecorder, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		audit:   recorder,
		logger:  logger,
	}
}

// Limit returns a Gin middleware that enforces the rate limit per client IP.
// Limiter failures let the request through.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, err := rl.limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			rl.logger.Warnw("rate limiter unavailable, allowing request", "client_ip", clientIP, "error", err)
			c.Next()
			return
		}

		if !allowed {
			rl.logger.Warnw("rate limit exceeded", "client_ip", clientIP, "path", c.FullPath())
			rl.audit.Record(c.Request.Context(), audit.EventRateLimited, "", clientIP, c.Request.Method+" "+c.FullPath())
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
