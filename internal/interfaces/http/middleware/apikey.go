package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/infrastructure/auth"
	"github.com/orris-inc/lnsubs/internal/shared/constants"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

type KeyResolver interface {
	Lookup(key string) (auth.Principal, bool)
}

type PolicyEnforcer interface {
	Enforce(role, object, action string) (bool, error)
}

// APIKeyMiddleware authenticates requests by X-Api-Key and authorizes them by role.
type APIKeyMiddleware struct {
	keys     KeyResolver
	enforcer PolicyEnforcer
	audit    AuditRecorder
	logger   logger.Interface
}

func NewAPIKeyMiddleware(keys KeyResolver, enforcer PolicyEnforcer, recorder AuditRecorder, logger logger.Interface) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		keys:     keys,
		enforcer: enforcer,
		audit:    recorder,
		logger:   logger,
	}
}

// RequireKey resolves the API key into the wallet and role of the caller.
func (m *APIKeyMiddleware) RequireKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(constants.HeaderAPIKey)
		if key == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing api key")
			c.Abort()
			return
		}

		principal, ok := m.keys.Lookup(key)
		if !ok {
			m.logger.Warnw("invalid api key", "client_ip", c.ClientIP(), "path", c.FullPath())
			m.audit.Record(c.Request.Context(), audit.EventAuthFailed, "", c.ClientIP(), "invalid api key for "+c.Request.Method+" "+c.FullPath())
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid api key")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyWallet, principal.Wallet)
		c.Set(constants.ContextKeyRole, principal.Role)

		c.Next()
	}
}

// RequirePermission must run after RequireKey.
func (m *APIKeyMiddleware) RequirePermission(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(constants.ContextKeyRole)
		wallet := c.GetString(constants.ContextKeyWallet)
		if role == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing api key")
			c.Abort()
			return
		}

		allowed, err := m.enforcer.Enforce(role, object, action)
		if err != nil {
			m.logger.Errorw("permission check failed", "error", err, "role", role, "object", object, "action", action)
			utils.ErrorResponse(c, http.StatusInternalServerError, "permission check failed")
			c.Abort()
			return
		}

		if !allowed {
			m.logger.Warnw("permission denied", "wallet", wallet, "role", role, "object", object, "action", action)
			m.audit.Record(c.Request.Context(), audit.EventAccessDenied, wallet, c.ClientIP(), role+" key cannot "+action+" "+object)
			utils.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireCallbackSecret guards the settlement callback. An empty secret
// rejects every request.
func RequireCallbackSecret(secret string, recorder AuditRecorder, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(constants.HeaderCallbackSecret)
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			log.Warnw("payment callback rejected", "client_ip", c.ClientIP())
			recorder.Record(c.Request.Context(), audit.EventCallbackRejected, "", c.ClientIP(), "invalid callback secret")
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid callback secret")
			c.Abort()
			return
		}
		c.Next()
	}
}
