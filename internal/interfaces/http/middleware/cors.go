package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/shared/constants"
)

const (
	publicPathPrefix   = "/api/v1/public/"
	callbackPathPrefix = "/api/v1/callbacks/"
	apiPathPrefix      = "/api/v1/"

	corsMaxAge     = 2 * time.Hour
	exposedHeaders = "Content-Length, X-Request-ID"
)

type corsPolicy struct {
	anyOrigin bool
	methods   string
	headers   string
}

var (
	// Checkout pages are embedded on merchant sites we do not know in advance.
	publicCORS = corsPolicy{
		anyOrigin: true,
		methods:   "GET, POST, OPTIONS",
		headers:   "Content-Type, Accept, X-Request-ID",
	}
	walletCORS = corsPolicy{
		methods: "GET, POST, PUT, DELETE, OPTIONS",
		headers: "Content-Type, Accept, X-Request-ID, " + constants.HeaderAPIKey,
	}
)

// corsPolicyFor returns false for paths browsers never call directly, such as
// payment callbacks and the health check.
func corsPolicyFor(path string) (corsPolicy, bool) {
	switch {
	case strings.HasPrefix(path, publicPathPrefix):
		return publicCORS, true
	case strings.HasPrefix(path, callbackPathPrefix):
		return corsPolicy{}, false
	case strings.HasPrefix(path, apiPathPrefix):
		return walletCORS, true
	default:
		return corsPolicy{}, false
	}
}

// CORS lets any origin use the public checkout routes without credentials,
// while the API key routes answer only the configured dashboard origins.
// A preflight from an unknown origin is refused with 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}
	maxAge := strconv.Itoa(int(corsMaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		policy, ok := corsPolicyFor(c.Request.URL.Path)
		if origin == "" || !ok {
			c.Next()
			return
		}

		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		allowOrigin := "*"
		if !policy.anyOrigin {
			c.Writer.Header().Add("Vary", "Origin")
			if _, ok := allowed[origin]; !ok {
				if preflight {
					c.AbortWithStatus(http.StatusForbidden)
					return
				}
				c.Next()
				return
			}
			allowOrigin = origin
		}

		c.Header("Access-Control-Allow-Origin", allowOrigin)
		c.Header("Access-Control-Expose-Headers", exposedHeaders)
		if preflight {
			c.Header("Access-Control-Allow-Methods", policy.methods)
			c.Header("Access-Control-Allow-Headers", policy.headers)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeaders sets response headers for a JSON API that also serves
// invoice QR images.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'")
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

		c.Next()
	}
}
