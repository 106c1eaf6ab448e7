package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
	"github.com/orris-inc/lnsubs/internal/shared/utils"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
	logger  logger.Interface
}

func NewHealthHandler(db Pinger, version string, logger logger.Interface) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
		logger:  logger,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warnw("health check database ping failed", "error", err)
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": biztime.NowUTC(),
	})
}
