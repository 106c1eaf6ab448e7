// Package audit stores security events without ever failing the request that produced them.
package audit

import (
	"context"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
	"github.com/orris-inc/lnsubs/internal/shared/biztime"
	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

type Recorder struct {
	repo   audit.Repository
	clock  biztime.Clock
	logger logger.Interface
}

func NewRecorder(repo audit.Repository, clock biztime.Clock, logger logger.Interface) *Recorder {
	return &Recorder{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Record writes an audit entry. Storage failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, eventType audit.EventType, wallet, ipAddress, details string) {
	if r == nil || r.repo == nil {
		return
	}

	entry := audit.NewEntry(eventType, wallet, ipAddress, details, r.clock.Now())
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Warnw("failed to write audit entry",
			"event_type", eventType,
			"ip_address", ipAddress,
			"error", err,
		)
	}
}

// Recordf is Record with a formatted details string.
func (r *Recorder) Recordf(ctx context.Context, eventType audit.EventType, wallet, ipAddress, format string, args ...any) {
	r.Record(ctx, eventType, wallet, ipAddress, fmt.Sprintf(format, args...))
}
