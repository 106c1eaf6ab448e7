package middleware

import (
	"context"

	"github.com/orris-inc/lnsubs/internal/domain/audit"
)

// AuditRecorder stores security events. Implementations must not fail the request.
type AuditRecorder interface {
	Record(ctx context.Context, eventType audit.EventType, wallet, ipAddress, details string)
}
