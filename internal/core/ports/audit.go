package ports

import (
	"context"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// AuditRepository persists audit trail entries.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Record(event domain.AuditEvent)
}

// LoginThrottle counts failed logins per username.
type LoginThrottle interface {
	Locked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
