package memory

import (
	"context"
	"sync"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

// AuditRepository appends audit events to a slice.
type AuditRepository struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) InsertEvent(_ context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *AuditRepository) Events() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}
