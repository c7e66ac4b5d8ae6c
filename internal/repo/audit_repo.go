// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file persists audit events emitted by the service
// layer's best-effort audit sink.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/domain"
)

// CreateAuditEvent inserts one audit row. Metadata is a pre-serialized JSON
// object (may be empty). Callers treat failures as best-effort: logged, not
// propagated.
func CreateAuditEvent(ctx context.Context, db *gorm.DB, actorID, action, resourceType, resourceID, metadata string) error {
	ev := &domain.AuditEvent{
		ID:           uuid.NewString(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(ev).Error
}

// ListAuditEventsPage returns audit events for an actor, newest first. Used
// by back-office tooling; the services never read audit rows.
func ListAuditEventsPage(ctx context.Context, db *gorm.DB, actorID string, offset, limit int) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
