// Package services – audit sink
//
// Every mutating operation in this package emits one audit record through
// the Recorder collaborator. Emission is explicitly fire-and-forget: the
// call is issued, any failure is logged at warn level, and the triggering
// operation's result is never affected.
package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/repo"
)

// Recorder receives a record of every mutating action. Implementations may
// fail; callers in this package log and swallow those failures.
type Recorder interface {
	Record(ctx context.Context, actorID, action, resourceType, resourceID string, metadata map[string]any) error
}

// DBRecorder persists audit events to the audit_events table.
type DBRecorder struct {
	DB *gorm.DB
}

// Record serializes metadata to JSON and inserts one audit row.
func (r *DBRecorder) Record(ctx context.Context, actorID, action, resourceType, resourceID string, metadata map[string]any) error {
	var meta string
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		meta = string(b)
	}
	return repo.CreateAuditEvent(ctx, r.DB, actorID, action, resourceType, resourceID, meta)
}

// recordAudit emits an audit event best-effort. A nil Recorder is a no-op
// so tests and embedded uses can leave the sink unwired.
func recordAudit(ctx context.Context, rec Recorder, actorID, action, resourceType, resourceID string, metadata map[string]any) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, actorID, action, resourceType, resourceID, metadata); err != nil {
		log.Warn().
			Err(err).
			Str("actor_id", actorID).
			Str("action", action).
			Str("resource_type", resourceType).
			Str("resource_id", resourceID).
			Msg("audit record failed")
	}
}
