package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/supplylink/comms-backend/internal/domain"
	"github.com/supplylink/comms-backend/internal/repo"
)

// failingRecorder always errors; used to prove audit failures stay
// best-effort.
type failingRecorder struct{ err error }

func (r *failingRecorder) Record(context.Context, string, string, string, string, map[string]any) error {
	return r.err
}

// captureRecorder remembers the last emitted event.
type captureRecorder struct {
	actorID, action, resourceType, resourceID string
	metadata                                  map[string]any
	calls                                     int
}

func (r *captureRecorder) Record(_ context.Context, actorID, action, resourceType, resourceID string, metadata map[string]any) error {
	r.actorID, r.action, r.resourceType, r.resourceID = actorID, action, resourceType, resourceID
	r.metadata = metadata
	r.calls++
	return nil
}

func captureWarnLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestDBRecorder_PersistsJSONMetadata(t *testing.T) {
	db := newSvcDB(t)
	rec := &DBRecorder{DB: db}

	err := rec.Record(context.Background(), "u1", "send_message", "messages", "m1", map[string]any{
		"recipient_id": "u2",
		"message_type": "text",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	events, err := repo.ListAuditEventsPage(context.Background(), db, "u1", 0, 10)
	if err != nil {
		t.Fatalf("ListAuditEventsPage: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Action != "send_message" || ev.ResourceType != "messages" || ev.ResourceID != "m1" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(ev.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %q", ev.Metadata)
	}
	if meta["recipient_id"] != "u2" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestDBRecorder_EmptyMetadata(t *testing.T) {
	db := newSvcDB(t)
	rec := &DBRecorder{DB: db}

	if err := rec.Record(context.Background(), "u1", "delete_message", "messages", "m1", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	var ev domain.AuditEvent
	if err := db.First(&ev).Error; err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Metadata != "" {
		t.Fatalf("metadata = %q, want empty", ev.Metadata)
	}
}

func TestRecordAudit_NilRecorderIsNoop(t *testing.T) {
	// Must not panic.
	recordAudit(context.Background(), nil, "u1", "a", "r", "id", nil)
}

func TestRecordAudit_FailureLoggedNotPropagated(t *testing.T) {
	buf := captureWarnLogs(t)

	recordAudit(context.Background(), &failingRecorder{err: errors.New("sink down")},
		"u1", "send_message", "messages", "m1", nil)

	out := buf.String()
	if !strings.Contains(out, "audit record failed") || !strings.Contains(out, "sink down") {
		t.Fatalf("expected warn log about audit failure, got %q", out)
	}
}
