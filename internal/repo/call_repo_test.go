package repo

import (
	"context"
	"testing"
	"time"

	"github.com/supplylink/comms-backend/internal/domain"
	"gorm.io/gorm"
)

func newCallRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newThreadRepoDB(t, &domain.CallLog{})
}

func seedCall(t *testing.T, db *gorm.DB, id, caller, recipient, callType, status string, duration int, start time.Time) {
	t.Helper()
	c := &domain.CallLog{
		ID:          id,
		CallerID:    caller,
		RecipientID: recipient,
		CallType:    callType,
		Status:      status,
		Duration:    duration,
		StartTime:   start,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed call %s: %v", id, err)
	}
}

func TestCreateCallLog_Defaults(t *testing.T) {
	db := newCallRepoDB(t)

	before := time.Now().UTC().Add(-time.Minute)
	c, err := CreateCallLog(context.Background(), db, "u1", "u2", domain.CallTypeOutbound)
	if err != nil {
		t.Fatalf("CreateCallLog: %v", err)
	}
	if c.ID == "" || c.Status != domain.CallStatusInitiated {
		t.Fatalf("unexpected call fields: %+v", c)
	}
	if c.Duration != 0 || c.EndTime != nil {
		t.Fatalf("new call must have zero duration and no end time: %+v", c)
	}
	if c.StartTime.Before(before) {
		t.Fatalf("StartTime not set: %v", c.StartTime)
	}
}

func TestUpdateCallDetails_OverwritesLifecycleFields(t *testing.T) {
	db := newCallRepoDB(t)
	ctx := context.Background()

	c, err := CreateCallLog(ctx, db, "u1", "u2", domain.CallTypeOutbound)
	if err != nil {
		t.Fatalf("CreateCallLog: %v", err)
	}

	ended := time.Now().UTC().Truncate(time.Second)
	if err := UpdateCallDetails(ctx, db, c.ID, domain.CallStatusCompleted, 42, "went well", ended); err != nil {
		t.Fatalf("UpdateCallDetails: %v", err)
	}

	got, err := GetCallLog(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetCallLog: %v", err)
	}
	if got.Status != domain.CallStatusCompleted || got.Duration != 42 || got.Notes != "went well" {
		t.Fatalf("lifecycle fields not applied: %+v", got)
	}
	if got.EndTime == nil || !got.EndTime.Equal(ended) {
		t.Fatalf("end_time = %v, want %v", got.EndTime, ended)
	}

	// A later report overwrites, no transition table.
	if err := UpdateCallDetails(ctx, db, c.ID, domain.CallStatusRinging, 0, "", ended); err != nil {
		t.Fatalf("UpdateCallDetails (overwrite): %v", err)
	}
	got, _ = GetCallLog(ctx, db, c.ID)
	if got.Status != domain.CallStatusRinging || got.Duration != 0 {
		t.Fatalf("overwrite not applied: %+v", got)
	}
}

func TestUpdateCallDetails_MissingRow(t *testing.T) {
	db := newCallRepoDB(t)
	err := UpdateCallDetails(context.Background(), db, "nope", domain.CallStatusCompleted, 1, "", time.Now().UTC())
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCallNotes(t *testing.T) {
	db := newCallRepoDB(t)
	ctx := context.Background()

	c, _ := CreateCallLog(ctx, db, "u1", "u2", domain.CallTypeInbound)
	if err := UpdateCallNotes(ctx, db, c.ID, "follow up monday"); err != nil {
		t.Fatalf("UpdateCallNotes: %v", err)
	}
	got, _ := GetCallLog(ctx, db, c.ID)
	if got.Notes != "follow up monday" {
		t.Fatalf("notes = %q", got.Notes)
	}
	if got.Status != domain.CallStatusInitiated {
		t.Fatalf("notes update must not touch status: %+v", got)
	}

	if err := UpdateCallNotes(ctx, db, "nope", "x"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCallLogsPage_Filters(t *testing.T) {
	db := newCallRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedCall(t, db, "c1", "me", "u1", domain.CallTypeOutbound, domain.CallStatusCompleted, 60, now.Add(-3*time.Hour))
	seedCall(t, db, "c2", "u2", "me", domain.CallTypeInbound, domain.CallStatusMissed, 0, now.Add(-2*time.Hour))
	seedCall(t, db, "c3", "me", "u1", domain.CallTypeOutbound, domain.CallStatusCompleted, 120, now.Add(-time.Hour))
	seedCall(t, db, "other", "u3", "u4", domain.CallTypeOutbound, domain.CallStatusCompleted, 30, now)

	all, err := ListCallLogsPage(ctx, db, "me", CallLogFilters{}, 0, 10)
	if err != nil {
		t.Fatalf("ListCallLogsPage: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d calls, want 3", len(all))
	}
	if all[0].ID != "c3" || all[2].ID != "c1" {
		t.Fatalf("order wrong: %+v", all)
	}

	byType, _ := ListCallLogsPage(ctx, db, "me", CallLogFilters{CallType: domain.CallTypeInbound}, 0, 10)
	if len(byType) != 1 || byType[0].ID != "c2" {
		t.Fatalf("call_type filter: %+v", byType)
	}

	byStatus, _ := ListCallLogsPage(ctx, db, "me", CallLogFilters{Status: domain.CallStatusCompleted}, 0, 10)
	if len(byStatus) != 2 {
		t.Fatalf("status filter: %+v", byStatus)
	}

	lo := now.Add(-150 * time.Minute)
	hi := now.Add(-30 * time.Minute)
	byRange, _ := ListCallLogsPage(ctx, db, "me", CallLogFilters{StartDate: &lo, EndDate: &hi}, 0, 10)
	if len(byRange) != 2 {
		t.Fatalf("date range filter: %+v", byRange)
	}
}

func TestListCallHistoryPage_PairEitherDirection(t *testing.T) {
	db := newCallRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedCall(t, db, "c1", "me", "them", domain.CallTypeOutbound, domain.CallStatusCompleted, 60, now.Add(-2*time.Hour))
	seedCall(t, db, "c2", "them", "me", domain.CallTypeInbound, domain.CallStatusCompleted, 30, now.Add(-time.Hour))
	seedCall(t, db, "c3", "me", "someone-else", domain.CallTypeOutbound, domain.CallStatusCompleted, 10, now)

	got, err := ListCallHistoryPage(ctx, db, "me", "them", 0, 10)
	if err != nil {
		t.Fatalf("ListCallHistoryPage: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c2" || got[1].ID != "c1" {
		t.Fatalf("history = %+v, want c2 then c1", got)
	}
}

func TestAggregateCallAnalytics(t *testing.T) {
	db := newCallRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedCall(t, db, "c1", "me", "u1", domain.CallTypeOutbound, domain.CallStatusCompleted, 60, now.Add(-2*time.Hour))
	seedCall(t, db, "c2", "u1", "me", domain.CallTypeInbound, domain.CallStatusCompleted, 120, now.Add(-time.Hour))
	seedCall(t, db, "c3", "u1", "me", domain.CallTypeInbound, domain.CallStatusMissed, 0, now)
	seedCall(t, db, "other", "u3", "u4", domain.CallTypeOutbound, domain.CallStatusCompleted, 999, now)

	a, err := AggregateCallAnalytics(ctx, db, "me", nil, nil)
	if err != nil {
		t.Fatalf("AggregateCallAnalytics: %v", err)
	}
	if a.TotalCalls != 3 || a.CompletedCalls != 2 || a.MissedCalls != 1 {
		t.Fatalf("counts wrong: %+v", a)
	}
	if a.InboundCalls != 2 || a.OutboundCalls != 1 {
		t.Fatalf("direction counts wrong: %+v", a)
	}
	// Average only over duration > 0: (60+120)/2.
	if a.AvgDuration != 90 {
		t.Fatalf("avg_duration = %v, want 90", a.AvgDuration)
	}
	if a.TotalDuration != 180 || a.MaxDuration != 120 {
		t.Fatalf("duration totals wrong: %+v", a)
	}
}

func TestAggregateCallAnalytics_DateBoundsAndEmpty(t *testing.T) {
	db := newCallRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedCall(t, db, "c1", "me", "u1", domain.CallTypeOutbound, domain.CallStatusCompleted, 60, now.Add(-48*time.Hour))
	seedCall(t, db, "c2", "me", "u1", domain.CallTypeOutbound, domain.CallStatusCompleted, 120, now)

	since := now.Add(-24 * time.Hour)
	a, err := AggregateCallAnalytics(ctx, db, "me", &since, nil)
	if err != nil {
		t.Fatalf("AggregateCallAnalytics: %v", err)
	}
	if a.TotalCalls != 1 || a.TotalDuration != 120 {
		t.Fatalf("bounded aggregate wrong: %+v", a)
	}

	// A user with no calls scans as all zeros, not NULLs.
	empty, err := AggregateCallAnalytics(ctx, db, "nobody", nil, nil)
	if err != nil {
		t.Fatalf("AggregateCallAnalytics (empty): %v", err)
	}
	if empty.TotalCalls != 0 || empty.AvgDuration != 0 || empty.MaxDuration != 0 {
		t.Fatalf("empty aggregate not zeroed: %+v", empty)
	}
}
