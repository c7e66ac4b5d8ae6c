// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the CallLog
// model, including filtered listings and the analytics aggregate.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/domain"
)

// CallLogFilters narrows ListCallLogsPage. Zero values mean "no filter".
type CallLogFilters struct {
	CallType  string
	Status    string
	StartDate *time.Time // inclusive lower bound on start_time
	EndDate   *time.Time // inclusive upper bound on start_time
}

// CallAnalytics is the aggregate over a user's calls. AvgDuration only
// considers calls with duration > 0, so short-circuited calls do not drag
// the average down.
type CallAnalytics struct {
	TotalCalls     int64   `json:"total_calls"`
	CompletedCalls int64   `json:"completed_calls"`
	MissedCalls    int64   `json:"missed_calls"`
	InboundCalls   int64   `json:"inbound_calls"`
	OutboundCalls  int64   `json:"outbound_calls"`
	AvgDuration    float64 `json:"avg_duration"`
	TotalDuration  int64   `json:"total_duration"`
	MaxDuration    int64   `json:"max_duration"`
}

// CreateCallLog inserts a call row in "initiated" status with the current
// start time.
func CreateCallLog(ctx context.Context, db *gorm.DB, callerID, recipientID, callType string) (*domain.CallLog, error) {
	c := &domain.CallLog{
		ID:          uuid.NewString(),
		CallerID:    callerID,
		RecipientID: recipientID,
		CallType:    callType,
		Status:      domain.CallStatusInitiated,
		StartTime:   time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetCallLog fetches a call by ID.
func GetCallLog(ctx context.Context, db *gorm.DB, id string) (*domain.CallLog, error) {
	var c domain.CallLog
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCallDetails overwrites status, duration, notes, and stamps end_time.
// There is no transition validation: repeated or out-of-order updates are
// accepted and simply overwrite the previous values.
func UpdateCallDetails(ctx context.Context, db *gorm.DB, id, status string, duration int, notes string, endedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.CallLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   status,
			"duration": duration,
			"notes":    notes,
			"end_time": endedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateCallNotes replaces the notes field independent of status.
func UpdateCallNotes(ctx context.Context, db *gorm.DB, id, notes string) error {
	res := db.WithContext(ctx).
		Model(&domain.CallLog{}).
		Where("id = ?", id).
		Update("notes", notes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCallLogsPage returns calls where userID is caller or recipient,
// narrowed by filters, ordered by start time descending.
func ListCallLogsPage(ctx context.Context, db *gorm.DB, userID string, f CallLogFilters, offset, limit int) ([]domain.CallLog, error) {
	q := db.WithContext(ctx).
		Where("caller_id = ? OR recipient_id = ?", userID, userID)
	if f.CallType != "" {
		q = q.Where("call_type = ?", f.CallType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StartDate != nil {
		q = q.Where("start_time >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("start_time <= ?", *f.EndDate)
	}

	var out []domain.CallLog
	err := q.Order("start_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListCallHistoryPage returns all calls between exactly the given pair, in
// either direction, ordered by start time descending.
func ListCallHistoryPage(ctx context.Context, db *gorm.DB, userID, otherUserID string, offset, limit int) ([]domain.CallLog, error) {
	var out []domain.CallLog
	err := db.WithContext(ctx).
		Where("(caller_id = ? AND recipient_id = ?) OR (caller_id = ? AND recipient_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("start_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AggregateCallAnalytics computes the analytics aggregate in a single query.
// COALESCE keeps the zero-call case at all-zeros rather than NULL scans.
func AggregateCallAnalytics(ctx context.Context, db *gorm.DB, userID string, startDate, endDate *time.Time) (*CallAnalytics, error) {
	query := `
		SELECT
			COUNT(*) AS total_calls,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_calls,
			COALESCE(SUM(CASE WHEN status = 'missed' THEN 1 ELSE 0 END), 0) AS missed_calls,
			COALESCE(SUM(CASE WHEN call_type = 'inbound' THEN 1 ELSE 0 END), 0) AS inbound_calls,
			COALESCE(SUM(CASE WHEN call_type = 'outbound' THEN 1 ELSE 0 END), 0) AS outbound_calls,
			COALESCE(AVG(CASE WHEN duration > 0 THEN duration END), 0) AS avg_duration,
			COALESCE(SUM(duration), 0) AS total_duration,
			COALESCE(MAX(duration), 0) AS max_duration
		FROM call_logs
		WHERE (caller_id = ? OR recipient_id = ?)`
	args := []any{userID, userID}
	if startDate != nil {
		query += " AND start_time >= ?"
		args = append(args, *startDate)
	}
	if endDate != nil {
		query += " AND start_time <= ?"
		args = append(args, *endDate)
	}

	var out CallAnalytics
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
