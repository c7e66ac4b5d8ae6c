// Package services – CallService
//
// This file implements CallService, which records call lifecycle events and
// derives analytics. A call is created in "initiated" status and updated by
// later lifecycle reports; status transitions are deliberately not
// validated (any participant may set any valid status at any time,
// including moving backward), matching how the platform's telephony
// integration reports events.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/domain"
	"github.com/supplylink/comms-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultCallPageSize = 50

// CallLogEntry is one row of a call listing, enriched with both parties'
// display attributes.
type CallLogEntry struct {
	domain.CallLog
	CallerName    string `json:"caller_name"`
	CallerRole    string `json:"caller_role"`
	RecipientName string `json:"recipient_name"`
	RecipientRole string `json:"recipient_role"`
}

// CallService records call lifecycle events and derives analytics.
// MaxNoteBytes bounds call notes length; zero means no bound.
type CallService struct {
	DB           *gorm.DB
	Audit        Recorder
	MaxNoteBytes int
}

// InitiateCall inserts a call log in "initiated" status with the current
// start time. The same required-field and access-policy checks as messaging
// apply; callType defaults to outbound.
func (s *CallService) InitiateCall(ctx context.Context, callerID, recipientID, callType string) (*domain.CallLog, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "InitiateCall",
		trace.WithAttributes(
			attribute.String("caller.id", callerID),
			attribute.String("recipient.id", recipientID),
			attribute.String("call.type", callType),
		),
	)
	defer span.End()

	if callType == "" {
		callType = domain.CallTypeOutbound
	}
	if callerID == "" || recipientID == "" {
		return nil, ErrMissingFields
	}
	switch callType {
	case domain.CallTypeInbound, domain.CallTypeOutbound, domain.CallTypeMissed:
	default:
		return nil, ErrInvalidCallType
	}

	permitted, err := canCommunicate(ctx, s.DB, callerID, recipientID)
	if err != nil {
		return nil, err
	}
	if !permitted {
		return nil, ErrNotPermitted
	}

	call, err := repo.CreateCallLog(ctx, s.DB, callerID, recipientID, callType)
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.Audit, callerID, "initiate_call", "call_logs", call.ID, map[string]any{
		"recipient_id": recipientID,
		"call_type":    callType,
	})

	return call, nil
}

// LogCallDetails overwrites the call's status, duration, end time, and
// sanitized notes. Only the caller or recipient of the call may report
// details; repeated or out-of-order reports are accepted and overwrite.
func (s *CallService) LogCallDetails(ctx context.Context, callID, userID, status string, duration int, notes string) error {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "LogCallDetails",
		trace.WithAttributes(
			attribute.String("call.id", callID),
			attribute.String("user.id", userID),
			attribute.String("call.status", status),
		),
	)
	defer span.End()

	if callID == "" || userID == "" {
		return ErrMissingFields
	}
	if s.MaxNoteBytes > 0 && len(notes) > s.MaxNoteBytes {
		return ErrContentTooLong
	}

	call, err := repo.GetCallLog(ctx, s.DB, callID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCallNotFound
		}
		return err
	}
	if call.CallerID != userID && call.RecipientID != userID {
		return ErrNotParticipant
	}

	switch status {
	case domain.CallStatusRinging, domain.CallStatusAnswered, domain.CallStatusMissed,
		domain.CallStatusCompleted, domain.CallStatusFailed:
	default:
		return ErrInvalidCallStatus
	}

	if err := repo.UpdateCallDetails(ctx, s.DB, callID, status, duration, sanitizeContent(notes), time.Now().UTC()); err != nil {
		return err
	}

	recordAudit(ctx, s.Audit, userID, "log_call_details", "call_logs", callID, map[string]any{
		"status":   status,
		"duration": duration,
	})

	return nil
}

// GetCallLogs returns all calls where userID is caller or recipient,
// narrowed by the optional filters, each row enriched with both parties'
// names and roles, ordered by start time descending.
func (s *CallService) GetCallLogs(ctx context.Context, userID string, page, limit int, filters repo.CallLogFilters) ([]CallLogEntry, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "GetCallLogs",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if userID == "" {
		return nil, ErrMissingFields
	}
	page, limit = normalizePage(page, limit, defaultCallPageSize)
	offset := (page - 1) * limit

	calls, err := repo.ListCallLogsPage(ctx, s.DB, userID, filters, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, calls)
}

// GetCallHistoryWithUser returns all calls between exactly that pair in
// either direction, access-policy gated, ordered by start time descending.
func (s *CallService) GetCallHistoryWithUser(ctx context.Context, currentUserID, otherUserID string, page, limit int) ([]domain.CallLog, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "GetCallHistoryWithUser",
		trace.WithAttributes(
			attribute.String("user.id", currentUserID),
			attribute.String("other_user.id", otherUserID),
		),
	)
	defer span.End()

	if currentUserID == "" || otherUserID == "" {
		return nil, ErrMissingFields
	}

	permitted, err := canCommunicate(ctx, s.DB, currentUserID, otherUserID)
	if err != nil {
		return nil, err
	}
	if !permitted {
		return nil, ErrNotPermitted
	}

	page, limit = normalizePage(page, limit, defaultCallPageSize)
	return repo.ListCallHistoryPage(ctx, s.DB, currentUserID, otherUserID, (page-1)*limit, limit)
}

// GetCallAnalytics aggregates over all of the user's calls, optionally
// time-bounded on start time: totals by status and direction, average
// duration over calls with duration > 0, total and max duration.
func (s *CallService) GetCallAnalytics(ctx context.Context, userID string, startDate, endDate *time.Time) (*repo.CallAnalytics, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "GetCallAnalytics",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if userID == "" {
		return nil, ErrMissingFields
	}
	return repo.AggregateCallAnalytics(ctx, s.DB, userID, startDate, endDate)
}

// UpdateCallNotes replaces the sanitized notes field independent of status.
// Same authorization rule as LogCallDetails.
func (s *CallService) UpdateCallNotes(ctx context.Context, callID, userID, notes string) error {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "UpdateCallNotes",
		trace.WithAttributes(
			attribute.String("call.id", callID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if callID == "" || userID == "" {
		return ErrMissingFields
	}
	if s.MaxNoteBytes > 0 && len(notes) > s.MaxNoteBytes {
		return ErrContentTooLong
	}

	call, err := repo.GetCallLog(ctx, s.DB, callID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCallNotFound
		}
		return err
	}
	if call.CallerID != userID && call.RecipientID != userID {
		return ErrNotParticipant
	}

	if err := repo.UpdateCallNotes(ctx, s.DB, callID, sanitizeContent(notes)); err != nil {
		return err
	}

	recordAudit(ctx, s.Audit, userID, "update_call_notes", "call_logs", callID, nil)
	return nil
}

// enrich joins both parties' display attributes onto call rows. Unknown
// users (deleted accounts) leave the display fields empty rather than
// failing the listing.
func (s *CallService) enrich(ctx context.Context, calls []domain.CallLog) ([]CallLogEntry, error) {
	cache := make(map[string]*domain.User)
	lookup := func(id string) *domain.User {
		if u, ok := cache[id]; ok {
			return u
		}
		u, err := repo.GetUser(ctx, s.DB, id)
		if err != nil {
			u = nil
		}
		cache[id] = u
		return u
	}

	out := make([]CallLogEntry, 0, len(calls))
	for _, c := range calls {
		e := CallLogEntry{CallLog: c}
		if u := lookup(c.CallerID); u != nil {
			e.CallerName, e.CallerRole = u.Name, u.Role
		}
		if u := lookup(c.RecipientID); u != nil {
			e.RecipientName, e.RecipientRole = u.Name, u.Role
		}
		out = append(out, e)
	}
	return out, nil
}
