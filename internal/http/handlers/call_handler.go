// Call log HTTP handlers.
//
// This file exposes REST endpoints for the call-log subsystem:
//   - POST /calls                  (initiate)
//   - PUT  /calls/:id              (report lifecycle details)
//   - PUT  /calls/:id/notes        (replace notes)
//   - GET  /calls                  (list, filtered, paginated)
//   - GET  /calls/with/:userID     (history with one user)
//   - GET  /calls/analytics        (aggregate)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supplylink/comms-backend/internal/repo"
)

// InitiateCallRequest is the JSON payload for starting a call log.
type InitiateCallRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	CallType    string `json:"call_type"` // defaults to "outbound"
}

// LogCallDetailsRequest is the JSON payload for reporting call lifecycle
// details. Duration is in seconds.
type LogCallDetailsRequest struct {
	Status   string `json:"status" binding:"required"`
	Duration int    `json:"duration"`
	Notes    string `json:"notes"`
}

// UpdateCallNotesRequest is the JSON payload for replacing call notes.
type UpdateCallNotesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// InitiateCall handles POST /calls.
func (h *Handlers) InitiateCall(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	call, err := h.callSvc.InitiateCall(c.Request.Context(), uid, req.RecipientID, req.CallType)
	if err != nil {
		mapServiceErr(c, err, ErrCodeCallFailed)
		return
	}
	ok(c, http.StatusCreated, call)
}

// LogCallDetails handles PUT /calls/:id.
func (h *Handlers) LogCallDetails(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req LogCallDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	if err := h.callSvc.LogCallDetails(c.Request.Context(), c.Param("id"), uid, req.Status, req.Duration, req.Notes); err != nil {
		mapServiceErr(c, err, ErrCodeCallFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "call_id": c.Param("id"), "status": req.Status, "duration": req.Duration})
}

// UpdateCallNotes handles PUT /calls/:id/notes.
func (h *Handlers) UpdateCallNotes(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req UpdateCallNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	if err := h.callSvc.UpdateCallNotes(c.Request.Context(), c.Param("id"), uid, req.Notes); err != nil {
		mapServiceErr(c, err, ErrCodeCallFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "call_id": c.Param("id")})
}

// ListCallLogs handles GET /calls. Optional query filters: call_type,
// status, start_date, end_date (RFC 3339).
func (h *Handlers) ListCallLogs(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	page, limit := h.pageParams(c, 50)

	filters := repo.CallLogFilters{
		CallType: c.Query("call_type"),
		Status:   c.Query("status"),
	}
	var badRange bool
	filters.StartDate, badRange = parseTimeParam(c.Query("start_date"))
	if badRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid start_date")
		return
	}
	filters.EndDate, badRange = parseTimeParam(c.Query("end_date"))
	if badRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid end_date")
		return
	}

	calls, err := h.callSvc.GetCallLogs(c.Request.Context(), uid, page, limit, filters)
	if err != nil {
		mapServiceErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"page": page, "limit": limit, "items": calls})
}

// CallHistoryWithUser handles GET /calls/with/:userID.
func (h *Handlers) CallHistoryWithUser(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	page, limit := h.pageParams(c, 50)

	calls, err := h.callSvc.GetCallHistoryWithUser(c.Request.Context(), uid, c.Param("userID"), page, limit)
	if err != nil {
		mapServiceErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"page": page, "limit": limit, "items": calls})
}

// CallAnalytics handles GET /calls/analytics. Optional query bounds:
// start_date, end_date (RFC 3339).
func (h *Handlers) CallAnalytics(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	startDate, bad := parseTimeParam(c.Query("start_date"))
	if bad {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid start_date")
		return
	}
	endDate, bad := parseTimeParam(c.Query("end_date"))
	if bad {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid end_date")
		return
	}

	stats, err := h.callSvc.GetCallAnalytics(c.Request.Context(), uid, startDate, endDate)
	if err != nil {
		mapServiceErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, stats)
}

// parseTimeParam parses an optional RFC 3339 query value. The bool result
// reports a malformed (non-empty, unparseable) value.
func parseTimeParam(v string) (*time.Time, bool) {
	if v == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, true
	}
	return &t, false
}
