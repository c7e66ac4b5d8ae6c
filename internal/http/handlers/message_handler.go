// Messaging HTTP handlers.
//
// This file exposes REST endpoints for the messaging subsystem:
//   - POST   /messages                        (send)
//   - GET    /conversations                   (list, paginated)
//   - GET    /conversations/:userID/messages  (thread with a user)
//   - PUT    /messages/:id/read               (mark read)
//   - DELETE /messages/:id                    (per-viewer soft delete)
//   - GET    /messages/unread-count
//
// Handlers are transport-thin: they resolve the acting identity, parse and
// bound pagination, call the application services, and translate results
// into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supplylink/comms-backend/internal/domain"
	"github.com/supplylink/comms-backend/internal/repo"
	"github.com/supplylink/comms-backend/internal/services"
	"github.com/supplylink/comms-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// MessagingService defines the messaging operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type MessagingService interface {
	// SendMessage validates, authorizes, and persists one message.
	SendMessage(ctx context.Context, senderID, recipientID, content, msgType, attachmentURL, attachmentName string) (*domain.Message, error)
	// GetConversations lists the user's threads with unread counts and
	// latest-message snapshots.
	GetConversations(ctx context.Context, userID string, page, limit int) ([]services.Conversation, error)
	// GetMessageThread pages through the messages visible to the current
	// user in the thread with another user, sender attributes attached.
	GetMessageThread(ctx context.Context, currentUserID, otherUserID string, page, limit int) ([]services.ThreadMessage, error)
	// MarkMessageAsRead flags a message read for its recipient.
	MarkMessageAsRead(ctx context.Context, messageID, userID string) error
	// DeleteMessage soft-deletes a message for the acting viewer only.
	DeleteMessage(ctx context.Context, messageID, userID string) error
	// UnreadCount returns the user's unread badge count.
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// CallLogService defines the call-log operations consumed by HTTP handlers.
type CallLogService interface {
	// InitiateCall records a new call in "initiated" status.
	InitiateCall(ctx context.Context, callerID, recipientID, callType string) (*domain.CallLog, error)
	// LogCallDetails overwrites a call's lifecycle fields.
	LogCallDetails(ctx context.Context, callID, userID, status string, duration int, notes string) error
	// GetCallLogs lists the user's calls, filtered and enriched.
	GetCallLogs(ctx context.Context, userID string, page, limit int, filters repo.CallLogFilters) ([]services.CallLogEntry, error)
	// GetCallHistoryWithUser lists calls between exactly one pair.
	GetCallHistoryWithUser(ctx context.Context, currentUserID, otherUserID string, page, limit int) ([]domain.CallLog, error)
	// GetCallAnalytics aggregates the user's calls.
	GetCallAnalytics(ctx context.Context, userID string, startDate, endDate *time.Time) (*repo.CallAnalytics, error)
	// UpdateCallNotes replaces the call's notes.
	UpdateCallNotes(ctx context.Context, callID, userID, notes string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for messaging and call logging. It
// depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	msgSvc      MessagingService
	callSvc     CallLogService
	maxPageSize int
}

// New constructs a Handlers instance bound to the given services.
// maxPageSize bounds caller-supplied limits; values < 1 fall back to 100.
func New(msgSvc MessagingService, callSvc CallLogService, maxPageSize int) *Handlers {
	if maxPageSize < 1 {
		maxPageSize = 100
	}
	return &Handlers{msgSvc: msgSvc, callSvc: callSvc, maxPageSize: maxPageSize}
}

// userID extracts the authenticated user id set by upstream middleware
// (Gin context key "userID"), falling back to the X-User-ID header used by
// internal callers and tests. Empty means unauthenticated.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

// mapServiceErr translates service-layer sentinel errors into HTTP
// responses. Unknown errors become a 500 with the given fallback code.
func mapServiceErr(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidMessageType),
		errors.Is(err, services.ErrContentTooLong),
		errors.Is(err, services.ErrInvalidCallType),
		errors.Is(err, services.ErrInvalidCallStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrNotPermitted),
		errors.Is(err, services.ErrNotParticipant):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrCallNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, "operation failed")
	}
}

// pageParams parses and bounds page/limit query parameters.
func (h *Handlers) pageParams(c *gin.Context, defLimit int) (int, int) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	limit := utils.AtoiDefault(c.Query("limit"), defLimit)
	limit = utils.ClampLimit(limit, defLimit, h.maxPageSize)
	if page < 1 {
		page = 1
	}
	return page, limit
}

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	RecipientID    string `json:"recipient_id" binding:"required"`
	Content        string `json:"content" binding:"required"`
	MessageType    string `json:"message_type"` // defaults to "text"
	AttachmentURL  string `json:"attachment_url"`
	AttachmentName string `json:"attachment_name"`
}

// UnreadCountResponse carries the unread badge count.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

//
// Endpoints
//

// SendMessage handles POST /messages.
func (h *Handlers) SendMessage(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	msg, err := h.msgSvc.SendMessage(c.Request.Context(), uid, req.RecipientID, req.Content, req.MessageType, req.AttachmentURL, req.AttachmentName)
	if err != nil {
		mapServiceErr(c, err, ErrCodeSendFailed)
		return
	}
	ok(c, http.StatusCreated, msg)
}

// ListConversations handles GET /conversations.
func (h *Handlers) ListConversations(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	page, limit := h.pageParams(c, 20)

	convs, err := h.msgSvc.GetConversations(c.Request.Context(), uid, page, limit)
	if err != nil {
		mapServiceErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"page": page, "limit": limit, "items": convs})
}

// GetMessageThread handles GET /conversations/:userID/messages.
func (h *Handlers) GetMessageThread(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}
	other := c.Param("userID")
	page, limit := h.pageParams(c, 50)

	msgs, err := h.msgSvc.GetMessageThread(c.Request.Context(), uid, other, page, limit)
	if err != nil {
		mapServiceErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"page": page, "limit": limit, "items": msgs})
}

// MarkMessageAsRead handles PUT /messages/:id/read.
func (h *Handlers) MarkMessageAsRead(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	if err := h.msgSvc.MarkMessageAsRead(c.Request.Context(), c.Param("id"), uid); err != nil {
		mapServiceErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "message_id": c.Param("id")})
}

// DeleteMessage handles DELETE /messages/:id.
func (h *Handlers) DeleteMessage(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	if err := h.msgSvc.DeleteMessage(c.Request.Context(), c.Param("id"), uid); err != nil {
		mapServiceErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "message_id": c.Param("id")})
}

// UnreadCount handles GET /messages/unread-count.
func (h *Handlers) UnreadCount(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return
	}

	n, err := h.msgSvc.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		mapServiceErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{UnreadCount: n})
}
