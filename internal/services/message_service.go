// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the messaging lifecycle: validation, policy checks, sanitization,
// thread resolution, persistence, and read/delete state. Each operation is
// a short-lived sequence of store calls; there is no in-memory state
// between calls and no cross-step transaction (the thread timestamp bump
// and the audit emission are explicitly best-effort).
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the acting user and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/domain"
	"github.com/supplylink/comms-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultConversationPageSize = 20
	defaultMessagePageSize      = 50
)

// Conversation is one row of a user's conversation listing: the thread,
// the other participant, the unread badge, and a snapshot of the latest
// message.
type Conversation struct {
	ThreadID           string     `json:"thread_id"`
	LastMessageAt      time.Time  `json:"last_message_at"`
	OtherUserID        string     `json:"other_user_id"`
	OtherUserName      string     `json:"other_user_name"`
	OtherUserRole      string     `json:"other_user_role"`
	OtherUserEmail     string     `json:"other_user_email"`
	UnreadCount        int64      `json:"unread_count"`
	LastMessageContent string     `json:"last_message_content,omitempty"`
	LastMessageTime    *time.Time `json:"last_message_time,omitempty"`
}

// ThreadMessage is one row of a thread listing, enriched with the sender's
// display attributes so clients can render messages without a second
// lookup.
type ThreadMessage struct {
	domain.Message
	SenderName string `json:"sender_name"`
	SenderRole string `json:"sender_role"`
}

// MessageService coordinates message persistence and retrieval.
// MaxContentBytes bounds the sanitized content length; zero means no bound.
type MessageService struct {
	DB              *gorm.DB
	Audit           Recorder
	MaxContentBytes int
}

// SendMessage validates, authorizes, sanitizes, and persists a message,
// resolving (or lazily creating) the thread for the pair. The thread's
// last_message_at refresh is best-effort: its failure is logged and the
// send still succeeds. Returns the persisted message with server-assigned
// id and timestamp.
func (s *MessageService) SendMessage(ctx context.Context, senderID, recipientID, content, msgType, attachmentURL, attachmentName string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "SendMessage",
		trace.WithAttributes(
			attribute.String("sender.id", senderID),
			attribute.String("recipient.id", recipientID),
			attribute.String("message.type", msgType),
		),
	)
	defer span.End()

	if msgType == "" {
		msgType = domain.MessageTypeText
	}
	if senderID == "" || recipientID == "" || strings.TrimSpace(content) == "" {
		return nil, ErrMissingFields
	}
	switch msgType {
	case domain.MessageTypeText, domain.MessageTypeFile, domain.MessageTypeAttachment:
	default:
		return nil, ErrInvalidMessageType
	}
	if s.MaxContentBytes > 0 && len(content) > s.MaxContentBytes {
		return nil, ErrContentTooLong
	}

	permitted, err := canCommunicate(ctx, s.DB, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !permitted {
		return nil, ErrNotPermitted
	}

	content = sanitizeContent(content)

	thread, err := repo.GetOrCreateThread(ctx, s.DB, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	msg, err := repo.CreateMessage(ctx, s.DB, thread.ID, senderID, recipientID, msgType, content, attachmentURL, attachmentName)
	if err != nil {
		return nil, err
	}

	if terr := repo.TouchThread(ctx, s.DB, thread.ID, time.Now().UTC()); terr != nil {
		log.Warn().Err(terr).Str("thread_id", thread.ID).Msg("thread timestamp update failed")
	}

	recordAudit(ctx, s.Audit, senderID, "send_message", "messages", msg.ID, map[string]any{
		"recipient_id": recipientID,
		"message_type": msgType,
	})

	return msg, nil
}

// GetConversations returns one row per thread involving userID, annotated
// with the other participant, the unread count, and the latest message
// snapshot. Ordered by last_message_at descending, offset = (page-1)*limit.
func (s *MessageService) GetConversations(ctx context.Context, userID string, page, limit int) ([]Conversation, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "GetConversations",
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
	page, limit = normalizePage(page, limit, defaultConversationPageSize)
	offset := (page - 1) * limit

	threads, err := repo.ListThreadsForUserPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Conversation, 0, len(threads))
	for _, t := range threads {
		otherID := t.UserAID
		if otherID == userID {
			otherID = t.UserBID
		}

		conv := Conversation{
			ThreadID:      t.ID,
			LastMessageAt: t.LastMessageAt,
			OtherUserID:   otherID,
		}

		if other, uerr := repo.GetUser(ctx, s.DB, otherID); uerr == nil {
			conv.OtherUserName = other.Name
			conv.OtherUserRole = other.Role
			conv.OtherUserEmail = other.Email
		} else if !errors.Is(uerr, repo.ErrNotFound) {
			return nil, uerr
		}

		unread, cerr := repo.CountUnreadInThread(ctx, s.DB, t.ID, userID)
		if cerr != nil {
			return nil, cerr
		}
		conv.UnreadCount = unread

		if last, lerr := repo.LatestThreadMessage(ctx, s.DB, t.ID); lerr == nil {
			conv.LastMessageContent = last.Content
			lt := last.CreatedAt
			conv.LastMessageTime = &lt
		} else if !errors.Is(lerr, repo.ErrNotFound) {
			return nil, lerr
		}

		out = append(out, conv)
	}
	return out, nil
}

// GetMessageThread returns the messages between the current user and
// another user, newest first, filtered to what the current user may still
// see under per-viewer soft delete, each row carrying the sender's name
// and role. The same access policy as sending applies; a pair with no
// thread yet yields an empty page.
func (s *MessageService) GetMessageThread(ctx context.Context, currentUserID, otherUserID string, page, limit int) ([]ThreadMessage, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "GetMessageThread",
		trace.WithAttributes(
			attribute.String("user.id", currentUserID),
			attribute.String("other_user.id", otherUserID),
			attribute.Int("page", page),
			attribute.Int("limit", limit),
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

	page, limit = normalizePage(page, limit, defaultMessagePageSize)
	offset := (page - 1) * limit

	thread, err := repo.GetThreadByPair(ctx, s.DB, currentUserID, otherUserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return []ThreadMessage{}, nil
		}
		return nil, err
	}

	msgs, err := repo.ListThreadMessagesPage(ctx, s.DB, thread.ID, currentUserID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.enrichThread(ctx, msgs)
}

// enrichThread joins the sender's display attributes onto message rows.
// Unknown senders (deleted accounts) leave the display fields empty rather
// than failing the listing.
func (s *MessageService) enrichThread(ctx context.Context, msgs []domain.Message) ([]ThreadMessage, error) {
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

	out := make([]ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		e := ThreadMessage{Message: m}
		if u := lookup(m.SenderID); u != nil {
			e.SenderName, e.SenderRole = u.Name, u.Role
		}
		out = append(out, e)
	}
	return out, nil
}

// MarkMessageAsRead sets is_read/read_at on a message addressed to userID
// and records the idempotent read-status marker. A message that does not
// exist and a message addressed to someone else are indistinguishable to
// the caller.
func (s *MessageService) MarkMessageAsRead(ctx context.Context, messageID, userID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkMessageAsRead",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if messageID == "" || userID == "" {
		return ErrMissingFields
	}

	if _, err := repo.GetMessageForRecipient(ctx, s.DB, messageID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	now := time.Now().UTC()
	if err := repo.SetMessageRead(ctx, s.DB, messageID, now); err != nil {
		return err
	}

	// Duplicate read signals are expected from multi-tab clients; the
	// unique (message, user) index absorbs them.
	if rerr := repo.InsertReadStatus(ctx, s.DB, messageID, userID, now); rerr != nil {
		log.Warn().Err(rerr).Str("message_id", messageID).Msg("read status insert failed")
	}

	recordAudit(ctx, s.Audit, userID, "mark_message_read", "messages", messageID, nil)
	return nil
}

// DeleteMessage sets the caller-specific soft-delete flag. Sender deletion
// does not hide the message from the recipient and vice versa; the row is
// retained even when both sides have deleted.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "DeleteMessage",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if messageID == "" || userID == "" {
		return ErrMissingFields
	}

	msg, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	var viewerIsSender bool
	switch userID {
	case msg.SenderID:
		viewerIsSender = true
	case msg.RecipientID:
		viewerIsSender = false
	default:
		return ErrNotParticipant
	}

	if err := repo.SetMessageDeletedFor(ctx, s.DB, messageID, viewerIsSender); err != nil {
		return err
	}

	recordAudit(ctx, s.Audit, userID, "delete_message", "messages", messageID, nil)
	return nil
}

// UnreadCount returns the number of unread messages addressed to userID,
// excluding ones the recipient soft-deleted.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "UnreadCount",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if userID == "" {
		return 0, ErrMissingFields
	}
	return repo.CountUnread(ctx, s.DB, userID)
}

// normalizePage applies the defaults shared by all paginated reads.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit
}
