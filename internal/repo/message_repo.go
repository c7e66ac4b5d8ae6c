// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model and its read-status markers.
//
// Error semantics follow the rest of the package: a missing row surfaces as
// gorm.ErrRecordNotFound (aliased as ErrNotFound); other DB errors are
// propagated raw. Visibility rules (per-viewer soft delete) are encoded in
// the query predicates here so every caller sees the same view of a thread.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/supplylink/comms-backend/internal/domain"
)

// CreateMessage inserts a new message row. The ID is a generated UUID and
// CreatedAt is set to UTC. Content must already be sanitized by the caller.
func CreateMessage(ctx context.Context, db *gorm.DB, threadID, senderID, recipientID, msgType, content, attachmentURL, attachmentName string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		ThreadID:       threadID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		MessageType:    msgType,
		Content:        content,
		AttachmentURL:  attachmentURL,
		AttachmentName: attachmentName,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by ID regardless of viewer.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessageForRecipient fetches a message by ID only when userID is its
// recipient. Used by the read path, which reports a combined
// not-found-or-unauthorized result.
func GetMessageForRecipient(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListThreadMessagesPage returns the messages of a thread visible to
// viewerID, newest first. A message is visible to its sender while
// deleted_by_sender is unset and to its recipient while
// deleted_by_recipient is unset.
func ListThreadMessagesPage(ctx context.Context, db *gorm.DB, threadID, viewerID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Where("(sender_id = ? AND deleted_by_sender = ?) OR (recipient_id = ? AND deleted_by_recipient = ?)",
			viewerID, false, viewerID, false).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetMessageRead flips is_read and stamps read_at on a message.
func SetMessageRead(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InsertReadStatus records that userID has read messageID. The insert is
// idempotent: a duplicate (message, user) pair is ignored, not an error.
func InsertReadStatus(ctx context.Context, db *gorm.DB, messageID, userID string, at time.Time) error {
	rs := &domain.MessageReadStatus{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    at,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(rs).Error
}

// SetMessageDeletedFor flips the viewer-specific soft-delete flag. Sender
// deletion does not hide the message from the recipient and vice versa.
func SetMessageDeletedFor(ctx context.Context, db *gorm.DB, id string, viewerIsSender bool) error {
	column := "deleted_by_recipient"
	if viewerIsSender {
		column = "deleted_by_sender"
	}
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Update(column, true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUnread uses a raw COUNT so a missing table surfaces as an error.
// Soft-deleted-by-recipient rows are excluded: the recipient removed them
// from their view, so they should not keep a badge alive.
func CountUnread(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND is_read = ? AND deleted_by_recipient = ?",
			userID, false, false).
		Scan(&total).Error
	return total, err
}

// CountUnreadInThread is the per-conversation variant of CountUnread.
func CountUnreadInThread(ctx context.Context, db *gorm.DB, threadID, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("thread_id = ? AND recipient_id = ? AND is_read = ? AND deleted_by_recipient = ?",
			threadID, userID, false, false).
		Count(&total).Error
	return total, err
}

// LatestThreadMessage returns the most recent message of a thread without
// visibility filtering (the snapshot shown in conversation listings).
// Returns ErrNotFound for an empty thread.
func LatestThreadMessage(ctx context.Context, db *gorm.DB, threadID string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListThreadsForUserPage returns threads involving userID ordered by
// last_message_at descending, paginated.
func ListThreadsForUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ConversationThread, error) {
	var out []domain.ConversationThread
	err := db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
