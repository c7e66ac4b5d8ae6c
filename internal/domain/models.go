// Package domain defines the persistence models for the communications core
// of the platform: conversation threads, messages, read receipts, call logs,
// and audit events. These types are mapped with GORM and form the data layer
// shared by the messaging and call-log services.
package domain

import (
	"time"
)

// Message type values accepted by the messaging service.
const (
	MessageTypeText       = "text"
	MessageTypeFile       = "file"
	MessageTypeAttachment = "attachment"
)

// Call type values. The type describes the log's perspective and is fixed at
// creation.
const (
	CallTypeInbound  = "inbound"
	CallTypeOutbound = "outbound"
	CallTypeMissed   = "missed"
)

// Call lifecycle status values. "completed", "missed", and "failed" are
// terminal by convention only; no transition table is enforced.
const (
	CallStatusInitiated = "initiated"
	CallStatusRinging   = "ringing"
	CallStatusAnswered  = "answered"
	CallStatusMissed    = "missed"
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
)

// User is a row in the identity subsystem's users table. This core reads it
// for role resolution and display enrichment and never mutates it.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Email: display attributes joined into conversation and call
//     listings.
//   - Role: one of the platform roles ("supplier", "retailer", "sales_rep").
//     Role checks re-read this column on every call, so a role change takes
//     effect on the next operation.
type User struct {
	ID        string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"  gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Role      string    `json:"role"  gorm:"type:varchar(32);not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ConversationThread is the single conversation between an unordered pair of
// users. The pair is stored in canonical order (lexically smaller id in
// UserAID) so that (A,B) and (B,A) resolve to the same row; the unique index
// on the pair is the sole guard against duplicate threads under concurrent
// first contact.
//
// Threads are created lazily on first message and never deleted by this core.
type ConversationThread struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserAID       string    `json:"user_a_id"       gorm:"type:char(36);not null;index;uniqueIndex:ux_threads_pair,priority:1"`
	UserBID       string    `json:"user_b_id"       gorm:"type:char(36);not null;index;uniqueIndex:ux_threads_pair,priority:2"`
	LastMessageAt time.Time `json:"last_message_at" gorm:"not null;index:idx_threads_last_message"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	UserA User `json:"-" gorm:"foreignKey:UserAID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	UserB User `json:"-" gorm:"foreignKey:UserBID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ConversationThread.
func (ConversationThread) TableName() string { return "conversation_threads" }

// Message is a single message inside a thread. Content is immutable after
// creation; only the read and per-viewer delete flags are ever updated.
//
// Soft delete is per viewer: DeletedBySender hides the row from the sender's
// views only, and DeletedByRecipient from the recipient's only. Once both
// flags are set the row is retained for audit but excluded from both
// parties' views.
type Message struct {
	ID                 string     `json:"id"              gorm:"type:char(36);primaryKey"`
	ThreadID           string     `json:"thread_id"       gorm:"type:char(36);not null;index:idx_messages_thread,priority:1"`
	SenderID           string     `json:"sender_id"       gorm:"type:char(36);not null;index"`
	RecipientID        string     `json:"recipient_id"    gorm:"type:char(36);not null;index"`
	MessageType        string     `json:"message_type"    gorm:"type:varchar(16);not null;default:'text';check:message_type IN ('text','file','attachment')"`
	Content            string     `json:"content"         gorm:"type:text;not null"`
	AttachmentURL      string     `json:"attachment_url,omitempty"  gorm:"type:text"`
	AttachmentName     string     `json:"attachment_name,omitempty" gorm:"type:varchar(255)"`
	IsRead             bool       `json:"is_read"         gorm:"not null;default:false;index"`
	ReadAt             *time.Time `json:"read_at,omitempty"`
	DeletedBySender    bool       `json:"-" gorm:"not null;default:false"`
	DeletedByRecipient bool       `json:"-" gorm:"not null;default:false"`
	CreatedAt          time.Time  `json:"created_at" gorm:"index:idx_messages_thread,priority:2"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Thread is the owning conversation. Messages are cascade-deleted if
	// their thread is removed.
	Thread ConversationThread `json:"-" gorm:"foreignKey:ThreadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageReadStatus is an idempotent marker that a user has read a message.
// It is supplementary to Message.IsRead/ReadAt; the (message, user) unique
// index makes repeated inserts no-ops.
type MessageReadStatus struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string    `json:"message_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_read_status_message_user,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_read_status_message_user,priority:2"`
	ReadAt    time.Time `json:"read_at"    gorm:"not null"`

	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MessageReadStatus.
func (MessageReadStatus) TableName() string { return "message_read_status" }

// CallLog records one call between two users. CallType is fixed at creation;
// Status, Duration, EndTime, and Notes are overwritten by later lifecycle
// updates without transition validation.
type CallLog struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	CallerID    string     `json:"caller_id"    gorm:"type:char(36);not null;index"`
	RecipientID string     `json:"recipient_id" gorm:"type:char(36);not null;index"`
	CallType    string     `json:"call_type"    gorm:"type:varchar(16);not null;index;check:call_type IN ('inbound','outbound','missed')"`
	Status      string     `json:"status"       gorm:"type:varchar(16);not null;default:'initiated';index;check:status IN ('initiated','ringing','answered','missed','completed','failed')"`
	Duration    int        `json:"duration"     gorm:"not null;default:0"` // seconds
	StartTime   time.Time  `json:"start_time"   gorm:"not null;index:idx_call_logs_start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Notes       string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for CallLog.
func (CallLog) TableName() string { return "call_logs" }

// AuditEvent is a fire-and-forget record of a mutating action. Writes are
// best-effort: a failed audit insert is logged by the caller and never fails
// the triggering operation.
type AuditEvent struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	ActorID      string    `json:"actor_id"      gorm:"type:char(36);not null;index"`
	Action       string    `json:"action"        gorm:"type:varchar(64);not null;index"`
	ResourceType string    `json:"resource_type" gorm:"type:varchar(64);not null"`
	ResourceID   string    `json:"resource_id"   gorm:"type:char(36);not null;index"`
	Metadata     string    `json:"metadata,omitempty" gorm:"type:text"` // JSON object, may be empty
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for AuditEvent.
func (AuditEvent) TableName() string { return "audit_events" }
