package domain

import "testing"

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():               "users",
		ConversationThread{}.TableName(): "conversation_threads",
		Message{}.TableName():            "messages",
		MessageReadStatus{}.TableName():  "message_read_status",
		CallLog{}.TableName():            "call_logs",
		AuditEvent{}.TableName():         "audit_events",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("table name %q, want %q", got, want)
		}
	}
}

func TestLifecycleConstants(t *testing.T) {
	if MessageTypeText != "text" || MessageTypeFile != "file" || MessageTypeAttachment != "attachment" {
		t.Fatal("message type constants changed")
	}
	if CallTypeInbound != "inbound" || CallTypeOutbound != "outbound" || CallTypeMissed != "missed" {
		t.Fatal("call type constants changed")
	}
	if CallStatusInitiated != "initiated" || CallStatusCompleted != "completed" {
		t.Fatal("call status constants changed")
	}
}
