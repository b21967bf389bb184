// Package state owns the durable, append-only conversation event log. The log
// is the single source of truth for per-session checkpoint flags: derived
// state is computed by scanning events rather than kept in a mutable field, so
// the flag and its audit trail can never diverge.
package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// EventContactInfoExtracted records contact fields pulled out of a turn,
	// with the extraction tier and trigger point in Data.
	EventContactInfoExtracted = "contact_info_extracted"

	// EventContactInfoFlag carries {"waiting": bool}; the most recent one wins.
	// waiting=true pauses the session until the user supplies contact details.
	EventContactInfoFlag = "contact_info_flag_set"

	// EventMessageReceived marks an inbound turn.
	EventMessageReceived = "message_received"
)

// ConversationEvent is one append-only record in a session's event log. Events
// are never mutated or deleted by this subsystem; retention is an external
// concern. Insertion order per session is significant.
type ConversationEvent struct {
	bun.BaseModel `bun:"table:conversation_events,alias:ce" json:"-"`

	ID        int64          `bun:"id,pk,autoincrement" json:"-"`
	EventID   string         `bun:"event_id,notnull" json:"event_id"`
	SessionID string         `bun:"session_id,notnull" json:"session_id"`
	Type      string         `bun:"event_type,notnull" json:"event_type"`
	Data      map[string]any `bun:"data,type:jsonb" json:"data"`
	Timestamp time.Time      `bun:"timestamp,notnull" json:"timestamp"`
}

// NewConversationEvent assigns the event id and a server-side UTC timestamp.
func NewConversationEvent(sessionID, eventType string, data map[string]any, now time.Time) ConversationEvent {
	if data == nil {
		data = map[string]any{}
	}
	return ConversationEvent{
		EventID:   uuid.NewString(),
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		Timestamp: now.UTC(),
	}
}

// FlagData builds the payload for an EventContactInfoFlag event.
func FlagData(waiting bool) map[string]any {
	return map[string]any{"waiting": waiting}
}

// WaitingForContactInfo derives the checkpoint flag from an event history:
// the most recent flag event wins, false when none exists.
func WaitingForContactInfo(events []ConversationEvent) bool {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != EventContactInfoFlag {
			continue
		}
		waiting, _ := events[i].Data["waiting"].(bool)
		return waiting
	}
	return false
}
