// Package events defines the domain events published over NATS and the
// publisher that emits them.
package events

import "time"

const (
	SubjectMessageCreated = "message.created"
)

// A MessageCreatedEvent is emitted for every new message. ParentID is
// empty for top-level threads; subscribers use it to detect replies.
type MessageCreatedEvent struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
