package models

import (
	"time"
	"unicode/utf8"
)

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
// This structure is what's stored in the JSONB messages field of the
// 'conversations' table. Once appended to a conversation it is never
// mutated; messages only disappear when the whole conversation is deleted.
type Message struct {
	Role      string    `json:"role"`      // "user", "assistant" or "system"
	Content   string    `json:"content"`   // The text content of the message
	Timestamp time.Time `json:"timestamp"` // Time the message was recorded
}

// Normalized returns a copy of the message ready for persistence: the
// timestamp defaults to now when unset and the content is truncated to
// maxContentLen runes. Stores apply this before every write, so schema-level
// hooks are not needed.
func (m Message) Normalized(maxContentLen int) Message {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if maxContentLen > 0 && utf8.RuneCountInString(m.Content) > maxContentLen {
		m.Content = string([]rune(m.Content)[:maxContentLen])
	}
	return m
}
