package models

import (
	"sort"
	"time"
	"unicode/utf8"
)

// Conversation groups the ordered messages exchanged within one browser
// session under a single conversation ID. The pair (SessionID,
// ConversationID) is unique across all stored conversations.
type Conversation struct {
	SessionID      string    `db:"session_id"`
	ConversationID string    `db:"conversation_id"`
	Messages       []Message `db:"messages"` // Stored as JSONB
	Title          string    `db:"title"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// previewLen is how many runes of the last message a summary exposes.
const previewLen = 100

// TrimMessages enforces the per-conversation message cap: when the
// conversation holds more than maxMessages entries, the oldest non-system
// messages are dropped first. System messages are never trimmed, and the
// retained messages keep their original order. When system messages alone
// reach the cap the retained-other count clamps to zero rather than failing
// the append.
func TrimMessages(messages []Message, maxMessages int) []Message {
	if maxMessages <= 0 || len(messages) <= maxMessages {
		return messages
	}

	systemCount := 0
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			systemCount++
		}
	}

	keep := maxMessages - systemCount
	if keep < 0 {
		keep = 0
	}

	// Drop the oldest (len(other) - keep) non-system messages, preserving
	// the order of everything retained.
	drop := len(messages) - systemCount - keep
	trimmed := make([]Message, 0, systemCount+keep)
	for _, msg := range messages {
		if msg.Role != RoleSystem && drop > 0 {
			drop--
			continue
		}
		trimmed = append(trimmed, msg)
	}
	return trimmed
}

// SortedMessages returns the conversation's messages ordered by timestamp
// ascending, optionally truncated to the most recent limit entries.
// A limit <= 0 means no limit.
func (c *Conversation) SortedMessages(limit int) []Message {
	messages := make([]Message, len(c.Messages))
	copy(messages, c.Messages)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages
}

// Summary produces the listing view of a conversation: identifier, title
// (with a fallback for untitled conversations), timestamps, message count
// and a preview of the last message.
func (c *Conversation) Summary() ConversationSummary {
	summary := ConversationSummary{
		ConversationID: c.ConversationID,
		Title:          c.Title,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		MessageCount:   len(c.Messages),
		LastMessage:    "No messages",
	}
	if summary.Title == "" {
		summary.Title = "Untitled Conversation"
	}
	if len(c.Messages) > 0 {
		last := c.Messages[len(c.Messages)-1].Content
		if utf8.RuneCountInString(last) > previewLen {
			last = string([]rune(last)[:previewLen])
		}
		summary.LastMessage = last + "..."
	}
	return summary
}
