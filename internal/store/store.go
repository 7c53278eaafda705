package store

import (
	"context"
	"errors"
	"time"

	"sessionchat-backend/internal/models"
)

// ErrNotFound is returned when a specific conversation is not found.
var ErrNotFound = errors.New("conversation not found")

// Limits carries the storage-level caps applied on every write.
type Limits struct {
	// MaxMessages is the maximum number of messages a conversation may hold
	// after a save completes. Older non-system messages are trimmed first.
	MaxMessages int
	// MaxContentLen is the maximum stored length of a single message's
	// content, in runes. Longer content is truncated on write.
	MaxContentLen int
}

// ConversationStore defines the interface for conversation persistence.
// This allows for mocking in tests and potential DB backend switching.
//
// All operations are keyed by the (sessionID, conversationID) pair, which is
// unique across stored conversations. A missing conversation is never a
// distinct error for reads: LoadHistory returns an empty history whether the
// conversation never existed or was already expired.
type ConversationStore interface {
	// AppendMessage loads or creates the conversation for the key pair,
	// appends the message, sets the title from the first user message when
	// none is set yet, trims the history to the configured cap and persists.
	// Returns the updated conversation.
	AppendMessage(ctx context.Context, sessionID, conversationID string, msg models.Message) (*models.Conversation, error)

	// LoadHistory returns the conversation's messages sorted by timestamp
	// ascending, truncated to the most recent limit entries when limit > 0.
	// A missing conversation yields an empty slice, never an error.
	LoadHistory(ctx context.Context, sessionID, conversationID string, limit int) ([]models.Message, error)

	// ListConversations returns summaries of all the session's conversations
	// sorted by updated_at descending.
	ListConversations(ctx context.Context, sessionID string) ([]models.ConversationSummary, error)

	// DeleteConversation removes exactly one conversation matching the key.
	// Returns ErrNotFound when nothing matched.
	DeleteConversation(ctx context.Context, sessionID, conversationID string) error

	// ClearSession removes all conversations for a session and reports how
	// many were removed. Removing zero is not an error.
	ClearSession(ctx context.Context, sessionID string) (int64, error)

	// DeleteExpired removes conversations created before the cutoff and
	// reports how many were removed. Drives the TTL expiry sweep.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
