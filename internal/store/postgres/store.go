package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessionchat-backend/internal/models"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/pkg/logutil"
)

// Compile-time check to ensure PostgresStore implements store.ConversationStore
var _ store.ConversationStore = (*PostgresStore)(nil)

// PostgresStore persists conversations in a single 'conversations' table,
// one row per (session_id, conversation_id) pair with the ordered message
// array held in a JSONB column (see db/schema.sql).
type PostgresStore struct {
	db     *pgxpool.Pool
	limits store.Limits
}

func NewPostgresStore(db *pgxpool.Pool, limits store.Limits) *PostgresStore {
	return &PostgresStore{db: db, limits: limits}
}

const appendMessage = `-- name: AppendMessage :one
INSERT INTO conversations (session_id, conversation_id, messages, title)
VALUES ($1, $2, jsonb_build_array($3::jsonb), $4)
ON CONFLICT (session_id, conversation_id) DO UPDATE
SET messages   = conversations.messages || $3::jsonb,
    title      = COALESCE(conversations.title, EXCLUDED.title),
    updated_at = NOW()
RETURNING session_id, conversation_id, messages, title, created_at, updated_at;
`

const trimMessages = `-- name: TrimMessages :exec
UPDATE conversations
SET messages = $3, updated_at = NOW()
WHERE session_id = $1 AND conversation_id = $2 AND messages = $4::jsonb;
`

// AppendMessage appends one message to a conversation, creating the
// conversation when the key pair is new. The upsert's atomic array append is
// what keeps two racing appends on the same key from losing an update: both
// land, in commit order. The follow-up trim is a separate write, guarded on
// the exact array the upsert returned; a concurrent append makes the guard
// miss and the trim recomputes from a fresh read instead of overwriting the
// newer array.
func (s *PostgresStore) AppendMessage(ctx context.Context, sessionID, conversationID string, msg models.Message) (*models.Conversation, error) {
	msg = msg.Normalized(s.limits.MaxContentLen)

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("error marshaling message: %w", err)
	}

	// Title candidate only when a user message could become the first one.
	var title *string
	if msg.Role == models.RoleUser {
		t := store.GenerateConversationTitle(msg.Content)
		title = &t
	}

	row := s.db.QueryRow(ctx, appendMessage, sessionID, conversationID, msgJSON, title)

	conv, rawMsgs, err := scanConversation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("ERROR [PostgresStore] AppendMessage: PostgreSQL error for conversation %s: Code=%s, Message=%s",
				logutil.ShortID(conversationID), pgErr.Code, pgErr.Message)
		} else {
			log.Printf("ERROR [PostgresStore] AppendMessage: session=%s conversation=%s: %v",
				logutil.ShortID(sessionID), logutil.ShortID(conversationID), err)
		}
		return nil, fmt.Errorf("database error appending message: %w", err)
	}

	// Trim messages if exceeding the max limit (keep recent messages).
	if s.limits.MaxMessages > 0 && len(conv.Messages) > s.limits.MaxMessages {
		trimmed, err := s.trimConversation(ctx, sessionID, conversationID, conv.Messages, rawMsgs)
		if err != nil {
			log.Printf("ERROR [PostgresStore] AppendMessage: trim failed for conversation %s: %v",
				logutil.ShortID(conversationID), err)
			return nil, err
		}
		conv.Messages = trimmed
	}

	return conv, nil
}

// trimAttempts bounds the re-read loop when trims race with appends.
const trimAttempts = 3

// trimConversation enforces the message cap with a guarded write: the UPDATE
// only matches while the stored array still equals the snapshot the trim was
// computed from, so it cannot erase a message appended in between. A guard
// miss means the array moved; recompute from a fresh read. If the key stays
// contended past trimAttempts the conversation is left over the cap and the
// next append trims it.
func (s *PostgresStore) trimConversation(ctx context.Context, sessionID, conversationID string, messages []models.Message, snapshot []byte) ([]models.Message, error) {
	for attempt := 0; attempt < trimAttempts; attempt++ {
		trimmed := models.TrimMessages(messages, s.limits.MaxMessages)
		trimmedJSON, err := json.Marshal(trimmed)
		if err != nil {
			return nil, fmt.Errorf("error marshaling trimmed messages: %w", err)
		}
		tag, err := s.db.Exec(ctx, trimMessages, sessionID, conversationID, trimmedJSON, snapshot)
		if err != nil {
			return nil, fmt.Errorf("database error trimming conversation: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return trimmed, nil
		}

		row := s.db.QueryRow(ctx, getConversation, sessionID, conversationID)
		conv, raw, err := scanConversation(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Deleted concurrently; nothing left to trim.
				return trimmed, nil
			}
			return nil, fmt.Errorf("database error re-reading conversation for trim: %w", err)
		}
		if len(conv.Messages) <= s.limits.MaxMessages {
			return conv.Messages, nil
		}
		messages, snapshot = conv.Messages, raw
	}

	log.Printf("[PostgresStore] Trim contended for conversation %s, deferring to next append",
		logutil.ShortID(conversationID))
	return messages, nil
}

const getConversation = `-- name: GetConversation :one
SELECT session_id, conversation_id, messages, title, created_at, updated_at
FROM conversations
WHERE session_id = $1 AND conversation_id = $2;
`

// LoadHistory returns the conversation's messages sorted by timestamp
// ascending. A missing conversation (never created, deleted, or already
// expired) yields an empty history, never an error.
func (s *PostgresStore) LoadHistory(ctx context.Context, sessionID, conversationID string, limit int) ([]models.Message, error) {
	row := s.db.QueryRow(ctx, getConversation, sessionID, conversationID)

	conv, _, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Message{}, nil
		}
		log.Printf("ERROR [PostgresStore] LoadHistory: session=%s conversation=%s: %v",
			logutil.ShortID(sessionID), logutil.ShortID(conversationID), err)
		return nil, fmt.Errorf("database error loading history: %w", err)
	}

	return conv.SortedMessages(limit), nil
}

const listConversations = `-- name: ListConversations :many
SELECT session_id, conversation_id, messages, title, created_at, updated_at
FROM conversations
WHERE session_id = $1
ORDER BY updated_at DESC;
`

// ListConversations returns summaries of all the session's conversations,
// most recently updated first.
func (s *PostgresStore) ListConversations(ctx context.Context, sessionID string) ([]models.ConversationSummary, error) {
	rows, err := s.db.Query(ctx, listConversations, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	summaries := []models.ConversationSummary{}
	for rows.Next() {
		conv, _, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning conversation row: %w", err)
		}
		summaries = append(summaries, conv.Summary())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return summaries, nil
}

const deleteConversation = `-- name: DeleteConversation :exec
DELETE FROM conversations
WHERE session_id = $1 AND conversation_id = $2;
`

// DeleteConversation removes exactly one conversation matching the key pair.
// Returns store.ErrNotFound when nothing matched.
func (s *PostgresStore) DeleteConversation(ctx context.Context, sessionID, conversationID string) error {
	tag, err := s.db.Exec(ctx, deleteConversation, sessionID, conversationID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteConversation: session=%s conversation=%s: %v",
			logutil.ShortID(sessionID), logutil.ShortID(conversationID), err)
		return fmt.Errorf("database error deleting conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const clearSession = `-- name: ClearSession :exec
DELETE FROM conversations
WHERE session_id = $1;
`

// ClearSession removes all conversations for a session. Removing zero rows
// is not an error.
func (s *PostgresStore) ClearSession(ctx context.Context, sessionID string) (int64, error) {
	tag, err := s.db.Exec(ctx, clearSession, sessionID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ClearSession: session=%s: %v", logutil.ShortID(sessionID), err)
		return 0, fmt.Errorf("database error clearing session: %w", err)
	}
	return tag.RowsAffected(), nil
}

const deleteExpired = `-- name: DeleteExpired :exec
DELETE FROM conversations
WHERE created_at < $1;
`

// DeleteExpired removes conversations created before the cutoff. Called
// periodically by the expiry sweeper; reads stay correct whether or not the
// sweep has run, since a missing conversation is simply the empty case.
func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteExpired, cutoff)
	if err != nil {
		return 0, fmt.Errorf("database error deleting expired conversations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanConversation scans one conversations row, decoding the JSONB message
// array. The raw array bytes are returned alongside so trims can guard their
// write on the exact stored value.
func scanConversation(row pgx.Row) (*models.Conversation, []byte, error) {
	var (
		conv    models.Conversation
		rawMsgs []byte
		title   *string
	)
	if err := row.Scan(
		&conv.SessionID,
		&conv.ConversationID,
		&rawMsgs,
		&title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(rawMsgs, &conv.Messages); err != nil {
		return nil, nil, fmt.Errorf("error decoding messages: %w", err)
	}
	if title != nil {
		conv.Title = *title
	}
	return &conv, rawMsgs, nil
}
