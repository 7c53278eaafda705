// Package memory provides an in-memory ConversationStore used by tests and
// local development. The mutex around every operation gives it the same
// atomic append semantics the Postgres store gets from its JSONB upsert.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sessionchat-backend/internal/models"
	"sessionchat-backend/internal/store"
)

var _ store.ConversationStore = (*ConversationStore)(nil)

type key struct {
	sessionID      string
	conversationID string
}

type ConversationStore struct {
	mu            sync.Mutex
	conversations map[key]*models.Conversation
	limits        store.Limits
}

func NewConversationStore(limits store.Limits) *ConversationStore {
	return &ConversationStore{
		conversations: make(map[key]*models.Conversation),
		limits:        limits,
	}
}

func (s *ConversationStore) AppendMessage(_ context.Context, sessionID, conversationID string, msg models.Message) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg = msg.Normalized(s.limits.MaxContentLen)

	k := key{sessionID, conversationID}
	conv, ok := s.conversations[k]
	if !ok {
		conv = &models.Conversation{
			SessionID:      sessionID,
			ConversationID: conversationID,
			CreatedAt:      time.Now().UTC(),
		}
		s.conversations[k] = conv
	}

	conv.Messages = append(conv.Messages, msg)
	if conv.Title == "" && msg.Role == models.RoleUser {
		conv.Title = store.GenerateConversationTitle(msg.Content)
	}
	if s.limits.MaxMessages > 0 && len(conv.Messages) > s.limits.MaxMessages {
		conv.Messages = models.TrimMessages(conv.Messages, s.limits.MaxMessages)
	}
	conv.UpdatedAt = time.Now().UTC()

	return snapshot(conv), nil
}

func (s *ConversationStore) LoadHistory(_ context.Context, sessionID, conversationID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[key{sessionID, conversationID}]
	if !ok {
		return []models.Message{}, nil
	}
	return conv.SortedMessages(limit), nil
}

func (s *ConversationStore) ListConversations(_ context.Context, sessionID string) ([]models.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := []models.ConversationSummary{}
	for k, conv := range s.conversations {
		if k.sessionID == sessionID {
			summaries = append(summaries, conv.Summary())
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *ConversationStore) DeleteConversation(_ context.Context, sessionID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{sessionID, conversationID}
	if _, ok := s.conversations[k]; !ok {
		return store.ErrNotFound
	}
	delete(s.conversations, k)
	return nil
}

func (s *ConversationStore) ClearSession(_ context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for k := range s.conversations {
		if k.sessionID == sessionID {
			delete(s.conversations, k)
			removed++
		}
	}
	return removed, nil
}

func (s *ConversationStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for k, conv := range s.conversations {
		if conv.CreatedAt.Before(cutoff) {
			delete(s.conversations, k)
			removed++
		}
	}
	return removed, nil
}

// snapshot copies the conversation so callers never share the store's
// internal message slice.
func snapshot(conv *models.Conversation) *models.Conversation {
	out := *conv
	out.Messages = make([]models.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return &out
}
