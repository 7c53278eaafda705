package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"sessionchat-backend/internal/llm"
	"sessionchat-backend/internal/models"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/pkg/logutil"
)

// ChatService coordinates a chat turn: it validates the inbound message,
// loads prior history, calls the LLM boundary and persists both sides of
// the exchange. It holds no state of its own beyond injected dependencies;
// each request is handled independently.
type ChatService struct {
	store         store.ConversationStore
	llm           llm.Client
	maxMessageLen int
	llmTimeout    time.Duration
}

// NewChatService creates a new ChatService. The LLM client is injected so
// tests can run against a fake boundary.
func NewChatService(convStore store.ConversationStore, llmClient llm.Client, maxMessageLen int, llmTimeout time.Duration) *ChatService {
	return &ChatService{
		store:         convStore,
		llm:           llmClient,
		maxMessageLen: maxMessageLen,
		llmTimeout:    llmTimeout,
	}
}

// NewConversationID mints an opaque conversation identifier.
func (s *ChatService) NewConversationID() string {
	return uuid.NewString()
}

// SendMessage handles one chat turn. When conversationID is empty a new
// conversation is minted; the caller is responsible for persisting the
// returned conversation ID into its session state.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, conversationID, text string) (*models.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > s.maxMessageLen {
		return nil, fmt.Errorf("%w: maximum length is %d characters", ErrMessageTooLong, s.maxMessageLen)
	}

	if conversationID == "" {
		conversationID = s.NewConversationID()
	}

	history, err := s.store.LoadHistory(ctx, sessionID, conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	// Prompt: system instruction, then history in chronological order, then
	// the new user message.
	prompt := make([]llm.Message, 0, len(history)+2)
	prompt = append(prompt, llm.Message{Role: models.RoleSystem, Content: systemPrompt()})
	for _, msg := range history {
		prompt = append(prompt, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	prompt = append(prompt, llm.Message{Role: models.RoleUser, Content: text})

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	reply, usage, err := s.llm.Complete(llmCtx, prompt)
	if err != nil {
		return nil, err
	}

	// Save both the user message and the AI response. These are two separate
	// writes, not one transaction: a crash in between leaves an unanswered
	// user turn in the history, which the next load simply shows as such.
	if _, err := s.store.AppendMessage(ctx, sessionID, conversationID, models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	if _, err := s.store.AppendMessage(ctx, sessionID, conversationID, models.Message{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	log.Printf("[ChatService] Chat completion successful session=%s conversation=%s messageLength=%d tokensUsed=%d",
		logutil.ShortID(sessionID), logutil.ShortID(conversationID), len(text), usage.TotalTokens)

	return &models.ChatResponse{
		Response:       reply,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
		Usage: models.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
	}, nil
}

// GetHistory returns the conversation's messages in chronological order.
// A missing conversation yields an empty history.
func (s *ChatService) GetHistory(ctx context.Context, sessionID, conversationID string) ([]models.Message, error) {
	history, err := s.store.LoadHistory(ctx, sessionID, conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return history, nil
}

// ListConversations returns summaries of the session's conversations, most
// recently updated first.
func (s *ChatService) ListConversations(ctx context.Context, sessionID string) ([]models.ConversationSummary, error) {
	summaries, err := s.store.ListConversations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

// DeleteConversation removes one conversation. Propagates store.ErrNotFound
// when the key does not exist.
func (s *ChatService) DeleteConversation(ctx context.Context, sessionID, conversationID string) error {
	if err := s.store.DeleteConversation(ctx, sessionID, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err // Propagate not found error
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	log.Printf("[ChatService] Conversation deleted session=%s conversation=%s",
		logutil.ShortID(sessionID), logutil.ShortID(conversationID))
	return nil
}

// ClearSession removes all conversations for a session. Idempotent.
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) (int64, error) {
	removed, err := s.store.ClearSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear session conversations: %w", err)
	}
	return removed, nil
}

func systemPrompt() string {
	return fmt.Sprintf("You are a helpful AI assistant. Be concise, accurate, and friendly. "+
		"Current time: %s. "+
		"Keep responses under 500 words unless specifically asked for longer content.",
		time.Now().UTC().Format(time.RFC3339))
}
