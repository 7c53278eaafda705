package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionchat-backend/internal/llm"
	"sessionchat-backend/internal/models"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/internal/store/memory"
)

func newTestService(mock *llm.MockClient) (*ChatService, *memory.ConversationStore) {
	convStore := memory.NewConversationStore(store.Limits{MaxMessages: 50, MaxContentLen: 10000})
	return NewChatService(convStore, mock, 4000, 30*time.Second), convStore
}

func TestSendMessageNewConversation(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.Reply = "Hello! How can I help?"
	svc, _ := newTestService(mock)

	resp, err := svc.SendMessage(ctx, "sess-1", "", "Hi")
	require.NoError(t, err)

	// A conversation identifier is minted when none is provided.
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "Hello! How can I help?", resp.Response)
	assert.NotZero(t, resp.Usage.TotalTokens)

	// Both sides of the exchange are persisted, user first.
	history, err := svc.GetHistory(ctx, "sess-1", resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "Hi", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hello! How can I help?", history[1].Content)
}

func TestSendMessagePromptComposition(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	svc, _ := newTestService(mock)

	first, err := svc.SendMessage(ctx, "sess-1", "", "What is Go?")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, "sess-1", first.ConversationID, "And who made it?")
	require.NoError(t, err)

	require.Len(t, mock.Calls, 2)
	prompt := mock.Calls[1]

	// System instruction first, history in order, the new message last.
	require.Len(t, prompt, 4)
	assert.Equal(t, models.RoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "helpful AI assistant")
	assert.Equal(t, "What is Go?", prompt[1].Content)
	assert.Equal(t, models.RoleAssistant, prompt[2].Role)
	assert.Equal(t, "And who made it?", prompt[3].Content)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	svc, _ := newTestService(mock)

	t.Run("empty message rejected", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, "sess-1", "", "   \n\t ")
		assert.ErrorIs(t, err, ErrMessageEmpty)
	})

	t.Run("oversized message rejected", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, "sess-1", "", strings.Repeat("a", 4001))
		assert.ErrorIs(t, err, ErrMessageTooLong)
	})

	// Neither validation failure reached the LLM boundary.
	assert.Empty(t, mock.Calls)
}

func TestSendMessageInputTrimmed(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	svc, _ := newTestService(mock)

	resp, err := svc.SendMessage(ctx, "sess-1", "", "  Hi  ")
	require.NoError(t, err)

	history, err := svc.GetHistory(ctx, "sess-1", resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Hi", history[0].Content)
}

func TestSendMessageLLMFailureLeavesHistoryEmpty(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.Err = llm.ErrUnavailable
	svc, _ := newTestService(mock)

	_, err := svc.SendMessage(ctx, "sess-1", "conv-1", "Hi")
	assert.ErrorIs(t, err, llm.ErrUnavailable)

	// Nothing was persisted for the failed turn, so the stored state matches
	// what the caller sees after rolling back its optimistic insert.
	history, getErr := svc.GetHistory(ctx, "sess-1", "conv-1")
	require.NoError(t, getErr)
	assert.Empty(t, history)
}

func TestDeleteConversationNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(llm.NewMockClient())

	err := svc.DeleteConversation(ctx, "sess-1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// wrappingStore wraps every DeleteConversation error the way a remote-backed
// store would.
type wrappingStore struct {
	*memory.ConversationStore
}

func (w *wrappingStore) DeleteConversation(ctx context.Context, sessionID, conversationID string) error {
	if err := w.ConversationStore.DeleteConversation(ctx, sessionID, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func TestDeleteConversationWrappedNotFound(t *testing.T) {
	ctx := context.Background()
	convStore := &wrappingStore{memory.NewConversationStore(store.Limits{MaxMessages: 50, MaxContentLen: 10000})}
	svc := NewChatService(convStore, llm.NewMockClient(), 4000, 30*time.Second)

	// Stores are free to wrap the sentinel; it must still surface as not found.
	err := svc.DeleteConversation(ctx, "sess-1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListConversationsOrdering(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(llm.NewMockClient())

	first, err := svc.SendMessage(ctx, "sess-1", "", "Older conversation")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.SendMessage(ctx, "sess-1", "", "Newer conversation")
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second.ConversationID, summaries[0].ConversationID)
	assert.Equal(t, first.ConversationID, summaries[1].ConversationID)
	assert.Equal(t, "Older conversation", summaries[1].Title)
}

func TestClearSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(llm.NewMockClient())

	_, err := svc.SendMessage(ctx, "sess-1", "", "One")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "sess-1", "", "Two")
	require.NoError(t, err)

	removed, err := svc.ClearSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	summaries, err := svc.ListConversations(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
