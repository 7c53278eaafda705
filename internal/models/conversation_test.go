package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMessages(roles ...string) []Message {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := make([]Message, len(roles))
	for i, role := range roles {
		messages[i] = Message{
			Role:      role,
			Content:   fmt.Sprintf("%s-%d", role, i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
	}
	return messages
}

func TestTrimMessages(t *testing.T) {
	t.Run("under the cap is untouched", func(t *testing.T) {
		messages := makeMessages(RoleSystem, RoleUser, RoleAssistant)
		assert.Equal(t, messages, TrimMessages(messages, 5))
	})

	t.Run("oldest non-system messages dropped first", func(t *testing.T) {
		messages := makeMessages(RoleSystem, RoleUser, RoleAssistant, RoleUser, RoleAssistant)
		trimmed := TrimMessages(messages, 3)

		require.Len(t, trimmed, 3)
		assert.Equal(t, "system-0", trimmed[0].Content)
		assert.Equal(t, "user-3", trimmed[1].Content)
		assert.Equal(t, "assistant-4", trimmed[2].Content)
	})

	t.Run("system messages survive wherever they sit", func(t *testing.T) {
		messages := makeMessages(RoleUser, RoleSystem, RoleUser, RoleUser, RoleSystem, RoleUser)
		trimmed := TrimMessages(messages, 4)

		var systems int
		for _, msg := range trimmed {
			if msg.Role == RoleSystem {
				systems++
			}
		}
		assert.Equal(t, 2, systems)
		require.Len(t, trimmed, 4)
		// Retained messages keep their original order.
		assert.Equal(t, []string{"system-1", "user-3", "system-4", "user-5"},
			[]string{trimmed[0].Content, trimmed[1].Content, trimmed[2].Content, trimmed[3].Content})
	})

	t.Run("retain count clamps to zero when systems fill the cap", func(t *testing.T) {
		messages := makeMessages(RoleSystem, RoleSystem, RoleSystem, RoleUser, RoleAssistant)
		trimmed := TrimMessages(messages, 2)

		// All system messages are kept even above the cap; every non-system
		// message is dropped.
		require.Len(t, trimmed, 3)
		for _, msg := range trimmed {
			assert.Equal(t, RoleSystem, msg.Role)
		}
	})
}

func TestMessageNormalized(t *testing.T) {
	t.Run("timestamp defaults to now", func(t *testing.T) {
		before := time.Now().UTC()
		normalized := Message{Role: RoleUser, Content: "hi"}.Normalized(100)
		after := time.Now().UTC()

		assert.False(t, normalized.Timestamp.Before(before))
		assert.False(t, normalized.Timestamp.After(after))
	})

	t.Run("existing timestamp preserved", func(t *testing.T) {
		ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		normalized := Message{Role: RoleUser, Content: "hi", Timestamp: ts}.Normalized(100)
		assert.Equal(t, ts, normalized.Timestamp)
	})

	t.Run("oversized content truncated", func(t *testing.T) {
		normalized := Message{Role: RoleUser, Content: strings.Repeat("a", 200)}.Normalized(100)
		assert.Len(t, normalized.Content, 100)
	})
}

func TestConversationSummary(t *testing.T) {
	t.Run("empty conversation", func(t *testing.T) {
		conv := &Conversation{ConversationID: "c1"}
		summary := conv.Summary()

		assert.Equal(t, "Untitled Conversation", summary.Title)
		assert.Equal(t, "No messages", summary.LastMessage)
		assert.Equal(t, 0, summary.MessageCount)
	})

	t.Run("preview truncated with ellipsis", func(t *testing.T) {
		conv := &Conversation{
			ConversationID: "c1",
			Title:          "Weather",
			Messages: []Message{
				{Role: RoleUser, Content: "short"},
				{Role: RoleAssistant, Content: strings.Repeat("b", 150)},
			},
		}
		summary := conv.Summary()

		assert.Equal(t, "Weather", summary.Title)
		assert.Equal(t, 2, summary.MessageCount)
		assert.Equal(t, strings.Repeat("b", 100)+"...", summary.LastMessage)
	})
}

func TestSortedMessages(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := &Conversation{
		Messages: []Message{
			{Role: RoleAssistant, Content: "second", Timestamp: base.Add(2 * time.Second)},
			{Role: RoleUser, Content: "first", Timestamp: base},
			{Role: RoleUser, Content: "third", Timestamp: base.Add(4 * time.Second)},
		},
	}

	sorted := conv.SortedMessages(0)
	require.Len(t, sorted, 3)
	assert.Equal(t, "first", sorted[0].Content)
	assert.Equal(t, "second", sorted[1].Content)
	assert.Equal(t, "third", sorted[2].Content)

	limited := conv.SortedMessages(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "second", limited[0].Content)
	assert.Equal(t, "third", limited[1].Content)
}
