package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateConversationTitle(t *testing.T) {
	t.Run("short content returned as-is", func(t *testing.T) {
		assert.Equal(t, "Hello there", GenerateConversationTitle("Hello there"))
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		assert.Equal(t, "Hello there", GenerateConversationTitle("   Hello there \n"))
	})

	t.Run("exactly fifty characters returned unchanged", func(t *testing.T) {
		content := strings.Repeat("a", 50)
		assert.Equal(t, content, GenerateConversationTitle(content))
	})

	t.Run("first sentence used when short enough", func(t *testing.T) {
		content := "Hello. How are you today please respond quickly with more details"
		assert.Equal(t, "Hello", GenerateConversationTitle(content))
	})

	t.Run("question mark terminates a sentence", func(t *testing.T) {
		content := "What is the capital of France? I have been wondering about it for a while now"
		assert.Equal(t, "What is the capital of France", GenerateConversationTitle(content))
	})

	t.Run("falls back to word boundary when first sentence too long", func(t *testing.T) {
		content := "This opening sentence is definitely much longer than fifty characters in total. Second."
		got := GenerateConversationTitle(content)
		assert.LessOrEqual(t, len(got), 50)
		assert.True(t, strings.HasPrefix(content, got))
		// Never cuts a word in half.
		assert.Equal(t, "This opening sentence is definitely much longer", got)
	})

	t.Run("single long word yields the fallback title", func(t *testing.T) {
		content := strings.Repeat("x", 80)
		assert.Equal(t, "New Conversation", GenerateConversationTitle(content))
	})
}
