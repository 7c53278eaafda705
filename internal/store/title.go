package store

import (
	"strings"
	"unicode/utf8"
)

const maxTitleLen = 50

// GenerateConversationTitle derives a short human-readable title from the
// first user message of a conversation. It is deterministic and has no side
// effects: short content is used as-is, longer content falls back to the
// first sentence and then to a word-boundary truncation.
func GenerateConversationTitle(content string) string {
	cleanContent := strings.TrimSpace(content)

	if utf8.RuneCountInString(cleanContent) <= maxTitleLen {
		return cleanContent
	}

	// Try to find a sentence break.
	if idx := strings.IndexAny(cleanContent, ".!?"); idx >= 0 {
		sentence := cleanContent[:idx]
		if sentence != "" && utf8.RuneCountInString(sentence) <= maxTitleLen {
			return strings.TrimSpace(sentence)
		}
	}

	// Fall back to truncating at a word boundary.
	var title string
	for _, word := range strings.Split(cleanContent, " ") {
		if utf8.RuneCountInString(title+" "+word) > maxTitleLen {
			break
		}
		if title != "" {
			title += " "
		}
		title += word
	}

	if title == "" {
		return "New Conversation"
	}
	return title
}
