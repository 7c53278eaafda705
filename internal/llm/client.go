// Package llm wraps the external chat-completion provider behind a small
// client interface so the chat service can be exercised with a fake in
// tests. Provider failures are mapped onto the sentinel errors below; the
// caller decides how each surfaces to end users.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the provider was unreachable or timed out.
	// Callers surface it with a retry-later signal; no retry happens here.
	ErrUnavailable = errors.New("llm service unavailable")

	// ErrRateLimited indicates the provider rejected the call for rate
	// limiting.
	ErrRateLimited = errors.New("llm rate limit exceeded")

	// ErrAuth indicates the provider rejected our credentials. Details are
	// logged internally and must never reach end users.
	ErrAuth = errors.New("llm authentication failed")
)

// Message is one entry of the prompt sent to the provider.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// Usage reports token consumption for one completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the boundary to the chat-completion provider.
type Client interface {
	// Complete sends the prompt and returns the assistant reply plus token
	// usage. The context carries the caller's timeout.
	Complete(ctx context.Context, messages []Message) (string, Usage, error)
}
