package llm

import (
	"context"
	"fmt"
)

var _ Client = (*MockClient)(nil)

// MockClient is a deterministic Client for tests and local development.
// It echoes the last user message unless a canned reply or error is set.
type MockClient struct {
	Reply string
	Err   error
	Calls [][]Message
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(_ context.Context, messages []Message) (string, Usage, error) {
	m.Calls = append(m.Calls, messages)

	if m.Err != nil {
		return "", Usage{}, m.Err
	}

	reply := m.Reply
	if reply == "" {
		last := ""
		for _, msg := range messages {
			if msg.Role == "user" {
				last = msg.Content
			}
		}
		reply = fmt.Sprintf("You said: %q", last)
	}

	return reply, Usage{PromptTokens: len(messages), CompletionTokens: 1, TotalTokens: len(messages) + 1}, nil
}
