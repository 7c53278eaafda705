package models

import (
	"time"
)

// --- Request Structs ---

// ChatRequest defines the expected body for the send-message endpoint.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// --- Response Structs ---

// Usage reports token consumption for a single completion.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ChatResponse defines the response body for a successful send-message call.
type ChatResponse struct {
	Response       string    `json:"response"`
	ConversationID string    `json:"conversationId"`
	Timestamp      time.Time `json:"timestamp"`
	Usage          Usage     `json:"usage"`
}

// HistoryResponse defines the response body for the chat-history endpoint.
type HistoryResponse struct {
	Messages       []Message `json:"messages"`
	ConversationID string    `json:"conversationId,omitempty"`
	Count          int       `json:"count"`
}

// ConversationSummary is the listing view of a single conversation.
type ConversationSummary struct {
	ConversationID string    `json:"conversationId"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	MessageCount   int       `json:"messageCount"`
	LastMessage    string    `json:"lastMessage"`
}

// ListConversationsResponse defines the response body for the session
// conversation listing.
type ListConversationsResponse struct {
	Conversations  []ConversationSummary `json:"conversations"`
	CurrentSession string                `json:"currentSession"` // Truncated, never the full session ID
	Count          int                   `json:"count"`
}

// NewConversationResponse defines the response body for minting a new
// conversation.
type NewConversationResponse struct {
	ConversationID string    `json:"conversationId"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// DeleteConversationResponse confirms a conversation deletion.
type DeleteConversationResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// SessionInfoResponse describes the caller's current session state.
// ConversationID is null when the session has no current conversation.
type SessionInfoResponse struct {
	SessionID      string    `json:"sessionId"` // Truncated, never the full session ID
	ConversationID *string   `json:"conversationId"`
	IsNew          bool      `json:"isNew"`
	Timestamp      time.Time `json:"timestamp"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
