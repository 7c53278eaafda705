package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Completion parameters, matching what the chat UI was tuned against.
const (
	completionMaxTokens   = 1000
	completionTemperature = 0.7
	completionTopP        = 0.9
)

var _ Client = (*OpenAIClient)(nil)

// OpenAIClient talks to an OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// OpenAIConfig holds the provider connection settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional override for OpenAI-compatible endpoints
	Model   string
}

// NewOpenAIClient creates a provider client. The base URL override allows
// pointing at any OpenAI-compatible deployment.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// Complete sends the prompt and returns the assistant reply and token usage.
// An empty choices list is a provider failure, never an empty reply.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, Usage, error) {
	req := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:        completionMaxTokens,
		Temperature:      completionTemperature,
		TopP:             completionTopP,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", Usage{}, mapProviderError(err)
	}

	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("%w: no completion choices returned", ErrUnavailable)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// mapProviderError folds provider failures into the package sentinels.
// Credential failures are logged with full detail here and surfaced as a
// bare ErrAuth so nothing sensitive leaks outward.
func mapProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			log.Printf("ERROR [OpenAIClient] Authentication failure (status %d): %v", apiErr.HTTPStatusCode, apiErr)
			return ErrAuth
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, apiErr.Message)
		}
		if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: provider returned status %d", ErrUnavailable, apiErr.HTTPStatusCode)
		}
		return fmt.Errorf("completion request failed: %w", err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: request timed out", ErrUnavailable)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, opErr)
	}

	return fmt.Errorf("completion request failed: %w", err)
}
