// Package llm wraps the chat-completion providers used to classify free text.
package llm

import (
	"context"
)

// Message roles accepted in CompletionRequest.Messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest is a single short, deterministic completion. System holds
// the instructions; Messages holds the conversation turns.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage is one conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse is the text a provider returned plus usage data for logs.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is implemented by each provider.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name is used as the provider label in metrics and logs.
	Name() string
}

// Provider selects an implementation in NewClient.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// defaultMaxTokens fits a one-word answer.
const defaultMaxTokens = 16

// NewClient creates a client for provider. Unknown providers get Anthropic.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}
