package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized is returned when the provider rejects the configured credentials
	ErrUnauthorized = errors.New("provider rejected the API key")

	// ErrRateLimited is returned when the provider quota is exhausted or requests are throttled
	ErrRateLimited = errors.New("provider quota exceeded or rate limited")

	// ErrContentFiltered is returned when the provider blocked the prompt or the completion
	ErrContentFiltered = errors.New("content blocked by provider safety filters")

	// ErrEmptyResponse is returned when the provider answered without any completion
	ErrEmptyResponse = errors.New("provider returned no completion")
)

// LLMProvider defines the interface for LLM providers
type LLMProvider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single-turn prompt and returns the model's answer
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Close cleans up resources
	Close() error
}

// CompletionRequest contains the prompt and sampling settings for one completion
type CompletionRequest struct {
	Prompt      string   // User prompt
	System      string   // Optional system instruction
	Temperature *float64 // Overrides the provider default when set
	MaxTokens   int      // 0 leaves the limit to the provider
}

// CompletionResponse contains the model output and usage information
type CompletionResponse struct {
	Content          string // Completion text
	Model            string // Model that produced the completion
	FinishReason     string // e.g. "stop", "length"
	PromptTokens     int
	CompletionTokens int
}
