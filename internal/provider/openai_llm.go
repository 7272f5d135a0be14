package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// OpenAILLMProvider implements LLMProvider against any OpenAI-compatible
// chat completions API (OpenAI, Gemini's compatibility endpoint, Ollama, vLLM)
type OpenAILLMProvider struct {
	name   string
	config types.LLMProviderConfig
	client openai.Client
	logger *zap.Logger
}

// NewOpenAILLMProvider creates a new OpenAI-compatible LLM provider
func NewOpenAILLMProvider(config types.LLMProviderConfig, logger *zap.Logger) (*OpenAILLMProvider, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI LLM provider")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI LLM provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := defaultTimeout
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	opts := []option.RequestOption{
		option.WithBaseURL(config.Endpoint),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(max(config.MaxRetries, 0)),
	}
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	} else {
		// Local backends such as Ollama ignore the key but the SDK requires one
		opts = append(opts, option.WithAPIKey("unused"))
	}

	return &OpenAILLMProvider{
		name:   config.Name,
		config: config,
		client: openai.NewClient(opts...),
		logger: logger.With(zap.String("provider", config.Name)),
	}, nil
}

func (o *OpenAILLMProvider) Name() string {
	return o.name
}

// Complete calls the chat completions endpoint with a single user message
func (o *OpenAILLMProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.config.Model),
		Messages: messages,
	}
	switch {
	case req.Temperature != nil:
		params.Temperature = openai.Float(*req.Temperature)
	case o.config.Temperature != nil:
		params.Temperature = openai.Float(*o.config.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	o.logger.Debug("sending completion request",
		zap.String("model", o.config.Model),
		zap.Int("prompt_length", len(req.Prompt)),
		zap.String("prompt", truncateForLog(req.Prompt, 500)))

	start := time.Now()
	completion, err := o.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		o.logger.Warn("completion request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, classifyError(err)
	}

	if len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := completion.Choices[0]
	o.logger.Debug("completion received",
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int64("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int64("completion_tokens", completion.Usage.CompletionTokens),
		zap.String("content", truncateForLog(choice.Message.Content, 500)))

	if choice.FinishReason == "content_filter" {
		return nil, ErrContentFiltered
	}

	return &CompletionResponse{
		Content:          choice.Message.Content,
		Model:            completion.Model,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
	}, nil
}

func (o *OpenAILLMProvider) Close() error {
	return nil
}

// classifyError maps API failures onto the package sentinels so callers can
// branch on them without knowing the SDK
func classifyError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("failed to call LLM API: %w", err)
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	case apiErr.StatusCode == http.StatusBadRequest && isKeyMessage(apiErr.Message):
		// Gemini reports an invalid key as 400 INVALID_ARGUMENT
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	}
	return fmt.Errorf("API error (status %d): %s", apiErr.StatusCode, apiErr.Message)
}

func isKeyMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "api key") || strings.Contains(lower, "api_key")
}

// truncateForLog truncates a string for logging purposes
func truncateForLog(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
