package provider

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/unalkalkan/QuizForge/pkg/types"
)

var questionCountPattern = regexp.MustCompile(`(?i)exactly (\d+) multiple choice questions`)

// StubLLMProvider answers quiz prompts with a fixed, well-formed quiz so the
// service can run without network access or credentials
type StubLLMProvider struct {
	name   string
	config types.LLMProviderConfig
}

// NewStubLLMProvider creates a new stub LLM provider
func NewStubLLMProvider(config types.LLMProviderConfig) *StubLLMProvider {
	return &StubLLMProvider{
		name:   config.Name,
		config: config,
	}
}

func (s *StubLLMProvider) Name() string {
	return s.name
}

// Complete returns a JSON quiz with as many questions as the prompt asks for,
// defaulting to five
func (s *StubLLMProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count := 5
	if m := questionCountPattern.FindStringSubmatch(req.Prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			count = n
		}
	}

	answers := []string{"A", "B", "C", "D"}
	var sb strings.Builder
	sb.WriteString("[")
	for i := 1; i <= count; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"question":"Sample question %d?","options":{"A":"Option A","B":"Option B","C":"Option C","D":"Option D"},"correct_answer":"%s"}`,
			i, answers[(i-1)%len(answers)])
	}
	sb.WriteString("]")

	return &CompletionResponse{
		Content:      sb.String(),
		Model:        "stub",
		FinishReason: "stop",
	}, nil
}

func (s *StubLLMProvider) Close() error {
	return nil
}
