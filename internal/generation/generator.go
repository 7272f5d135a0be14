package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unalkalkan/QuizForge/internal/provider"
	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

// DefaultQuestions is used when the caller does not ask for a count
const DefaultQuestions = 5

var (
	errUnparseable = errors.New("failed to parse quiz JSON: the AI response was not properly formatted")

	answerKeys = []string{"A", "B", "C", "D"}
)

// Result is a generated quiz and what it cost to produce
type Result struct {
	Quiz             types.JSONValue
	Questions        int
	Model            string
	Duration         time.Duration
	PromptTokens     int
	CompletionTokens int
}

// Generator produces multiple-choice quizzes from source text with an LLM provider
type Generator struct {
	provider provider.LLMProvider
	cfg      types.GenerationConfig
	logger   *zap.Logger
}

// NewGenerator creates a generator backed by p
func NewGenerator(p provider.LLMProvider, cfg types.GenerationConfig, logger *zap.Logger) *Generator {
	if cfg.DefaultQuestions <= 0 {
		cfg.DefaultQuestions = DefaultQuestions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		provider: p,
		cfg:      cfg,
		logger:   logger.With(zap.String("provider", p.Name())),
	}
}

// Provider returns the name of the backing provider
func (g *Generator) Provider() string {
	return g.provider.Name()
}

// DefaultQuestions returns the count used when a request leaves it unset
func (g *Generator) DefaultQuestions() int {
	return g.cfg.DefaultQuestions
}

// Generate asks the provider for n questions about text and validates the
// answer. n == 0 selects the configured default. Every error returned is an
// *Error whose message can be shown to users.
func (g *Generator) Generate(ctx context.Context, text string, n int) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput(ErrTextRequired)
	}
	if n == 0 {
		n = g.cfg.DefaultQuestions
	}
	if n < 0 || (g.cfg.MaxQuestions > 0 && n > g.cfg.MaxQuestions) {
		return nil, invalidInput(fmt.Errorf("numberOfQuestions must be between 1 and %d", g.cfg.MaxQuestions))
	}

	g.logger.Info("generating quiz", zap.Int("questions", n), zap.Int("text_length", len(text)))
	start := time.Now()

	resp, err := g.provider.Complete(ctx, provider.CompletionRequest{Prompt: BuildPrompt(text, n)})
	if err != nil {
		g.logger.Error("quiz generation failed", zap.Error(err))
		return nil, userError(g.provider.Name(), err)
	}

	quiz, err := parseQuiz(resp.Content)
	if err != nil {
		g.logger.Error("model returned an invalid quiz",
			zap.Error(err),
			zap.Int("response_length", len(resp.Content)),
			zap.String("response", truncate(resp.Content, 500)))
		return nil, userError(g.provider.Name(), err)
	}

	result := &Result{
		Quiz:             quiz,
		Questions:        len(quiz.Array),
		Model:            resp.Model,
		Duration:         time.Since(start),
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}
	g.logger.Info("quiz generated",
		zap.Int("questions", result.Questions),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Ping sends a trivial prompt to check that the provider is reachable and accepts its credentials
func (g *Generator) Ping(ctx context.Context) error {
	if _, err := g.provider.Complete(ctx, provider.CompletionRequest{Prompt: "Say hello"}); err != nil {
		return fmt.Errorf("provider %s unreachable: %w", g.provider.Name(), err)
	}
	return nil
}

// parseQuiz cleans and decodes a model answer, then checks every question
func parseQuiz(content string) (types.JSONValue, error) {
	quiz, err := types.ParseJSONValue([]byte(CleanResponse(content)))
	if err != nil {
		return types.JSONValue{}, fmt.Errorf("%w: %v", errUnparseable, err)
	}

	if quiz.Kind != types.JSONArray {
		return types.JSONValue{}, malformed("Generated quiz is not in the expected array format")
	}
	if len(quiz.Array) == 0 {
		return types.JSONValue{}, malformed("No questions were generated")
	}

	for i, q := range quiz.Array {
		if err := validateQuestion(i+1, q); err != nil {
			return types.JSONValue{}, err
		}
	}
	return quiz, nil
}

func validateQuestion(num int, q types.JSONValue) error {
	if q.Kind != types.JSONObject ||
		!q.Get("question").Truthy() || !q.Get("options").Truthy() || !q.Get("correct_answer").Truthy() {
		return malformed("Question %d is missing required fields (question, options, or correct_answer)", num)
	}

	options := q.Get("options")
	if options.Kind != types.JSONObject && options.Kind != types.JSONArray {
		return malformed("Question %d does not have all required options (A, B, C, D)", num)
	}
	for _, key := range answerKeys {
		if !options.Get(key).Truthy() {
			return malformed("Question %d does not have all required options (A, B, C, D)", num)
		}
	}

	answer := q.Get("correct_answer")
	if answer.Kind != types.JSONString || !isAnswerKey(answer.String) {
		return malformed("Question %d has invalid correct_answer: %s. Must be A, B, C, or D.", num, answer.Text())
	}
	return nil
}

func isAnswerKey(s string) bool {
	for _, key := range answerKeys {
		if s == key {
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
