package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/unalkalkan/QuizForge/internal/formatter"
	"github.com/unalkalkan/QuizForge/internal/generation"
	"github.com/unalkalkan/QuizForge/internal/parser"
	"github.com/unalkalkan/QuizForge/internal/upload"
	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

// QuizHandler handles quiz generation, formatting and export endpoints
type QuizHandler struct {
	uploads       *upload.Service
	extractor     *parser.Extractor
	generator     *generation.Generator
	minTextLength int
	maxBodyBytes  int64
	logger        *zap.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(
	uploads *upload.Service,
	extractor *parser.Extractor,
	generator *generation.Generator,
	cfg *types.Config,
	logger *zap.Logger,
) *QuizHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	return &QuizHandler{
		uploads:       uploads,
		extractor:     extractor,
		generator:     generator,
		minTextLength: cfg.Generation.MinTextLength,
		maxBodyBytes:  maxBody,
		logger:        logger,
	}
}

type generateResponse struct {
	Success  bool         `json:"success"`
	Quiz     any          `json:"quiz"`
	Metadata quizMetadata `json:"metadata"`
}

type quizMetadata struct {
	Filename           string `json:"filename,omitempty"`
	TextLength         int    `json:"textLength"`
	QuestionsGenerated int    `json:"questionsGenerated"`
	ProcessingTime     int64  `json:"processingTime,omitempty"` // ms spent extracting text
	GenerationTime     int64  `json:"generationTime"`           // ms spent in the provider
	Provider           string `json:"provider"`
	Model              string `json:"model,omitempty"`
}

type textRequest struct {
	Text              types.JSONValue `json:"text"`
	NumberOfQuestions types.JSONValue `json:"numberOfQuestions"`
	Questions         types.JSONValue `json:"questions"`
}

type formatRequest struct {
	Quiz types.JSONValue `json:"quiz"`
}

type formatResponse struct {
	Success bool                `json:"success"`
	Quiz    []types.DisplayItem `json:"quiz"`
}

type exportRequest struct {
	Quiz      types.JSONValue `json:"quiz"`
	Format    types.JSONValue `json:"format"`
	Delimiter types.JSONValue `json:"delimiter"`
}

// GenerateFromPDF handles POST /api/quiz/generate-from-pdf
func (h *QuizHandler) GenerateFromPDF(w http.ResponseWriter, r *http.Request) {
	h.generateFromUpload(w, r, false, "pdf", "file")
}

// LegacyGenerate handles POST /api/quiz/generate and answers with the quiz as generated
func (h *QuizHandler) LegacyGenerate(w http.ResponseWriter, r *http.Request) {
	h.generateFromUpload(w, r, true, "file", "pdf")
}

func (h *QuizHandler) generateFromUpload(w http.ResponseWriter, r *http.Request, legacy bool, fields ...string) {
	file, err := h.uploads.FromRequest(r, fields...)
	if err != nil {
		h.fail(w, "upload failed", err)
		return
	}

	start := time.Now()
	text, err := h.extractor.Extract(r.Context(), file.Key)
	if err != nil {
		h.fail(w, "text extraction failed", err)
		return
	}
	extraction := time.Since(start)

	text, err = parser.ValidateText(text, h.minTextLength)
	if err != nil {
		h.fail(w, "extracted text rejected", err)
		return
	}

	count := questionCount(h.generator.DefaultQuestions(),
		types.NewString(r.FormValue("numberOfQuestions")), types.NewString(r.FormValue("questions")))

	h.generate(r.Context(), w, text, count, legacy, quizMetadata{
		Filename:       file.OriginalName,
		ProcessingTime: extraction.Milliseconds(),
	})
}

// GenerateFromText handles POST /api/quiz/generate-from-text
func (h *QuizHandler) GenerateFromText(w http.ResponseWriter, r *http.Request) {
	h.generateFromText(w, r, false)
}

// LegacyText handles POST /api/quiz/text and answers with the quiz as generated
func (h *QuizHandler) LegacyText(w http.ResponseWriter, r *http.Request) {
	h.generateFromText(w, r, true)
}

func (h *QuizHandler) generateFromText(w http.ResponseWriter, r *http.Request, legacy bool) {
	var req textRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, "invalid text request", err)
		return
	}

	if !req.Text.Truthy() {
		respondError(w, "Text is required", http.StatusBadRequest)
		return
	}
	if req.Text.Kind != types.JSONString {
		h.fail(w, "invalid text request", parser.ErrEmptyText)
		return
	}

	text, err := parser.ValidateText(req.Text.String, h.minTextLength)
	if err != nil {
		h.fail(w, "text rejected", err)
		return
	}

	count := questionCount(h.generator.DefaultQuestions(), req.NumberOfQuestions, req.Questions)
	h.generate(r.Context(), w, text, count, legacy, quizMetadata{})
}

func (h *QuizHandler) generate(ctx context.Context, w http.ResponseWriter, text string, count int, legacy bool, meta quizMetadata) {
	result, err := h.generator.Generate(ctx, text, count)
	if err != nil {
		h.fail(w, "quiz generation failed", err)
		return
	}

	meta.TextLength = utf8.RuneCountInString(text)
	meta.QuestionsGenerated = result.Questions
	meta.GenerationTime = result.Duration.Milliseconds()
	meta.Provider = h.generator.Provider()
	meta.Model = result.Model

	var quiz any = result.Quiz
	if !legacy {
		items, err := formatter.FormatForDisplay(result.Quiz)
		if err != nil {
			h.fail(w, "formatting generated quiz failed", err)
			return
		}
		quiz = items
	}

	respondJSON(w, generateResponse{Success: true, Quiz: quiz, Metadata: meta}, http.StatusOK)
}

// Format handles POST /api/quiz/format
func (h *QuizHandler) Format(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, "invalid format request", err)
		return
	}

	items, err := formatter.FormatForDisplay(req.Quiz)
	if err != nil {
		h.fail(w, "format failed", err)
		return
	}
	respondJSON(w, formatResponse{Success: true, Quiz: items}, http.StatusOK)
}

// Export handles POST /api/quiz/export
func (h *QuizHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, "invalid export request", err)
		return
	}

	format := formatter.DefaultFormat
	if !req.Format.IsZero() {
		format = req.Format.Text()
	}
	delimiter := formatter.DefaultDelimiter
	if !req.Delimiter.IsZero() {
		delimiter = req.Delimiter.Text()
	}

	payload, err := formatter.FormatForExport(req.Quiz, format, delimiter)
	if err != nil {
		h.fail(w, "export failed", err)
		return
	}

	w.Header().Set("Content-Type", types.ExportFormat(format).ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=quiz.%s", format))
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, payload)
}

type testResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	GeminiStatus string            `json:"gemini_status"`
	Provider     string            `json:"provider"`
	Endpoints    map[string]string `json:"endpoints"`
}

// Test handles GET /api/quiz/test
func (h *QuizHandler) Test(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	status := "Connected"
	if err := h.generator.Ping(ctx); err != nil {
		h.logger.Warn("provider connection test failed", zap.Error(err))
		status = "Not Connected"
	}

	respondJSON(w, testResponse{
		Success:      true,
		Message:      "Quiz API is working!",
		GeminiStatus: status,
		Provider:     h.generator.Provider(),
		Endpoints: map[string]string{
			"POST /api/quiz/generate-from-pdf":  "Upload a PDF or text file",
			"POST /api/quiz/generate-from-text": "Send text directly",
			"POST /api/quiz/format":             "Project a quiz for display",
			"POST /api/quiz/export":             "Export a quiz as json, csv or txt",
		},
	}, http.StatusOK)
}

func (h *QuizHandler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// fail logs err and writes its message with the status chosen by statusFor
func (h *QuizHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	} else {
		h.logger.Info(msg, zap.Int("status", status), zap.Error(err))
	}
	respondError(w, err.Error(), status)
}

var leadingInt = regexp.MustCompile(`^\s*([+-]?\d+)`)

// questionCount reads the first usable count among values the way parseInt(x) || n does:
// leading integer digits count, anything else or zero falls back to def
func questionCount(def int, values ...types.JSONValue) int {
	for _, v := range values {
		if v.IsNullish() {
			continue
		}
		m := leadingInt.FindStringSubmatch(v.Text())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n != 0 {
			return n
		}
	}
	return def
}
