package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/unalkalkan/QuizForge/internal/config"
	"github.com/unalkalkan/QuizForge/internal/formatter"
	"github.com/unalkalkan/QuizForge/internal/generation"
	"github.com/unalkalkan/QuizForge/internal/health"
	"github.com/unalkalkan/QuizForge/internal/parser"
	"github.com/unalkalkan/QuizForge/internal/provider"
	"github.com/unalkalkan/QuizForge/internal/storage"
	"github.com/unalkalkan/QuizForge/internal/upload"
	"go.uber.org/zap"
)

const sourceText = "Photosynthesis is the process by which green plants use sunlight to synthesize food from carbon dioxide and water."

const generatedQuiz = `[{"question":"What do plants use to make food?","options":{"A":"Sunlight","B":"Moonlight","C":"Sound","D":"Heat"},"correct_answer":"A"}]`

// scriptedProvider answers every prompt with the same completion
type scriptedProvider struct {
	content string
	err     error
	prompts []string
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return nil, s.err
	}
	return &provider.CompletionResponse{Content: s.content, Model: "scripted-1"}, nil
}

func (s *scriptedProvider) Close() error { return nil }

type testServer struct {
	handler  http.Handler
	store    storage.Adapter
	provider *scriptedProvider
}

func newTestServer(t *testing.T, p *scriptedProvider) *testServer {
	t.Helper()
	logger := zap.NewNop()

	cfg := config.GetDefault()
	cfg.Storage.Local.BasePath = t.TempDir()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Invalid test config: %v", err)
	}

	store, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	registry := provider.NewRegistry()
	if err := registry.RegisterLLM(p); err != nil {
		t.Fatalf("Failed to register provider: %v", err)
	}

	generator := generation.NewGenerator(p, cfg.Generation, logger)
	quiz := NewQuizHandler(
		upload.NewService(store, cfg.Upload, logger),
		parser.NewExtractor(store, parser.NewFactory(logger), logger),
		generator,
		cfg,
		logger,
	)

	healthHandler := health.NewHandler("test", logger)
	healthHandler.Register("storage", health.StorageCheck(store))

	return &testServer{
		handler: NewRouter(Dependencies{
			Quiz:     quiz,
			Health:   healthHandler,
			Registry: registry,
			Config:   cfg,
			Version:  "test",
			Logger:   logger,
		}),
		store:    store,
		provider: p,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func uploadRequest(t *testing.T, path, field, filename, contentType, body string, values map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		mw.WriteField(k, v)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	w, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart failed: %v", err)
	}
	io.WriteString(w, body)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("Expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["error"] != message {
		t.Errorf("Expected error %q, got %v", message, body["error"])
	}
	if body["success"] != false {
		t.Errorf("Expected success false, got %v", body["success"])
	}
}

func TestFormat(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})

	t.Run("Projects quiz", func(t *testing.T) {
		rec := srv.postJSON("/api/quiz/format", `{"quiz":[{"question":"Q1","options":{"B":"b","A":"a"},"correct_answer":"A"},{"question":null}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		expected := `{"success":true,"quiz":[{"id":1,"question":"Q1","options":{"B":"b","A":"a"},"correctAnswer":"A"},{"id":2,"question":null}]}` + "\n"
		if rec.Body.String() != expected {
			t.Errorf("Unexpected body\n got: %s\nwant: %s", rec.Body.String(), expected)
		}
	})

	t.Run("Empty quiz", func(t *testing.T) {
		rec := srv.postJSON("/api/quiz/format", `{"quiz":[]}`)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"quiz":[]`) {
			t.Errorf("Unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Not an array", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"quiz":null}`, `{"quiz":{"question":"Q"}}`, `{"quiz":"[]"}`} {
			assertError(t, srv.postJSON("/api/quiz/format", body), http.StatusBadRequest, "Quiz data must be an array.")
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		rec := srv.postJSON("/api/quiz/format", `{"quiz":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
	quiz := `[{"question":"What is 2+2?","options":{"A":"3","B":"4"},"correct_answer":"B"}]`

	tests := []struct {
		name        string
		body        string
		contentType string
		filename    string
		expected    string
	}{
		{
			name:        "default json",
			body:        `{"quiz":` + quiz + `}`,
			contentType: "application/json; charset=utf-8",
			filename:    "quiz.json",
			expected:    "[\n  {\n    \"question\": \"What is 2+2?\",\n    \"options\": {\n      \"A\": \"3\",\n      \"B\": \"4\"\n    },\n    \"correct_answer\": \"B\"\n  }\n]",
		},
		{
			name:        "csv with delimiter",
			body:        `{"quiz":` + quiz + `,"format":"csv","delimiter":";"}`,
			contentType: "text/csv; charset=utf-8",
			filename:    "quiz.csv",
			expected:    "Question;Option A;Option B;Correct Answer\n\"What is 2+2?\";\"3\";\"4\";\"B\"\n",
		},
		{
			name:        "csv null delimiter",
			body:        `{"quiz":` + quiz + `,"format":"csv","delimiter":null}`,
			contentType: "text/csv; charset=utf-8",
			filename:    "quiz.csv",
			expected:    "QuestionnullOption AnullOption BnullCorrect Answer\n\"What is 2+2?\"null\"3\"null\"4\"null\"B\"\n",
		},
		{
			name:        "txt",
			body:        `{"quiz":` + quiz + `,"format":"txt"}`,
			contentType: "text/plain; charset=utf-8",
			filename:    "quiz.txt",
			expected:    "1. What is 2+2?\n   A) 3\n   B) 4\n   Answer: B\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.postJSON("/api/quiz/export", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Expected content type %q, got %q", tt.contentType, ct)
			}
			if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename="+tt.filename {
				t.Errorf("Unexpected Content-Disposition %q", cd)
			}
			if rec.Body.String() != tt.expected {
				t.Errorf("Unexpected body\n got: %q\nwant: %q", rec.Body.String(), tt.expected)
			}
		})
	}

	t.Run("Errors", func(t *testing.T) {
		assertError(t, srv.postJSON("/api/quiz/export", `{"quiz":[]}`), http.StatusBadRequest, "Quiz data must be a non-empty array.")
		assertError(t, srv.postJSON("/api/quiz/export", `{"quiz":`+quiz+`,"format":"xml"}`), http.StatusBadRequest,
			"Unsupported format: xml. Use one of: json, csv, txt")
		assertError(t, srv.postJSON("/api/quiz/export", `{"quiz":`+quiz+`,"format":"CSV"}`), http.StatusBadRequest,
			"Unsupported format: CSV. Use one of: json, csv, txt")
		assertError(t, srv.postJSON("/api/quiz/export", `{"quiz":`+quiz+`,"format":null}`), http.StatusBadRequest,
			"Unsupported format: null. Use one of: json, csv, txt")
	})

	t.Run("Unvalidated record shape", func(t *testing.T) {
		rec := srv.postJSON("/api/quiz/export", `{"quiz":[{"question":"Q"}],"format":"txt"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestGenerateFromText(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		p := &scriptedProvider{content: generatedQuiz}
		srv := newTestServer(t, p)

		rec := srv.postJSON("/api/quiz/generate-from-text", fmt.Sprintf(`{"text":%q,"numberOfQuestions":"3"}`, sourceText))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody(t, rec)
		quiz := body["quiz"].([]any)
		first := quiz[0].(map[string]any)
		if first["id"] != float64(1) || first["correctAnswer"] != "A" {
			t.Errorf("Expected display items, got %v", first)
		}
		meta := body["metadata"].(map[string]any)
		if meta["questionsGenerated"] != float64(1) || meta["textLength"] != float64(len(sourceText)) || meta["provider"] != "scripted" {
			t.Errorf("Unexpected metadata %v", meta)
		}
		if len(p.prompts) != 1 || !strings.Contains(p.prompts[0], "Create exactly 3 multiple choice questions") {
			t.Errorf("Expected a prompt for 3 questions, got %v", p.prompts)
		}
	})

	t.Run("Legacy path returns generated records", func(t *testing.T) {
		p := &scriptedProvider{content: generatedQuiz}
		srv := newTestServer(t, p)

		rec := srv.postJSON("/api/quiz/text", fmt.Sprintf(`{"text":%q,"questions":"abc"}`, sourceText))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		first := decodeBody(t, rec)["quiz"].([]any)[0].(map[string]any)
		if first["correct_answer"] != "A" {
			t.Errorf("Expected raw records, got %v", first)
		}
		if !strings.Contains(p.prompts[0], "Create exactly 5 multiple choice questions") {
			t.Error("Expected the default count for a non-numeric value")
		}
	})

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing text", `{}`, http.StatusBadRequest, "Text is required"},
		{"empty text", `{"text":""}`, http.StatusBadRequest, "Text is required"},
		{"non-string text", `{"text":42}`, http.StatusBadRequest, "Text must be a non-empty string"},
		{"short text", `{"text":"too short"}`, http.StatusBadRequest, "Text must be at least 50 characters long to generate meaningful questions"},
		{"too many questions", fmt.Sprintf(`{"text":%q,"numberOfQuestions":50}`, sourceText), http.StatusBadRequest, "numberOfQuestions must be between 1 and 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
			assertError(t, srv.postJSON("/api/quiz/generate-from-text", tt.body), tt.status, tt.message)
		})
	}
}

func TestGenerateProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		p      *scriptedProvider
		status int
	}{
		{"rate limited", &scriptedProvider{err: fmt.Errorf("%w: quota", provider.ErrRateLimited)}, http.StatusTooManyRequests},
		{"bad key", &scriptedProvider{err: provider.ErrUnauthorized}, http.StatusBadGateway},
		{"network", &scriptedProvider{err: errors.New("dial tcp: refused")}, http.StatusInternalServerError},
		{"not json", &scriptedProvider{content: "Sorry, I cannot help."}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.p)
			rec := srv.postJSON("/api/quiz/generate-from-text", fmt.Sprintf(`{"text":%q}`, sourceText))
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGenerateFromPDF(t *testing.T) {
	t.Run("Text file upload", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
		req := uploadRequest(t, "/api/quiz/generate-from-pdf", "pdf", "notes.txt", "text/plain", sourceText,
			map[string]string{"numberOfQuestions": "2"})

		rec := srv.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		meta := decodeBody(t, rec)["metadata"].(map[string]any)
		if meta["filename"] != "notes.txt" {
			t.Errorf("Unexpected metadata %v", meta)
		}

		paths, err := srv.store.List(context.Background(), "uploads/")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(paths) != 0 {
			t.Errorf("Uploads should be removed after extraction, found %v", paths)
		}
	})

	t.Run("Legacy field name", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
		req := uploadRequest(t, "/api/quiz/generate", "file", "notes.txt", "text/plain", sourceText,
			map[string]string{"questions": "4"})

		rec := srv.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(srv.provider.prompts[0], "Create exactly 4 multiple choice questions") {
			t.Error("Expected the count from the questions field")
		}
	})

	t.Run("No file", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
		req := uploadRequest(t, "/api/quiz/generate-from-pdf", "document", "notes.txt", "text/plain", sourceText, nil)
		assertError(t, srv.do(req), http.StatusBadRequest, "No PDF file uploaded")
	})

	t.Run("Wrong type", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
		req := uploadRequest(t, "/api/quiz/generate-from-pdf", "pdf", "photo.png", "image/png", "\x89PNG\r\n\x1a\n", nil)
		rec := srv.do(req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Broken PDF", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{content: generatedQuiz})
		req := uploadRequest(t, "/api/quiz/generate-from-pdf", "pdf", "broken.pdf", "application/pdf", "%PDF-1.4\nnot really", nil)
		assertError(t, srv.do(req), http.StatusInternalServerError,
			"PDF parsing failed: All PDF parsing methods failed. Please check your PDF file and try again.")
	})
}

func TestServiceEndpoints(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{content: "Hello"})

	t.Run("Connection test", func(t *testing.T) {
		rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/quiz/test", nil))
		body := decodeBody(t, rec)
		if body["gemini_status"] != "Connected" || body["message"] != "Quiz API is working!" {
			t.Errorf("Unexpected body %v", body)
		}
	})

	t.Run("Info", func(t *testing.T) {
		rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))
		var info infoResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("Failed to decode info: %v", err)
		}
		if info.Version != "test" || len(info.ExportFormats) != 3 {
			t.Errorf("Unexpected info %+v", info)
		}
	})

	t.Run("Providers", func(t *testing.T) {
		rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil))
		if !strings.Contains(rec.Body.String(), `"llm":["scripted"]`) {
			t.Errorf("Unexpected providers %s", rec.Body.String())
		}
	})

	t.Run("Health", func(t *testing.T) {
		rec := srv.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Expected ready, got %d", rec.Code)
		}
	})

	t.Run("CORS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/quiz/export", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := srv.do(req)
		if rec.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Errorf("Expected CORS headers, got %v", rec.Header())
		}
	})

	t.Run("Method not allowed", func(t *testing.T) {
		rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/quiz/export", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid body", fmt.Errorf("%w: eof", errInvalidBody), http.StatusBadRequest},
		{"not an array", formatter.ErrNotArray, http.StatusBadRequest},
		{"empty quiz", formatter.ErrEmptyQuiz, http.StatusBadRequest},
		{"unsupported format", &formatter.UnsupportedFormatError{Format: "xml"}, http.StatusBadRequest},
		{"no file", upload.ErrNoFile, http.StatusBadRequest},
		{"short text", &parser.TextTooShortError{Min: 50}, http.StatusBadRequest},
		{"rate limited", &generation.Error{Kind: generation.KindRateLimited}, http.StatusTooManyRequests},
		{"unauthorized", &generation.Error{Kind: generation.KindUnauthorized}, http.StatusBadGateway},
		{"malformed", &generation.Error{Kind: generation.KindMalformed}, http.StatusInternalServerError},
		{"plain", errors.New("cannot read properties of undefined (reading 'options')"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.status {
				t.Errorf("statusFor(%v) = %d, expected %d", tt.err, got, tt.status)
			}
		})
	}
}
