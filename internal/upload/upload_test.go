package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/unalkalkan/QuizForge/internal/storage"
	"github.com/unalkalkan/QuizForge/pkg/types"
	"go.uber.org/zap"
)

const pdfData = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

type part struct {
	field, filename, contentType, body string
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			mw.WriteField(p.field, p.body)
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		io.WriteString(w, p.body)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestService(t *testing.T, maxSize int64) (*Service, storage.Adapter) {
	t.Helper()
	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	svc := NewService(store, types.UploadConfig{MaxSizeBytes: maxSize}, zap.NewNop())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, store
}

func TestService_FromRequest(t *testing.T) {
	keyPattern := regexp.MustCompile(`^uploads/1700000000000-[0-9a-f-]{36}\.pdf$`)

	t.Run("PDF upload", func(t *testing.T) {
		svc, store := newTestService(t, 0)
		req := multipartRequest(t,
			part{field: "pdf", filename: "Chapter 1.PDF", contentType: "application/pdf", body: pdfData},
			part{field: "numberOfQuestions", body: "3"},
		)

		file, err := svc.FromRequest(req, "pdf", "file")
		if err != nil {
			t.Fatalf("FromRequest failed: %v", err)
		}
		if !keyPattern.MatchString(file.Key) {
			t.Errorf("Unexpected key %q", file.Key)
		}
		if file.OriginalName != "Chapter 1.PDF" || file.ContentType != "application/pdf" || file.Size != int64(len(pdfData)) {
			t.Errorf("Unexpected file %+v", file)
		}
		if got := req.FormValue("numberOfQuestions"); got != "3" {
			t.Errorf("Expected form values to stay available, got %q", got)
		}

		rc, err := store.Get(context.Background(), file.Key)
		if err != nil {
			t.Fatalf("Stored file missing: %v", err)
		}
		defer rc.Close()
		stored, _ := io.ReadAll(rc)
		if string(stored) != pdfData {
			t.Error("Stored content differs from upload")
		}
	})

	t.Run("Fallback field", func(t *testing.T) {
		svc, _ := newTestService(t, 0)
		req := multipartRequest(t, part{field: "file", filename: "notes.txt", contentType: "text/plain", body: "Plain notes about the water cycle."})

		file, err := svc.FromRequest(req, "pdf", "file")
		if err != nil {
			t.Fatalf("FromRequest failed: %v", err)
		}
		if !strings.HasSuffix(file.Key, ".txt") || file.ContentType != "text/plain" {
			t.Errorf("Unexpected file %+v", file)
		}
	})

	t.Run("No file", func(t *testing.T) {
		svc, _ := newTestService(t, 0)
		req := multipartRequest(t, part{field: "numberOfQuestions", body: "5"})

		_, err := svc.FromRequest(req, "pdf", "file")
		if !errors.Is(err, ErrNoFile) || err.Error() != "No PDF file uploaded" {
			t.Errorf("Expected ErrNoFile, got %v", err)
		}
	})

	t.Run("Not multipart", func(t *testing.T) {
		svc, _ := newTestService(t, 0)
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"text":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		_, err := svc.FromRequest(req, "pdf")
		if !errors.Is(err, ErrInvalidForm) {
			t.Errorf("Expected ErrInvalidForm, got %v", err)
		}
	})

	t.Run("Too large", func(t *testing.T) {
		svc, store := newTestService(t, 64)
		req := multipartRequest(t, part{field: "pdf", filename: "big.pdf", contentType: "application/pdf", body: pdfData + strings.Repeat("x", 100)})

		_, err := svc.FromRequest(req, "pdf")
		if !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("Expected ErrFileTooLarge, got %v", err)
		}
		if !strings.Contains(err.Error(), "64 bytes") {
			t.Errorf("Expected limit in message, got %v", err)
		}
		paths, _ := store.List(context.Background(), "")
		if len(paths) != 0 {
			t.Errorf("Nothing should be stored, got %v", paths)
		}
	})
}

func TestService_TypeChecks(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantType    string
	}{
		{"declared type not allowed", "image/png", pdfData, "image/png"},
		{"missing declared type", "", pdfData, ""},
		{"pdf declared but text inside", "application/pdf", "definitely not a pdf", "text/plain"},
		{"text declared but pdf inside", "text/plain", pdfData, "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, 0)
			req := multipartRequest(t, part{field: "pdf", filename: "upload.bin", contentType: tt.contentType, body: tt.body})

			_, err := svc.FromRequest(req, "pdf")
			var typeErr *UnsupportedTypeError
			if !errors.As(err, &typeErr) {
				t.Fatalf("Expected UnsupportedTypeError, got %v", err)
			}
			if !strings.HasPrefix(typeErr.Type, tt.wantType) || (tt.wantType == "" && typeErr.Type != "") {
				t.Errorf("Expected type %q, got %q", tt.wantType, typeErr.Type)
			}
			if !IsValidationError(err) {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{ErrNoFile, true},
		{fmt.Errorf("%w: 10MB", ErrFileTooLarge), true},
		{&UnsupportedTypeError{Type: "image/png"}, true},
		{fmt.Errorf("%w: eof", ErrInvalidForm), true},
		{errors.New("failed to store upload"), false},
	}
	for _, tt := range tests {
		if got := IsValidationError(tt.err); got != tt.expected {
			t.Errorf("IsValidationError(%v) = %v, expected %v", tt.err, got, tt.expected)
		}
	}
}
