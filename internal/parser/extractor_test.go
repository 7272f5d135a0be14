package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/unalkalkan/QuizForge/internal/storage"
	"go.uber.org/zap"
)

func newTestExtractor(t *testing.T) (*Extractor, storage.Adapter) {
	t.Helper()
	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return NewExtractor(store, NewFactory(zap.NewNop()), zap.NewNop()), store
}

func assertDeleted(t *testing.T, store storage.Adapter, key string) {
	t.Helper()
	exists, err := store.Exists(context.Background(), key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Errorf("Expected %s to be deleted after extraction", key)
	}
}

func TestExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	t.Run("Text upload", func(t *testing.T) {
		extractor, store := newTestExtractor(t)
		key := "uploads/1-notes.txt"
		if err := store.Put(ctx, key, strings.NewReader("  Some notes\nabout cells.  \n")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		text, err := extractor.Extract(ctx, key)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if text != "Some notes about cells." {
			t.Errorf("Unexpected text %q", text)
		}
		assertDeleted(t, store, key)
	})

	t.Run("PDF upload", func(t *testing.T) {
		extractor, store := newTestExtractor(t)
		key := "uploads/2-chapter.pdf"
		data := buildPDF("BT /F1 12 Tf 72 720 Td (Osmosis moves water across membranes) Tj ET")
		if err := store.Put(ctx, key, bytes.NewReader(data)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		text, err := extractor.Extract(ctx, key)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if !strings.Contains(text, "Osmosis") {
			t.Errorf("Unexpected text %q", text)
		}
		assertDeleted(t, store, key)
	})

	t.Run("Broken PDF is deleted and wrapped", func(t *testing.T) {
		extractor, store := newTestExtractor(t)
		key := "uploads/3-broken.pdf"
		if err := store.Put(ctx, key, strings.NewReader("not really a pdf")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		_, err := extractor.Extract(ctx, key)
		if !errors.Is(err, ErrPDFUnreadable) {
			t.Fatalf("Expected ErrPDFUnreadable, got %v", err)
		}
		expected := "PDF parsing failed: All PDF parsing methods failed. Please check your PDF file and try again."
		if err.Error() != expected {
			t.Errorf("Error = %q, expected %q", err.Error(), expected)
		}
		assertDeleted(t, store, key)
	})

	t.Run("Missing upload", func(t *testing.T) {
		extractor, _ := newTestExtractor(t)
		_, err := extractor.Extract(ctx, "uploads/missing.pdf")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Unsupported extension", func(t *testing.T) {
		extractor, store := newTestExtractor(t)
		key := "uploads/4-book.epub"
		if err := store.Put(ctx, key, strings.NewReader("zip")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := extractor.Extract(ctx, key); err == nil {
			t.Error("Expected error for unsupported extension")
		}
		assertDeleted(t, store, key)
	})
}
