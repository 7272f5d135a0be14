package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/unalkalkan/QuizForge/internal/storage"
	"github.com/unalkalkan/QuizForge/internal/util"
	"go.uber.org/zap"
)

// Extractor turns a stored upload into plain text. Uploads are transient:
// the stored object is removed once extraction finishes, whatever the outcome.
type Extractor struct {
	store   storage.Adapter
	factory Factory
	logger  *zap.Logger
}

// NewExtractor creates an extractor reading uploads from store
func NewExtractor(store storage.Adapter, factory Factory, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		store:   store,
		factory: factory,
		logger:  logger,
	}
}

// Extract reads the upload at key, extracts its text with the parser matching
// its extension and deletes it
func (e *Extractor) Extract(ctx context.Context, key string) (string, error) {
	defer e.cleanup(key)

	format := util.FormatOf(key)
	text, err := e.extract(ctx, key, format)
	if err != nil {
		if format == "pdf" {
			return "", fmt.Errorf("PDF parsing failed: %w", err)
		}
		return "", fmt.Errorf("text extraction failed: %w", err)
	}

	e.logger.Info("extracted text from upload",
		zap.String("key", key),
		zap.String("format", format),
		zap.Int("length", len(text)))
	return text, nil
}

func (e *Extractor) extract(ctx context.Context, key, format string) (string, error) {
	p, err := e.factory.GetParser(format)
	if err != nil {
		return "", err
	}

	rc, err := e.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	return p.Parse(ctx, data)
}

// cleanup runs on a fresh context so a cancelled request still removes its upload
func (e *Extractor) cleanup(key string) {
	if err := e.store.Delete(context.Background(), key); err != nil {
		e.logger.Warn("could not clean up upload", zap.String("key", key), zap.Error(err))
		return
	}
	e.logger.Debug("upload cleaned up", zap.String("key", key))
}
