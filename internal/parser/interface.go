package parser

import (
	"context"
)

// Parser defines the interface for document text extractors
type Parser interface {
	// Parse extracts the plain text of the document
	Parse(ctx context.Context, data []byte) (string, error)

	// SupportedFormats returns the file formats this parser supports
	SupportedFormats() []string
}

// Factory creates parsers for different formats
type Factory interface {
	// GetParser returns a parser for the given format
	GetParser(format string) (Parser, error)
}
