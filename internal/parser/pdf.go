package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var (
	// ErrPDFUnreadable is returned when every extraction strategy failed
	ErrPDFUnreadable = errors.New("All PDF parsing methods failed. Please check your PDF file and try again.")

	// ErrNoTextContent is returned when the PDF opened but held no text
	ErrNoTextContent = errors.New("No text content found in PDF - the PDF might be image-based or corrupted")
)

// extractStrategy pulls text out of an opened document
type extractStrategy struct {
	name    string
	extract func(r *pdf.Reader) (string, error)
}

// PDFParser extracts text from PDF files. Documents produced by different
// tools respond differently to the extraction paths of the PDF library, so
// several are tried in order and the first non-blank result wins.
type PDFParser struct {
	logger     *zap.Logger
	strategies []extractStrategy
}

// NewPDFParser creates a new PDF parser
func NewPDFParser(logger *zap.Logger) *PDFParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFParser{
		logger: logger,
		strategies: []extractStrategy{
			{name: "document", extract: documentText},
			{name: "pages", extract: pageText},
			{name: "rows", extract: rowText},
			{name: "content", extract: contentText},
		},
	}
}

// Parse extracts the trimmed text of a PDF file
func (p *PDFParser) Parse(ctx context.Context, data []byte) (string, error) {
	reader, err := openPDF(data)
	if err != nil {
		p.logger.Debug("failed to open pdf", zap.Error(err))
		return "", ErrPDFUnreadable
	}

	succeeded := false
	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := runStrategy(s, reader)
		if err != nil {
			p.logger.Debug("pdf extraction strategy failed",
				zap.String("strategy", s.name), zap.Error(err))
			continue
		}
		succeeded = true

		if text = strings.TrimSpace(text); text != "" {
			p.logger.Debug("pdf extraction strategy succeeded",
				zap.String("strategy", s.name), zap.Int("length", len(text)))
			return text, nil
		}
	}

	if succeeded {
		return "", ErrNoTextContent
	}
	return "", ErrPDFUnreadable
}

// SupportedFormats returns the formats this parser supports
func (p *PDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}

func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("open PDF: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// runStrategy turns panics raised on malformed documents into errors
func runStrategy(s extractStrategy, r *pdf.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%s: %v", s.name, rec)
		}
	}()
	return s.extract(r)
}

func documentText(r *pdf.Reader) (string, error) {
	b, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pageText(r *pdf.Reader) (string, error) {
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func rowText(r *pdf.Reader) (string, error) {
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(word.S)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// contentText joins the raw text runs of each page with spaces, one page per line
func contentText(r *pdf.Reader) (string, error) {
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		runs := page.Content().Text
		parts := make([]string, 0, len(runs))
		for _, t := range runs {
			parts = append(parts, t.S)
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
