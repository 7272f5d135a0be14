package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// TXTParser parses plain text files
type TXTParser struct{}

const (
	// paragraphBreakEmptyLines is the number of consecutive empty lines needed to break a paragraph
	paragraphBreakEmptyLines = 1

	// maxLineBytes bounds a single line; uploads are size limited well below this
	maxLineBytes = 16 << 20
)

// NewTXTParser creates a new TXT parser
func NewTXTParser() *TXTParser {
	return &TXTParser{}
}

// Parse returns the text with hard-wrapped lines joined into paragraphs and
// paragraphs separated by a blank line. Invalid UTF-8 sequences are replaced.
func (p *TXTParser) Parse(ctx context.Context, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var paragraphs []string
	var currentParagraph strings.Builder
	emptyLineCount := 0

	for scanner.Scan() {
		line := strings.TrimSpace(strings.ToValidUTF8(scanner.Text(), "�"))

		// Empty line - potential paragraph break
		if line == "" {
			emptyLineCount++
			if currentParagraph.Len() > 0 && emptyLineCount >= paragraphBreakEmptyLines {
				paragraphs = append(paragraphs, currentParagraph.String())
				currentParagraph.Reset()
			}
			continue
		}

		emptyLineCount = 0
		if currentParagraph.Len() > 0 {
			currentParagraph.WriteString(" ")
		}
		currentParagraph.WriteString(line)
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading text: %w", err)
	}

	// Save last paragraph if any
	if currentParagraph.Len() > 0 {
		paragraphs = append(paragraphs, currentParagraph.String())
	}

	if len(paragraphs) == 0 {
		return "", fmt.Errorf("no content found in text file")
	}

	return strings.Join(paragraphs, "\n\n"), nil
}

// SupportedFormats returns the formats this parser supports
func (p *TXTParser) SupportedFormats() []string {
	return []string{"txt", "text"}
}
