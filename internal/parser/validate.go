package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMinTextLength is the shortest text worth generating questions from
const DefaultMinTextLength = 50

// ErrEmptyText is returned by ValidateText for blank input
var ErrEmptyText = errors.New("Text must be a non-empty string")

// TextTooShortError is returned by ValidateText when the trimmed text is shorter than Min characters
type TextTooShortError struct {
	Min int
}

func (e *TextTooShortError) Error() string {
	return fmt.Sprintf("Text must be at least %d characters long to generate meaningful questions", e.Min)
}

// ValidateText trims text and checks that enough of it is left to build a
// quiz from. Length is counted in characters, not bytes.
func ValidateText(text string, minLen int) (string, error) {
	if minLen <= 0 {
		minLen = DefaultMinTextLength
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(trimmed) < minLen {
		return "", &TextTooShortError{Min: minLen}
	}
	return trimmed, nil
}

// IsValidationError reports whether err was caused by the submitted text itself
func IsValidationError(err error) bool {
	var tooShort *TextTooShortError
	return errors.Is(err, ErrEmptyText) || errors.As(err, &tooShort)
}
