// Package formatter turns a generated quiz into a display shape or into a
// JSON, CSV or plain-text export payload. All functions are pure and safe for
// concurrent use.
package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/unalkalkan/QuizForge/pkg/types"
)

const (
	// DefaultFormat is used when the caller does not pick a format.
	DefaultFormat = string(types.ExportJSON)

	// DefaultDelimiter separates CSV columns when the caller does not pick one.
	DefaultDelimiter = ","
)

// The messages below are part of the HTTP contract and are returned to clients verbatim.
var (
	// ErrNotArray is returned by FormatForDisplay when the input is not an array.
	ErrNotArray = errors.New("Quiz data must be an array.")

	// ErrEmptyQuiz is returned by FormatForExport when the input is not an array or is empty.
	ErrEmptyQuiz = errors.New("Quiz data must be a non-empty array.")
)

// UnsupportedFormatError reports an export format tag outside json, csv and txt.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	names := make([]string, len(types.ExportFormats))
	for i, f := range types.ExportFormats {
		names[i] = string(f)
	}
	return fmt.Sprintf("Unsupported format: %s. Use one of: %s", e.Format, strings.Join(names, ", "))
}

// IsValidationError reports whether err is one of the checked input errors,
// as opposed to a failure while reading a malformed record.
func IsValidationError(err error) bool {
	var formatErr *UnsupportedFormatError
	return errors.Is(err, ErrNotArray) || errors.Is(err, ErrEmptyQuiz) || errors.As(err, &formatErr)
}

// FormatForDisplay assigns 1-based ids and renames correct_answer to
// correctAnswer. Fields are copied as-is; elements that are not objects
// produce items without question, options or answer.
func FormatForDisplay(quiz types.JSONValue) ([]types.DisplayItem, error) {
	records, ok := types.QuizFrom(quiz)
	if !ok {
		return nil, ErrNotArray
	}

	items := make([]types.DisplayItem, len(records))
	for i, q := range records {
		items[i] = types.DisplayItem{
			ID:            i + 1,
			Question:      q.Question(),
			Options:       q.Options(),
			CorrectAnswer: q.CorrectAnswer(),
		}
	}
	return items, nil
}

// FormatForExport serializes a non-empty quiz as json, csv or txt. The
// delimiter only applies to csv and is used literally.
//
// CSV columns come from the option keys of the first question; every row
// uses that column set. Values are wrapped in double quotes without
// escaping. A first question without options is not validated and fails
// with a plain error.
func FormatForExport(quiz types.JSONValue, format, delimiter string) (string, error) {
	records, ok := types.QuizFrom(quiz)
	if !ok || len(records) == 0 {
		return "", ErrEmptyQuiz
	}

	switch types.ExportFormat(format) {
	case types.ExportJSON:
		return formatJSON(quiz)
	case types.ExportCSV:
		return formatCSV(records, delimiter)
	case types.ExportTXT:
		return formatTXT(records)
	default:
		return "", &UnsupportedFormatError{Format: format}
	}
}

func formatJSON(quiz types.JSONValue) (string, error) {
	compact, err := quiz.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode quiz: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return "", fmt.Errorf("indent quiz: %w", err)
	}
	return out.String(), nil
}

func formatCSV(records types.Quiz, delimiter string) (string, error) {
	first := records[0]
	if first.Value.IsNullish() {
		return "", readError(first.Value, "options")
	}
	keys, err := first.Options().Keys()
	if err != nil {
		return "", err
	}

	headers := make([]string, len(keys))
	for i, key := range keys {
		headers[i] = "Option " + key
	}

	var b strings.Builder
	b.WriteString("Question" + delimiter + strings.Join(headers, delimiter) + delimiter + "Correct Answer\n")

	for _, q := range records {
		if q.Value.IsNullish() {
			return "", readError(q.Value, "options")
		}
		options := q.Options()
		cells := make([]string, len(keys))
		for i, key := range keys {
			if options.IsNullish() {
				return "", readError(options, key)
			}
			cells[i] = quote(options.Get(key).Text())
		}
		b.WriteString(quote(q.Question().Text()) + delimiter + strings.Join(cells, delimiter) + delimiter + quote(q.CorrectAnswer().Text()) + "\n")
	}
	return b.String(), nil
}

func formatTXT(records types.Quiz) (string, error) {
	var b strings.Builder
	for i, q := range records {
		if q.Value.IsNullish() {
			return "", readError(q.Value, "question")
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question().Text())

		entries, err := q.Options().Entries()
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			fmt.Fprintf(&b, "   %s) %s\n", e.Key, e.Value.Text())
		}
		fmt.Fprintf(&b, "   Answer: %s\n\n", q.CorrectAnswer().Text())
	}
	return b.String(), nil
}

func quote(s string) string {
	return `"` + s + `"`
}

func readError(v types.JSONValue, property string) error {
	return fmt.Errorf("cannot read properties of %s (reading '%s')", v.Kind, property)
}
