package generation

import (
	"errors"
	"fmt"

	"github.com/unalkalkan/QuizForge/internal/provider"
)

// Kind classifies generation failures for callers choosing a response status
type Kind int

const (
	// KindFailed is any failure not covered by a more specific kind
	KindFailed Kind = iota
	// KindInvalidInput means the caller's text or question count was rejected
	KindInvalidInput
	// KindUnauthorized means the provider rejected its credentials
	KindUnauthorized
	// KindRateLimited means the provider quota is exhausted
	KindRateLimited
	// KindMalformed means the model answered with something that is not a quiz
	KindMalformed
	// KindBlocked means the provider's safety filters refused the content
	KindBlocked
)

// Error is returned by Generate. Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// ErrTextRequired is the cause of the error returned for blank text
var ErrTextRequired = errors.New("Text is required to generate quiz")

// KindOf returns the kind of a generation error, or KindFailed for anything else
func KindOf(err error) Kind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindFailed
}

func invalidInput(err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: err.Error(), Err: err}
}

// structureError describes a model answer that does not have the quiz shape
type structureError struct {
	msg string
}

func (e *structureError) Error() string { return e.msg }

func malformed(format string, args ...any) error {
	return &structureError{msg: fmt.Sprintf(format, args...)}
}

// userError turns a provider or parsing failure into the message shown to users
func userError(providerName string, err error) *Error {
	var structErr *structureError
	switch {
	case errors.Is(err, provider.ErrUnauthorized):
		return &Error{
			Kind:    KindUnauthorized,
			Message: fmt.Sprintf("Invalid API key for LLM provider %q. Please check your API key configuration.", providerName),
			Err:     err,
		}
	case errors.Is(err, provider.ErrRateLimited):
		return &Error{
			Kind:    KindRateLimited,
			Message: fmt.Sprintf("LLM provider %q quota exceeded or rate limited. Please try again later.", providerName),
			Err:     err,
		}
	case errors.Is(err, provider.ErrContentFiltered):
		return &Error{
			Kind:    KindBlocked,
			Message: "Content was blocked by safety filters. Please try with different text.",
			Err:     err,
		}
	case errors.Is(err, errUnparseable):
		return &Error{
			Kind:    KindMalformed,
			Message: "Failed to generate properly formatted quiz. Please try again with different text.",
			Err:     err,
		}
	case errors.As(err, &structErr):
		return &Error{
			Kind:    KindMalformed,
			Message: "Quiz generation failed: " + structErr.msg,
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindFailed,
		Message: "Quiz generation failed: " + err.Error(),
		Err:     err,
	}
}
