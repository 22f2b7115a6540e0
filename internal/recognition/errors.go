package recognition

import (
	"errors"
	"fmt"
)

// Common recognition errors
var (
	// ErrMissingAPIKey is returned when no Gemini credential is configured.
	ErrMissingAPIKey = errors.New("missing Gemini API key: set GEMINI_API_KEY or provide GEMINI_API.txt")

	// ErrEmptyImage is returned when the image payload is empty.
	// No network call is made in this case.
	ErrEmptyImage = errors.New("image payload is empty")

	// ErrEmptyPrompt is returned when the prompt is empty or whitespace.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrExhausted is returned when every candidate model failed or returned
	// empty text. The wrapping RecognitionError carries the last underlying
	// failure; empty text is never silently returned as a result.
	ErrExhausted = errors.New("all candidate models failed")
)

// RecognitionError wraps errors with context about the recognition failure.
type RecognitionError struct {
	// Op is the operation that failed (e.g., "Recognize", "ListCandidates").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RecognitionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("recognition: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("recognition: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RecognitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error as a RecognitionError if it isn't already one.
func wrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var recErr *RecognitionError
	if errors.As(err, &recErr) {
		return err
	}

	return &RecognitionError{Op: op, Err: err, Details: details}
}
