package tts

import (
	"errors"
	"fmt"
)

// Common synthesis errors
var (
	// ErrMissingAPIKey is returned when no Yating credential is configured.
	ErrMissingAPIKey = errors.New("missing Yating API key: set YATING_API_KEY or provide YATING_API.txt")

	// ErrEmptyInput is returned for empty or whitespace-only text.
	// No network call is made in this case.
	ErrEmptyInput = errors.New("synthesis input text is empty")

	// ErrUnexpectedStatus marks an attempt that got a non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMalformedPayload marks an attempt whose response body could not be
	// decoded into audio bytes (bad JSON, missing or undecodable audioContent).
	ErrMalformedPayload = errors.New("malformed response payload")

	// ErrInvalidAudio marks an attempt whose decoded payload is not a
	// recognizable audio container. Treated as a failed attempt, never as a
	// success.
	ErrInvalidAudio = errors.New("payload is not a RIFF audio stream")

	// ErrIncomplete is the match target for IncompleteSynthesisError.
	ErrIncomplete = errors.New("synthesis incomplete")
)

// IncompleteSynthesisError reports that fewer chunks succeeded than were
// submitted. Partial audio is never returned; the caller may re-invoke
// synthesis from scratch.
type IncompleteSynthesisError struct {
	Missing int
	Total   int
}

// Error implements the error interface.
func (e *IncompleteSynthesisError) Error() string {
	return fmt.Sprintf("synthesis incomplete: %d/%d chunks missing", e.Missing, e.Total)
}

// Is lets errors.Is match against ErrIncomplete.
func (e *IncompleteSynthesisError) Is(target error) bool {
	return target == ErrIncomplete
}

// TTSError wraps errors with context about the synthesis failure.
type TTSError struct {
	// Op is the operation that failed (e.g., "Synthesize", "Merge").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("tts: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("tts: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *TTSError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error as a TTSError if it isn't already one.
func wrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ttsErr *TTSError
	if errors.As(err, &ttsErr) {
		return err
	}

	return &TTSError{Op: op, Err: err, Details: details}
}
