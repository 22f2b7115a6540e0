// Package recognition turns a photographed document into text using Gemini
// vision models, reached through the provider's OpenAI-compatible endpoint.
//
// Availability of individual Gemini models varies, so a single recognition
// call fails over across an ordered candidate list: the list is discovered
// dynamically where possible, fast-tier models are tried first, and the
// first model that returns non-empty text wins. There is no per-model retry;
// latency matters more than exhausting one flaky model, and the next
// candidate is the retry.
//
// Required configuration:
//   - GEMINI_API_KEY environment variable, or a GEMINI_API.txt key file
//   - GEMINI_BASE_URL (optional, defaults to the public endpoint)
package recognition

import (
	"context"
)

// Recognizer defines the interface for image-to-text recognition services.
type Recognizer interface {
	// Recognize sends the image and prompt to candidate models in priority
	// order and returns the first non-empty generated text.
	Recognize(ctx context.Context, image []byte, prompt string) (string, error)
}

// ModelCandidate is one backend model in the failover order.
// Lower priority values are tried first; ties keep discovery order.
type ModelCandidate struct {
	ID       string
	Priority int
}

// FallbackModels is the static candidate list used when model discovery
// fails or returns nothing usable.
var FallbackModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-pro",
}
