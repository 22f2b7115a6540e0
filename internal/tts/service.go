// Package tts turns recognized text into one playable WAV stream using the
// Yating short-speech API.
//
// Long text is split into bounded chunks, each chunk is downloaded
// concurrently with per-chunk retry, and the results are reassembled in
// source order under a freshly computed header. The job is all-or-nothing:
// if any chunk never succeeds, the whole synthesis fails rather than
// returning audio shorter than the text.
//
// Required configuration:
//   - YATING_API_KEY environment variable, or a YATING_API.txt key file
package tts

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docvoice/internal/wav"
)

// Synthesizer defines the interface for text-to-speech services.
type Synthesizer interface {
	// Synthesize converts text into a single well-formed WAV byte stream.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config holds configuration for the synthesis service.
type Config struct {
	// APIKey is the Yating API key. Required.
	APIKey string

	// Endpoint is the short-speech endpoint URL.
	Endpoint string

	// Voice selects the synthesis voice. Model is required by the provider.
	Voice Voice

	// ChunkSize is the per-chunk rune limit. Default: 80.
	ChunkSize int

	// Workers bounds concurrent downloads. Default: 2, kept small to
	// respect provider rate limits.
	Workers int

	// MaxAttempts is the per-chunk attempt budget. Default: 4.
	MaxAttempts int

	// Timeout bounds one request attempt. Default: 15s.
	Timeout time.Duration

	// RetryDelay is the fixed pause between attempts. Default: 500ms.
	RetryDelay time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logger receives progress and per-chunk failures.
	Logger zerolog.Logger
}

// Service implements Synthesizer with chunked concurrent download and
// in-memory WAV merging.
type Service struct {
	fetch     fetchFunc
	chunkSize int
	workers   int
	log       zerolog.Logger
}

// NewService creates a synthesis service from configuration.
func NewService(cfg Config) (*Service, error) {
	const op = "NewService"

	if cfg.APIKey == "" {
		return nil, wrapError(op, ErrMissingAPIKey, "")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://tts.api.yating.tw/v2/speeches/short"
	}
	if cfg.Voice.Model == "" {
		cfg.Voice = Voice{Model: "tai_female_1", Speed: 1.0, Pitch: 1.0, Energy: 1.0}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 80
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	client := &Client{
		httpClient:  cfg.HTTPClient,
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		voice:       cfg.Voice,
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.Timeout,
		retryDelay:  cfg.RetryDelay,
		log:         cfg.Logger,
	}

	return &Service{
		fetch:     client.FetchChunk,
		chunkSize: cfg.ChunkSize,
		workers:   cfg.Workers,
		log:       cfg.Logger,
	}, nil
}

// Synthesize runs the full pipeline: validate, segment, download all chunks,
// check completeness, merge. Partial audio is never returned; if fewer
// chunks succeed than were submitted the job fails with an
// IncompleteSynthesisError and the partial results are discarded.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	const op = "Synthesize"
	startTime := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, wrapError(op, ErrEmptyInput, "")
	}

	chunks := Split(text, s.chunkSize)
	s.log.Info().
		Int("chunks", len(chunks)).
		Int("chunk_limit", s.chunkSize).
		Msg("Text segmented")

	downloader := &pool{workers: s.workers, fetch: s.fetch, log: s.log}
	parts := downloader.run(ctx, chunks)

	if len(parts) != len(chunks) {
		missing := len(chunks) - len(parts)
		s.log.Error().
			Int("missing", missing).
			Int("total", len(chunks)).
			Msg("Synthesis incomplete, discarding partial results")
		return nil, &IncompleteSynthesisError{Missing: missing, Total: len(chunks)}
	}

	merged, err := wav.Merge(parts)
	if err != nil {
		return nil, wrapError("Merge", err, "")
	}

	s.log.Info().
		Int("chunks", len(chunks)).
		Int("bytes", len(merged)).
		Dur("duration", time.Since(startTime)).
		Msg("Synthesis completed")
	return merged, nil
}
