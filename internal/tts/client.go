package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"docvoice/internal/wav"
)

// Voice holds the synthesis voice parameters sent with every chunk.
type Voice struct {
	Model  string  `json:"model"`
	Speed  float64 `json:"speed"`
	Pitch  float64 `json:"pitch"`
	Energy float64 `json:"energy"`
}

type requestInput struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type requestAudioConfig struct {
	Encoding   string `json:"encoding"`
	SampleRate string `json:"sampleRate"`
}

type synthesisRequest struct {
	Input       requestInput       `json:"input"`
	Voice       Voice              `json:"voice"`
	AudioConfig requestAudioConfig `json:"audioConfig"`
}

type synthesisResponse struct {
	AudioContent string `json:"audioContent"`
}

// Client fetches synthesized audio for single chunks from the Yating
// short-speech endpoint, retrying transient failures with a fixed delay.
// Chunks are small, so a retry is cheap; failures are typically connectivity
// blips rather than load shedding, hence no exponential backoff.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	voice       Voice
	maxAttempts int
	timeout     time.Duration
	retryDelay  time.Duration
	log         zerolog.Logger
}

// FetchChunk downloads the synthesized audio for one chunk. Each attempt is
// bounded by the per-request timeout; attempts are separated by a fixed
// delay. The returned error is the last attempt's classified failure and is
// absorbed by the download pool, never surfaced to the synthesis caller.
func (c *Client) FetchChunk(ctx context.Context, chunk Chunk) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		data, err := c.doAttempt(ctx, chunk)
		if err == nil {
			c.log.Debug().
				Int("chunk", chunk.Index).
				Int("attempt", attempt).
				Int("bytes", len(data)).
				Msg("Chunk downloaded")
			return data, nil
		}
		lastErr = err

		c.log.Warn().
			Err(err).
			Int("chunk", chunk.Index).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Msg("Chunk download attempt failed")

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	return nil, fmt.Errorf("chunk %d failed after %d attempts: %w", chunk.Index, c.maxAttempts, lastErr)
}

// doAttempt performs one POST and classifies any failure as transport error,
// unexpected status, malformed payload or invalid audio.
func (c *Client) doAttempt(ctx context.Context, chunk Chunk) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(synthesisRequest{
		Input: requestInput{Text: chunk.Text, Type: "text"},
		Voice: c.voice,
		AudioConfig: requestAudioConfig{
			Encoding:   "LINEAR16",
			SampleRate: "16K",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnexpectedStatus)
	}

	var parsed synthesisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding body: %w", ErrMalformedPayload)
	}
	if parsed.AudioContent == "" {
		return nil, fmt.Errorf("missing audioContent: %w", ErrMalformedPayload)
	}

	data, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audioContent: %w", ErrMalformedPayload)
	}
	if !wav.IsRIFF(data) {
		return nil, fmt.Errorf("%d byte payload: %w", len(data), ErrInvalidAudio)
	}

	return data, nil
}
