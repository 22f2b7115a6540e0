package recognition

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// modelFamilyMarker filters the discovery listing to usable models; the
	// OpenAI-compatible listing carries no capability field.
	modelFamilyMarker = "gemini"

	// fastTierMarker ranks cheap low-latency models before all others.
	fastTierMarker = "flash"
)

// generationClient is the subset of the go-openai client the failover loop
// needs. *openai.Client satisfies it.
type generationClient interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds configuration for the Gemini recognition service.
type Config struct {
	// APIKey is the Gemini API key. Required.
	APIKey string

	// BaseURL is the OpenAI-compatible endpoint. Defaults to the public one.
	BaseURL string

	// FallbackModels overrides the static candidate list. Defaults to
	// FallbackModels.
	FallbackModels []string

	// Logger receives per-candidate progress; defaults to a disabled logger.
	Logger zerolog.Logger
}

// GeminiService implements Recognizer against Gemini's OpenAI-compatible API.
type GeminiService struct {
	client   generationClient
	fallback []string
	log      zerolog.Logger
}

// NewGeminiService creates a recognition service from configuration.
func NewGeminiService(cfg Config) (*GeminiService, error) {
	const op = "NewGeminiService"

	if cfg.APIKey == "" {
		return nil, wrapError(op, ErrMissingAPIKey, "")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	} else {
		clientCfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}

	fallback := cfg.FallbackModels
	if len(fallback) == 0 {
		fallback = FallbackModels
	}

	return &GeminiService{
		client:   openai.NewClientWithConfig(clientCfg),
		fallback: fallback,
		log:      cfg.Logger,
	}, nil
}

// Recognize sends (prompt, image) to candidate models in priority order.
// The first model returning non-empty text wins; later candidates are never
// invoked. If every candidate fails, the returned error wraps ErrExhausted
// and carries the last underlying failure.
func (s *GeminiService) Recognize(ctx context.Context, image []byte, prompt string) (string, error) {
	const op = "Recognize"
	startTime := time.Now()

	if len(image) == 0 {
		return "", wrapError(op, ErrEmptyImage, "")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", wrapError(op, ErrEmptyPrompt, "")
	}

	candidates := s.candidateModels(ctx)

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	var lastErr error

	for _, cand := range candidates {
		s.log.Info().Str("model", cand.ID).Msg("Trying candidate model")

		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: cand.ID,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{Type: openai.ChatMessagePartTypeText, Text: prompt},
						{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
						},
					},
				},
			},
		})
		if err != nil {
			s.log.Warn().Err(err).Str("model", cand.ID).Msg("Candidate model failed")
			lastErr = err
			continue
		}

		if len(resp.Choices) > 0 {
			if text := strings.TrimSpace(resp.Choices[0].Message.Content); text != "" {
				s.log.Info().
					Str("model", cand.ID).
					Int("text_length", len(text)).
					Dur("duration", time.Since(startTime)).
					Msg("Recognition succeeded")
				return text, nil
			}
		}
		s.log.Warn().Str("model", cand.ID).Msg("Candidate model returned empty text")
	}

	detail := fmt.Sprintf("%d candidates tried", len(candidates))
	if lastErr != nil {
		detail = fmt.Sprintf("%s, last error: %v", detail, lastErr)
	}
	return "", wrapError(op, ErrExhausted, detail)
}

// candidateModels returns the failover order: the dynamically discovered
// model list when available, the static fallback otherwise.
func (s *GeminiService) candidateModels(ctx context.Context) []ModelCandidate {
	list, err := s.client.ListModels(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Model discovery failed, using fallback list")
		return rankCandidates(s.fallback)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if strings.Contains(strings.ToLower(m.ID), modelFamilyMarker) {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		s.log.Warn().Msg("Model discovery returned no usable models, using fallback list")
		return rankCandidates(s.fallback)
	}

	return rankCandidates(ids)
}

// rankCandidates orders model IDs for failover: fast-tier models first,
// discovery order preserved within a tier.
func rankCandidates(ids []string) []ModelCandidate {
	candidates := make([]ModelCandidate, len(ids))
	for i, id := range ids {
		priority := 1
		if strings.Contains(strings.ToLower(id), fastTierMarker) {
			priority = 0
		}
		candidates[i] = ModelCandidate{ID: id, Priority: priority}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
	return candidates
}
