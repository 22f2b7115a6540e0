package tts

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"docvoice/internal/wav"
)

// newFakeService wires the orchestrator to an in-process fetch function.
func newFakeService(chunkSize int, fetch fetchFunc) *Service {
	return &Service{
		fetch:     fetch,
		chunkSize: chunkSize,
		workers:   2,
		log:       zerolog.Nop(),
	}
}

func fetchValidWAV(ctx context.Context, chunk Chunk) ([]byte, error) {
	// Two frames of silence per chunk, tagged with the index so merge order
	// is observable.
	return testWAV([]byte{byte(chunk.Index), 0, byte(chunk.Index), 0}), nil
}

func TestSynthesizeEmptyInputFailsBeforeAnyFetch(t *testing.T) {
	var calls atomic.Int32
	svc := newFakeService(80, func(ctx context.Context, chunk Chunk) ([]byte, error) {
		calls.Add(1)
		return fetchValidWAV(ctx, chunk)
	})

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Synthesize(context.Background(), text); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Synthesize(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("fetches made on empty input: %d", calls.Load())
	}
}

func TestSynthesizeMergesChunksInSourceOrder(t *testing.T) {
	svc := newFakeService(10, fetchValidWAV)

	out, err := svc.Synthesize(context.Background(), "今日真歡喜。天氣很好，出門踏青。")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	params, frames, err := wav.Decode(out)
	if err != nil {
		t.Fatalf("Decode output: %v", err)
	}
	if params.SampleRate != 16000 || params.Channels != 1 {
		t.Errorf("params = %+v", params)
	}
	// Three chunks, four frame bytes each, in index order.
	want := []byte{0, 0, 0, 0, 1, 0, 1, 0, 2, 0, 2, 0}
	if !bytes.Equal(frames, want) {
		t.Errorf("frames = %v, want %v", frames, want)
	}
}

func TestSynthesizeSingleChunkStillSanitizesHeader(t *testing.T) {
	corrupt := testWAV([]byte{1, 2, 3, 4})
	// Lie in the declared data size.
	corrupt[40] = 0xFF
	corrupt[41] = 0xFF

	svc := newFakeService(280, func(ctx context.Context, chunk Chunk) ([]byte, error) {
		return corrupt, nil
	})

	out, err := svc.Synthesize(context.Background(), "短短")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, frames, err := wav.Decode(out); err != nil || len(frames) != 4 {
		t.Errorf("Decode = %d frames, err %v; want 4 frames", len(frames), err)
	}
	if !bytes.Equal(out[40:44], []byte{4, 0, 0, 0}) {
		t.Errorf("declared data size = %v, want 4", out[40:44])
	}
}

func TestSynthesizeFailFastOnMissingChunk(t *testing.T) {
	svc := newFakeService(10, func(ctx context.Context, chunk Chunk) ([]byte, error) {
		if chunk.Index == 1 {
			return nil, errors.New("all attempts failed")
		}
		return fetchValidWAV(ctx, chunk)
	})

	out, err := svc.Synthesize(context.Background(), "今日真歡喜。天氣很好，出門踏青。")
	if out != nil {
		t.Error("partial audio was returned")
	}
	var incomplete *IncompleteSynthesisError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want IncompleteSynthesisError", err)
	}
	if incomplete.Missing != 1 || incomplete.Total != 3 {
		t.Errorf("missing/total = %d/%d, want 1/3", incomplete.Missing, incomplete.Total)
	}
	if !errors.Is(err, ErrIncomplete) {
		t.Error("error does not match ErrIncomplete")
	}
}

func TestSynthesizeParameterMismatchFailsMerge(t *testing.T) {
	svc := newFakeService(10, func(ctx context.Context, chunk Chunk) ([]byte, error) {
		params := wav.Params{Channels: 1, SampleWidth: 2, SampleRate: 16000}
		if chunk.Index == 2 {
			params.SampleRate = 22050
		}
		return wav.Encode(params, []byte{0, 0}), nil
	})

	_, err := svc.Synthesize(context.Background(), "今日真歡喜。天氣很好，出門踏青。")
	if !errors.Is(err, wav.ErrParamsMismatch) {
		t.Errorf("error = %v, want wav.ErrParamsMismatch", err)
	}
}

func TestNewServiceRequiresKey(t *testing.T) {
	if _, err := NewService(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(Config{APIKey: "k", Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if svc.chunkSize != 80 || svc.workers != 2 {
		t.Errorf("chunkSize/workers = %d/%d, want 80/2", svc.chunkSize, svc.workers)
	}
}
