package tts

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func makeChunks(n int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{Index: i, Text: fmt.Sprintf("chunk-%d", i)}
	}
	return chunks
}

func TestPoolCollectsAllResultsByIndex(t *testing.T) {
	p := &pool{
		workers: 3,
		log:     zerolog.Nop(),
		fetch: func(ctx context.Context, chunk Chunk) ([]byte, error) {
			// Reverse-staggered completion: higher indices finish first.
			time.Sleep(time.Duration(10-chunk.Index) * time.Millisecond)
			return []byte(chunk.Text), nil
		},
	}

	results := p.run(context.Background(), makeChunks(8))
	if len(results) != 8 {
		t.Fatalf("len(results) = %d, want 8", len(results))
	}
	for i := 0; i < 8; i++ {
		if string(results[i]) != fmt.Sprintf("chunk-%d", i) {
			t.Errorf("results[%d] = %q", i, results[i])
		}
	}
}

func TestPoolFailedChunkLeavesNoEntry(t *testing.T) {
	p := &pool{
		workers: 2,
		log:     zerolog.Nop(),
		fetch: func(ctx context.Context, chunk Chunk) ([]byte, error) {
			if chunk.Index == 3 {
				return nil, errors.New("gave up")
			}
			return []byte{0}, nil
		},
	}

	results := p.run(context.Background(), makeChunks(6))
	if len(results) != 5 {
		t.Errorf("len(results) = %d, want 5", len(results))
	}
	if _, ok := results[3]; ok {
		t.Error("failed chunk has a result entry")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	p := &pool{
		workers: 2,
		log:     zerolog.Nop(),
		fetch: func(ctx context.Context, chunk Chunk) ([]byte, error) {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return []byte{0}, nil
		},
	}

	p.run(context.Background(), makeChunks(10))
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestPoolEmptyInput(t *testing.T) {
	p := &pool{
		workers: 2,
		log:     zerolog.Nop(),
		fetch: func(ctx context.Context, chunk Chunk) ([]byte, error) {
			t.Error("fetch called for empty input")
			return nil, nil
		},
	}
	if results := p.run(context.Background(), nil); len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
}
