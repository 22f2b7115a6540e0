package tts

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// fetchFunc downloads the audio for one chunk, retries included.
type fetchFunc func(ctx context.Context, chunk Chunk) ([]byte, error)

// pool fans chunk downloads out over a bounded number of workers. The bound
// doubles as the provider rate-limit mitigation: it caps how many requests
// are in flight at once.
type pool struct {
	workers int
	fetch   fetchFunc
	log     zerolog.Logger
}

// run executes every chunk and returns the audio keyed by chunk index, with
// entries only for the chunks that succeeded. Completion order is
// unconstrained; consumers index by key. A chunk whose fetch fails leaves no
// entry — absence is the failure signal checked by the completeness
// invariant downstream.
func (p *pool) run(ctx context.Context, chunks []Chunk) map[int][]byte {
	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	tasks := make(chan Chunk)
	results := make(map[int][]byte, len(chunks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range tasks {
				data, err := p.fetch(ctx, chunk)
				if err != nil {
					p.log.Error().Err(err).Int("chunk", chunk.Index).Msg("Chunk gave up after all attempts")
					continue
				}
				mu.Lock()
				results[chunk.Index] = data
				mu.Unlock()
			}
		}()
	}

	for _, chunk := range chunks {
		tasks <- chunk
	}
	close(tasks)
	wg.Wait()

	return results
}
