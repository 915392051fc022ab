// Package parallel splits index ranges across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16, // Whole graph evaluations per goroutine.
	}
}

// Range is the half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns End - Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// Chunks splits [0, n) into contiguous ranges, one per goroutine.
// Returns a single range when parallelism is disabled or n is too small,
// and no ranges when n is zero.
func Chunks(n int, cfg Config) []Range {
	if n <= 0 {
		return nil
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize {
		return []Range{{0, n}}
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
	ranges := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		ranges = append(ranges, Range{start, min(start+chunkSize, n)})
	}
	return ranges
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForChunk(n, func(r Range) {
		for i := r.Start; i < r.End; i++ {
			f(i)
		}
	}, cfg)
}

// ForChunk executes f once per range of Chunks(n, cfg), concurrently when
// there is more than one. Per-chunk scratch state (such as an evaluation
// workspace) can be allocated once inside f.
func ForChunk(n int, f func(r Range), cfg Config) {
	ranges := Chunks(n, cfg)
	if len(ranges) <= 1 {
		for _, r := range ranges {
			f(r)
		}
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(r Range) {
			defer wg.Done()
			f(r)
		}(r)
	}
	wg.Wait()
}
