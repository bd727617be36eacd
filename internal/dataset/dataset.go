// Package dataset generates the random input arrays reduced by the
// application.
//
// Generation is split into fixed-size chunks, each driven by its own PCG
// stream keyed by (seed, chunk index). The output therefore depends only on
// the size, the bound and the seed, never on how many goroutines filled it.
package dataset

import (
	"context"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/forkjoin/internal/errors"
)

// ChunkSize is the number of values produced from a single PCG stream.
const ChunkSize = 1 << 16

// Generate returns size values drawn uniformly from [0, bound), filled in
// parallel on up to runtime.NumCPU() goroutines.
//
// Parameters:
//   - ctx: Checked between chunks; cancellation aborts generation.
//   - size: The number of values, must be positive.
//   - bound: The exclusive upper bound, must be positive.
//   - seed: Selects the pseudo-random sequence.
//
// Returns:
//   - []int64: The generated values.
//   - error: A ValidationError for bad arguments, or the context error.
func Generate(ctx context.Context, size int, bound int64, seed uint64) ([]int64, error) {
	return GenerateWithWorkers(ctx, size, bound, seed, runtime.NumCPU())
}

// GenerateWithWorkers is Generate with an explicit goroutine limit. A
// non-positive workers value means runtime.NumCPU().
func GenerateWithWorkers(ctx context.Context, size int, bound int64, seed uint64, workers int) ([]int64, error) {
	if size <= 0 {
		return nil, apperrors.ValidationError{Field: "size", Message: "must be greater than zero"}
	}
	if bound <= 0 {
		return nil, apperrors.ValidationError{Field: "bound", Message: "must be greater than zero"}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	data := make([]int64, size)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for chunk := 0; chunk*ChunkSize < size; chunk++ {
		start := chunk * ChunkSize
		end := min(start+ChunkSize, size)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fillChunk(data[start:end], bound, seed, uint64(chunk))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.WrapError(err, "generating %d values", size)
	}
	return data, nil
}

func fillChunk(dst []int64, bound int64, seed, stream uint64) {
	rng := rand.New(rand.NewPCG(seed, stream))
	for i := range dst {
		dst[i] = rng.Int64N(bound)
	}
}
