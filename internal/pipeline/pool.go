package pipeline

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/texopt-project/texopt/internal/config"
)

// Progress is invoked after each unit completes, with the number of
// completed units so far, the total, and the unit's relative path. Calls
// are serialized; completion order is not deterministic under the pool.
type Progress func(done, total int, rel string)

// workerCount resolves the configured job count; zero means one worker
// per CPU, leaving one core free.
func workerCount(cfg *config.Settings) int {
	if cfg.Parallel.Jobs > 0 {
		return cfg.Parallel.Jobs
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// runAll maps fn over items, in a worker pool when parallel is set.
// Results land at the index of their item, so aggregation never depends
// on completion order. fn must capture per-unit failures in its result;
// runAll itself never aborts mid-batch.
func runAll[T any](ctx context.Context, items []string, parallel bool, workers int, progress Progress, fn func(context.Context, string) T) []T {
	results := make([]T, len(items))
	total := len(items)

	if !parallel || total <= 1 {
		for i, item := range items {
			results[i] = fn(ctx, item)
			if progress != nil {
				progress(i+1, total, item)
			}
		}
		return results
	}

	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(ctx, item)
			if progress != nil {
				mu.Lock()
				done++
				progress(done, total, item)
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors; failures live in the results.
	_ = g.Wait()
	return results
}
