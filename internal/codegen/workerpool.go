package codegen

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerCount returns the bounded worker pool size spec.md §5 recommends
// for node-level concurrency within a stage: min(8, nodes/4), floored at 1
// so a small job still gets a worker.
func WorkerCount(nodes int) int {
	n := nodes / 4
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// runBounded runs fn(ctx, i) for every i in [0, n) with at most workers
// goroutines in flight at once, blocking until all have returned. It wraps
// ctx in an errgroup.Group so cancellation (parent ctx.Done, or a
// cancellation signal from the orchestrator per spec.md §5) actually
// propagates to every in-flight call's context, rather than only gating
// new work from starting.
func runBounded(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fn(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
}
