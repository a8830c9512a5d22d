package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mibench/mibench/pkg/errors"
)

// Workers resolves a requested pool size: non-positive values mean one
// worker per CPU, like n_jobs=-1.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// ForEach runs fn(ctx, i) for i in [0, n) on at most workers goroutines.
//
// The first error cancels the context passed to the remaining tasks, no new
// task is started afterwards and ForEach returns that error once every running
// task has returned. Panics inside fn are recovered and returned as
// *errors.PanicError. Each task should write its result into its own slot of a
// preallocated slice indexed by i.
func ForEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return errors.SafeExecute(fmt.Sprintf("task %d", i), func() error {
				return fn(gctx, i)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
