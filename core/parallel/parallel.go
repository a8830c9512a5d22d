// Package parallel runs CPU-bound work on a bounded number of goroutines.
package parallel

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mibench/mibench/pkg/errors"
)

// Chunks splits [0, items) into at most Workers(workers) contiguous ranges of
// near-equal size and calls fn(start, end) for each range on its own
// goroutine. Every range runs to completion; the error of the lowest range
// that failed is returned. A panic inside fn is returned as *errors.PanicError.
func Chunks(items, workers int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	numWorkers := min(Workers(workers), items)

	// ceiling division so that numWorkers ranges cover every item
	chunkSize := (items + numWorkers - 1) / numWorkers
	errs := make([]error, numWorkers)

	var g errgroup.Group
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, items)
		if start >= end {
			continue
		}
		g.Go(func() error {
			errs[w] = errors.SafeExecute(fmt.Sprintf("range [%d, %d)", start, end), func() error {
				return fn(start, end)
			})
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
