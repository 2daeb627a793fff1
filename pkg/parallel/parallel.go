// Package parallel splits index ranges across a bounded set of goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested worker count: values below 1 mean "one per CPU".
func Workers(n int) int {
	if n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Chunks calls fn over contiguous sub-ranges [start, end) covering [0, total).
// With workers <= 1 (or a tiny range) fn runs once on the calling goroutine.
// Chunks returns only after every chunk has finished, with the first error seen.
func Chunks(total, workers int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if workers <= 1 || total < 2 {
		return fn(0, total)
	}
	if workers > total {
		workers = total
	}

	var g errgroup.Group
	g.SetLimit(workers)

	chunkSize := (total + workers - 1) / workers
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}

// Rows is Chunks specialised to per-row work on an n-row grid.
func Rows(n, workers int, fn func(row int) error) error {
	return Chunks(n, workers, func(start, end int) error {
		for row := start; row < end; row++ {
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	})
}
