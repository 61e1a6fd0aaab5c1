// Package bulk runs independent per-item work on a bounded worker pool.
package bulk

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
)

// Operation represents a bulk operation configuration
type Operation struct {
	// Jobs bounds the number of concurrent workers; zero uses one per CPU.
	Jobs int
	// ContinueOnError keeps dispatching items after a failure. Otherwise
	// items not yet started are skipped once any item fails.
	ContinueOnError bool
}

// Result represents the result of a bulk operation
type Result struct {
	TotalItems int
	Succeeded  int
	Failed     int
	Skipped    int
	Errors     []ItemError
}

// ItemError represents an error for a specific item
type ItemError struct {
	Index int
	Err   error
}

// ItemFunc processes the item at index i.
type ItemFunc func(ctx context.Context, i int) error

// Execute runs fn for every index in [0, n). Errors are returned ordered by
// index. Cancelling ctx skips items that have not started.
func (op *Operation) Execute(ctx context.Context, n int, fn ItemFunc) *Result {
	result := &Result{TotalItems: n}
	if n == 0 {
		return result
	}

	workers := op.Jobs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	queue := make(chan int, n)
	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)

	var (
		succeeded int32
		failed    int32
		stop      int32
		mu        sync.Mutex
		wg        sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil || atomic.LoadInt32(&stop) == 1 {
					continue
				}

				if err := fn(ctx, i); err != nil {
					atomic.AddInt32(&failed, 1)
					mu.Lock()
					result.Errors = append(result.Errors, ItemError{Index: i, Err: err})
					mu.Unlock()
					if !op.ContinueOnError {
						atomic.StoreInt32(&stop, 1)
					}
					continue
				}
				atomic.AddInt32(&succeeded, 1)
			}
		}()
	}
	wg.Wait()

	sort.Slice(result.Errors, func(a, b int) bool { return result.Errors[a].Index < result.Errors[b].Index })
	result.Succeeded = int(succeeded)
	result.Failed = int(failed)
	result.Skipped = n - result.Succeeded - result.Failed
	return result
}
