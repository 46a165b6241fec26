// Package workers provides the bounded fan-out used at every parallel
// step of the recommendation cascade. Pools are short-lived: one per
// call, sized to the work, gone when the call returns. All result
// handling happens on the caller's goroutine, so consumers never need
// their own locking.
package workers

import (
	"context"
	"sync"
)

// clampWorkers keeps pool sizes sane for tiny or empty batches.
func clampWorkers(n, jobs int) int {
	if n < 1 {
		n = 1
	}
	if jobs > 0 && n > jobs {
		n = jobs
	}
	return n
}

// Map runs fn over items with at most n concurrent workers and returns
// every result. Result order follows completion, not submission.
func Map[T, R any](ctx context.Context, n int, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, 0, len(items))
	Collect(ctx, n, items, fn, func(r R) bool {
		results = append(results, r)
		return true
	})
	return results
}

// Collect runs fn over items with at most n concurrent workers and
// feeds each result to consume on the calling goroutine, in completion
// order. When consume returns false no further items are submitted;
// work already in flight still completes and is drained, but its
// results are discarded.
func Collect[T, R any](ctx context.Context, n int, items []T, fn func(context.Context, T) R, consume func(R) bool) {
	if len(items) == 0 {
		return
	}

	n = clampWorkers(n, len(items))

	jobs := make(chan T)
	results := make(chan R)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- fn(ctx, item)
			}
		}()
	}

	// Feeder stops handing out work once the consumer bails or the
	// context dies; workers then drain and exit.
	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case jobs <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	accepting := true
	for r := range results {
		if accepting && !consume(r) {
			accepting = false
			close(stop)
		}
	}
}
