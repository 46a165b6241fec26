package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapReturnsAllResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results := Map(context.Background(), 3, items, func(_ context.Context, n int) int {
		return n * 2
	})

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}

	sum := 0
	for _, r := range results {
		sum += r
	}
	if sum != 30 {
		t.Errorf("result sum = %d, want 30", sum)
	}
}

func TestMapEmptyInput(t *testing.T) {
	results := Map(context.Background(), 3, nil, func(_ context.Context, n int) int { return n })
	if len(results) != 0 {
		t.Errorf("got %d results for empty input, want 0", len(results))
	}
}

func TestConcurrencyBound(t *testing.T) {
	var active, peak atomic.Int32
	var mu sync.Mutex

	items := make([]int, 20)
	Map(context.Background(), 3, items, func(_ context.Context, _ int) struct{} {
		now := active.Add(1)
		mu.Lock()
		if now > peak.Load() {
			peak.Store(now)
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return struct{}{}
	})

	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestCollectStopsSubmittingWhenConsumerBails(t *testing.T) {
	var processed atomic.Int32

	items := make([]int, 100)
	accepted := 0
	Collect(context.Background(), 2, items, func(_ context.Context, _ int) int {
		processed.Add(1)
		time.Sleep(time.Millisecond)
		return 1
	}, func(int) bool {
		accepted++
		return accepted < 5
	})

	// In-flight work may complete after the stop signal, but nowhere
	// near the full batch should have been submitted.
	if p := processed.Load(); p >= 100 {
		t.Errorf("processed %d items, expected early stop to skip most of the batch", p)
	}
	if accepted != 5 {
		t.Errorf("consumer accepted %d results, want exactly 5", accepted)
	}
}

func TestCollectConsumeRunsOnCallerGoroutine(t *testing.T) {
	// The consumer mutates shared state without locks; the race
	// detector will flag this test if results are ever delivered from
	// worker goroutines.
	seen := map[int]int{}
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Collect(context.Background(), 4, items, func(_ context.Context, n int) int {
		return n
	}, func(n int) bool {
		seen[n]++
		return true
	})

	if len(seen) != len(items) {
		t.Errorf("consumed %d distinct results, want %d", len(seen), len(items))
	}
}

func TestCollectHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	items := make([]int, 1000)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Collect(ctx, 2, items, func(_ context.Context, _ int) int {
			processed.Add(1)
			time.Sleep(5 * time.Millisecond)
			return 0
		}, func(int) bool { return true })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Collect did not return after context cancellation")
	}
	if p := processed.Load(); p >= 1000 {
		t.Errorf("processed %d items despite cancellation", p)
	}
}
