// Package batch runs a list of work items in fixed-size waves: every item in
// a wave runs concurrently, waves run strictly one after another, and a delay
// is slept between waves (never after the last) to stay under upstream rate
// limits. One item's failure never aborts its wave or later waves.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options controls batch sizing and pacing.
type Options struct {
	// Size is the number of items run concurrently per wave. Values below 1
	// are treated as 1.
	Size int

	// Delay is slept between waves, not after the final one.
	Delay time.Duration

	// Sleep is the function used for inter-wave delays. Nil means a
	// context-aware time.Sleep. Tests inject their own to verify pacing
	// without wall time.
	Sleep func(ctx context.Context, d time.Duration)
}

func defaultSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run processes items in waves and returns the successful workers' results
// in item order. A worker error is logged and its item contributes nothing.
func Run[T, R any](ctx context.Context, items []T, opts Options, worker func(context.Context, T) (R, error)) []R {
	size := opts.Size
	if size < 1 {
		size = 1
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	type slot struct {
		value R
		ok    bool
	}

	results := make([]slot, len(items))

	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				value, err := worker(ctx, items[i])
				if err != nil {
					logrus.Warnf("Batch item %d failed: %v", i, err)
					return
				}
				results[i] = slot{value: value, ok: true}
			}(i)
		}
		wg.Wait()

		if end < len(items) {
			sleep(ctx, opts.Delay)
		}
	}

	out := make([]R, 0, len(items))
	for _, s := range results {
		if s.ok {
			out = append(out, s.value)
		}
	}
	return out
}

// Flatten concatenates per-item slice results into one list, preserving
// item order.
func Flatten[R any](groups [][]R) []R {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	out := make([]R, 0, total)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
