// Package workpool runs a batch of blocking calls on a bounded number of
// goroutines with a per-call and an overall deadline.
package workpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDeadline is recorded for jobs that had not finished when the overall
// deadline expired.
var ErrDeadline = errors.New("overall deadline exceeded")

// Job is a single unit of work. It must honor ctx.
type Job[T any] func(ctx context.Context) (T, error)

// Result pairs a job's output with its position in the submitted batch.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool holds the concurrency and timeout settings shared by every batch.
type Pool struct {
	Workers     int
	CallTimeout time.Duration
	// Grace is added to CallTimeout to form the overall deadline.
	Grace time.Duration
}

// New returns a Pool. Non-positive workers default to 1.
func New(workers int, callTimeout, grace time.Duration) Pool {
	if workers <= 0 {
		workers = 1
	}
	return Pool{Workers: workers, CallTimeout: callTimeout, Grace: grace}
}

// Run executes jobs and returns one Result per job in submission order.
// A failing job never cancels its siblings. When the overall deadline
// (CallTimeout + Grace) passes, Run returns immediately and every job that
// had not reported is marked with ErrDeadline; late results are discarded.
func Run[T any](ctx context.Context, p Pool, jobs []Job[T]) []Result[T] {
	results := make([]Result[T], len(jobs))
	for i := range results {
		results[i] = Result[T]{Index: i, Err: ErrDeadline}
	}
	if len(jobs) == 0 {
		return results
	}

	runCtx := ctx
	if p.CallTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.CallTimeout+p.Grace)
		defer cancel()
	}

	var (
		mu     sync.Mutex
		closed bool
	)
	record := func(r Result[T]) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			results[r.Index] = r
		}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, job := range jobs {
			if runCtx.Err() != nil {
				return
			}
			g.Go(func() error {
				callCtx := runCtx
				if p.CallTimeout > 0 {
					var cancel context.CancelFunc
					callCtx, cancel = context.WithTimeout(runCtx, p.CallTimeout)
					defer cancel()
				}
				v, err := job(callCtx)
				record(Result[T]{Index: i, Value: v, Err: err})
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-runCtx.Done():
	}

	mu.Lock()
	closed = true
	out := make([]Result[T], len(results))
	copy(out, results)
	mu.Unlock()
	return out
}
