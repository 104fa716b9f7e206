// Package batch runs work over many apps in fixed-size, paced batches.
//
// Items within a batch run concurrently; the runner waits for the whole
// batch, pauses, then starts the next one. Cancellation is observed only
// between batches, so in-flight items always finish.
package batch

import (
	"context"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	concpool "github.com/sourcegraph/conc/pool"
)

var logger = logging.Get("batch")

// Default pacing.
const (
	DefaultWidth = 5
	DefaultPause = 500 * time.Millisecond
)

// Progress is reported after each batch.
type Progress struct {
	Batch   int
	Batches int
	Done    int
	Total   int
	Failed  int
}

// Runner configures batch execution.
type Runner struct {
	// Width is the number of items per batch.
	Width int

	// Pause is the delay between batches.
	Pause time.Duration

	// OnProgress is called after each batch from the calling goroutine.
	OnProgress func(Progress)
}

// DefaultRunner returns a runner with the default width and pause.
func DefaultRunner() Runner {
	return Runner{Width: DefaultWidth, Pause: DefaultPause}
}

// Result is the outcome of one item.
type Result[T any] struct {
	Item T
	Err  error
}

// Report summarizes a run. Results are in input order and only cover the
// items that were started.
type Report[T any] struct {
	Results []Result[T]
}

// Failed returns the results that carry an error.
func (r *Report[T]) Failed() []Result[T] {
	var out []Result[T]
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded returns how many items finished without error.
func (r *Report[T]) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

// Run applies fn to every item. Item errors are recorded, not returned; the
// returned error is the context error when the run was cancelled between
// batches.
func Run[T any](ctx context.Context, r Runner, items []T, fn func(context.Context, T) error) (*Report[T], error) {
	width := r.Width
	if width < 1 {
		width = DefaultWidth
	}
	batches := (len(items) + width - 1) / width
	report := &Report[T]{}
	failed := 0

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			logger.Info("batch run cancelled", "done", len(report.Results), "total", len(items))
			return report, err
		}

		start := b * width
		end := min(start+width, len(items))
		chunk := items[start:end]
		errs := make([]error, len(chunk))

		p := concpool.New().WithMaxGoroutines(width)
		for i, item := range chunk {
			p.Go(func() {
				errs[i] = fn(ctx, item)
			})
		}
		p.Wait()

		for i, item := range chunk {
			if errs[i] != nil {
				failed++
			}
			report.Results = append(report.Results, Result[T]{Item: item, Err: errs[i]})
		}

		logger.Debug("batch complete", "batch", b+1, "of", batches, "failed", failed)
		if r.OnProgress != nil {
			r.OnProgress(Progress{Batch: b + 1, Batches: batches, Done: end, Total: len(items), Failed: failed})
		}

		if end < len(items) && r.Pause > 0 {
			t := time.NewTimer(r.Pause)
			select {
			case <-ctx.Done():
				t.Stop()
			case <-t.C:
			}
		}
	}
	return report, nil
}
