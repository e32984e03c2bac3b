package scanner

import (
	"context"
	"iter"
	"sync"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 128

// ProbeFunc probes a single target. It must return promptly once ctx is done.
type ProbeFunc[R any] func(ctx context.Context, target string) R

// Options configures the sweep.
type Options struct {
	Workers int
	// Buffer sizes the jobs and results channels. Defaults to Workers.
	Buffer int
}

// Sweep pulls targets lazily from the sequence and hands them to a bounded pool
// of workers. Results are streamed on the returned channel, which is closed
// once every dispatched target has been probed. When ctx is cancelled no new
// targets are dispatched; probes already running still deliver a result.
func Sweep[R any](ctx context.Context, targets iter.Seq[string], opts Options, probe ProbeFunc[R]) <-chan R {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = workers
	}

	jobs := make(chan string, buffer)
	results := make(chan R, buffer)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for target := range jobs {
			results <- probe(ctx, target)
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

	go func() {
	enqueue:
		for target := range targets {
			select {
			case <-ctx.Done():
				break enqueue
			case jobs <- target:
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	return results
}
