package install

import (
	"context"
	"sync"
	"sync/atomic"
)

// runJobs verifies and fetches jobs on the worker pool. The first failure
// cancels the remaining work and is returned. A stop request lets
// in-flight jobs finish and starts no new ones.
func (r *run) runJobs(ctx context.Context, stage Stage, jobs []job) error {
	if len(jobs) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create work channel
	workChan := make(chan job, len(jobs))
	for _, j := range jobs {
		workChan <- j
	}
	close(workChan)

	var (
		settled  atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	total := len(jobs)

	workers := min(r.opts.Workers, total)

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workChan {
				if ctx.Err() != nil || r.t.stopping() {
					return
				}

				r.progress(Progress{
					Stage: stage,
					Label: string(stage),
					Item:  j.item,
					Done:  int(settled.Load()),
					Total: total,
				})

				if err := r.ensure(ctx, stage, j); err != nil {
					errOnce.Do(func() {
						firstErr = annotate(err, j.annotate)
						cancel()
					})
					return
				}
				settled.Add(1)
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if r.t.stopping() && int(settled.Load()) < total {
		return ErrStopped
	}
	if int(settled.Load()) < total {
		return deadlineError(stage, ctx.Err())
	}

	r.progress(Progress{Stage: stage, Label: string(stage), Done: total, Total: total})
	return nil
}
