package install

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aayushdutt/mcinstall/internal/core"
)

// ErrStopped is returned by Wait and passed to OnError listeners when a
// task ends in StateStopped.
var ErrStopped = errors.New("install stopped")

// Task is one run of the install pipeline.
//
// Listeners must be registered before Start. They are called one at a
// time, possibly from worker goroutines.
type Task struct {
	in  *Installer
	req Request
	id  string
	log *log.Logger

	mu     sync.Mutex
	state  State
	err    error
	result *Result
	done   chan struct{}

	stopReq atomic.Bool

	emitMu     sync.Mutex
	onProgress []func(Progress)
	onFinished []func(*Result)
	onError    []func(error)
}

// ID returns the run id
func (t *Task) ID() string { return t.id }

// Request returns what the task installs
func (t *Task) Request() Request { return t.req }

// OnProgress registers a progress listener
func (t *Task) OnProgress(fn func(Progress)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.onProgress = append(t.onProgress, fn)
}

// OnFinished registers a listener for successful completion
func (t *Task) OnFinished(fn func(*Result)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.onFinished = append(t.onFinished, fn)
}

// OnError registers a listener for failure or stop
func (t *Task) OnError(fn func(error)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.onError = append(t.onError, fn)
}

// State returns the current state
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure once the task has failed or stopped
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Result returns the run summary once the task is done. Partial counts
// are reported for failed and stopped runs.
func (t *Task) Result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Start launches the pipeline in the background. A task can be started
// once.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return fmt.Errorf("task is %s", t.state)
	}
	t.state = StateRunning
	go t.run(ctx)
	return nil
}

// Stop asks the task to stop at the next item or stage boundary.
// Downloads already in flight are allowed to finish. Stopping an idle
// task moves it straight to StateStopped.
func (t *Task) Stop() {
	t.stopReq.Store(true)

	t.mu.Lock()
	idle := t.state == StateIdle
	if idle {
		t.state = StateStopped
		t.err = ErrStopped
		close(t.done)
	}
	t.mu.Unlock()

	if idle {
		t.emitError(ErrStopped)
	}
}

// Wait blocks until the task is done. It returns nil when the task
// finished, ErrStopped when it was stopped, and the failure otherwise.
func (t *Task) Wait() error {
	<-t.done
	return t.Err()
}

// Run starts the task and waits for it
func (t *Task) Run(ctx context.Context) error {
	if err := t.Start(ctx); err != nil {
		return err
	}
	return t.Wait()
}

func (t *Task) stopping() bool {
	return t.stopReq.Load()
}

func (t *Task) run(ctx context.Context) {
	r := newRun(t)
	err := t.execute(ctx, r)

	state := StateFinished
	switch {
	case err == nil:
	case errors.Is(err, ErrStopped) || errors.Is(ctx.Err(), context.Canceled):
		state, err = StateStopped, ErrStopped
	default:
		state = StateFailed
	}

	result := r.result()

	t.mu.Lock()
	t.state = state
	t.err = err
	t.result = result
	t.mu.Unlock()

	switch state {
	case StateFinished:
		t.log.Info("install finished", "verified", result.Verified, "downloaded", result.Downloaded, "elapsed", result.Elapsed.Round(time.Millisecond))
		t.emitFinished(result)
	case StateStopped:
		t.log.Warn("install stopped")
		t.emitError(err)
	default:
		t.log.Error("install failed", "err", err)
		t.emitError(err)
	}
	close(t.done)
}

func (t *Task) execute(ctx context.Context, r *run) error {
	key := t.in.opts.Store.Root() + "\x00" + t.req.VersionID
	steps := r.steps()
	unlock, err := t.in.locks.Lock(ctx, key)
	if err != nil {
		return deadlineError(steps[0].stage, err)
	}
	defer unlock()

	for i, step := range steps {
		if t.stopping() {
			return ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return deadlineError(step.stage, err)
		}

		r.stageIndex, r.stageCount = i, len(steps)
		t.log.Info(step.label, "stage", step.stage)
		r.progress(Progress{Stage: step.stage, Label: step.label})

		if err := step.fn(ctx); err != nil {
			if errors.Is(err, ErrStopped) {
				return err
			}
			return core.WithStage(err, string(step.stage))
		}
	}
	return nil
}

// deadlineError reports an expired deadline as a transfer failure of
// stage. Cancellation is left alone; it ends the task as stopped.
func deadlineError(stage Stage, err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	kind := core.KindFetchFailed
	switch stage {
	case StageClient, StageLibraries, StageAssets:
		kind = core.KindDownloadFailed
	}
	return &core.Error{Kind: kind, Stage: string(stage), Err: err}
}

func (t *Task) emitProgress(p Progress) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	for _, fn := range t.onProgress {
		fn(p)
	}
}

func (t *Task) emitFinished(r *Result) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	for _, fn := range t.onFinished {
		fn(r)
	}
}

func (t *Task) emitError(err error) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	for _, fn := range t.onError {
		fn(err)
	}
}
