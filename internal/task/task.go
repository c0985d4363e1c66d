package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults applied by New when a Spec field is left zero.
const (
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = 200 * time.Millisecond
)

// Spec describes the immutable configuration of a task. Name is the key
// callers use to read the task's result back out of a join; Prompt is the
// opaque work payload handed to the executor; Agent identifies which
// executor role performs the work and is passed through uninterpreted.
type Spec struct {
	Name       string
	Prompt     string
	Agent      string
	Priority   int
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Rule       Rule
	Fallback   string
}

// Task is a single unit of work. The request fields are fixed at
// construction; completion state is written exactly once, by whichever
// goroutine completes the task, and published under a mutex plus a closed
// channel so that concurrent readers never observe a torn result.
type Task struct {
	id   uuid.UUID
	spec Spec

	mu        sync.Mutex
	result    string
	succeeded bool
	completed bool
	done      chan struct{}
	listeners []func()
}

// New constructs a pending task from spec, applying defaults for zero
// timeout and backoff values and clamping negative retry counts to zero.
func New(spec Spec) *Task {
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}
	if spec.Backoff <= 0 {
		spec.Backoff = DefaultBackoff
	}
	if spec.MaxRetries < 0 {
		spec.MaxRetries = 0
	}
	return &Task{
		id:   uuid.New(),
		spec: spec,
		done: make(chan struct{}),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() uuid.UUID { return t.id }

// Name returns the caller-assigned label used as the join-result key.
func (t *Task) Name() string { return t.spec.Name }

// Prompt returns the work payload.
func (t *Task) Prompt() string { return t.spec.Prompt }

// Agent returns the executor role identity.
func (t *Task) Agent() string { return t.spec.Agent }

// Priority returns the scheduling priority; higher runs first.
func (t *Task) Priority() int { return t.spec.Priority }

// Timeout returns the advisory completion bound consulted by join
// operations. It is not enforced inside a running worker.
func (t *Task) Timeout() time.Duration { return t.spec.Timeout }

// MaxRetries returns the number of retry attempts after the first failure.
func (t *Task) MaxRetries() int { return t.spec.MaxRetries }

// Backoff returns the base delay for exponential backoff between retries.
func (t *Task) Backoff() time.Duration { return t.spec.Backoff }

// Rule returns the optional result validation rule, or nil.
func (t *Task) Rule() Rule { return t.spec.Rule }

// Fallback returns the optional fallback prompt, or the empty string.
func (t *Task) Fallback() string { return t.spec.Fallback }

// Complete publishes the task's final result and fires all registered
// completion listeners. Only the first call has any effect; the result and
// success flag are immutable afterwards.
func (t *Task) Complete(result string, success bool) {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return
	}
	t.result = result
	t.succeeded = success
	t.completed = true
	listeners := t.listeners
	t.listeners = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Completed reports whether the task has finished.
func (t *Task) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Result returns the task's result string. It is only meaningful once the
// task has completed; before that it is empty.
func (t *Task) Result() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Succeeded reports whether the final attempt passed validation. Failed
// tasks still complete, carrying an error-tagged result string, so callers
// can branch on this flag instead of string-matching the result.
func (t *Task) Succeeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.succeeded
}

// Done returns a channel that is closed when the task completes. It lets
// callers select over many tasks without polling completion flags.
func (t *Task) Done() <-chan struct{} { return t.done }

// OnComplete registers fn to run when the task completes. Listeners fire
// exactly once; registering after completion runs fn immediately on the
// calling goroutine.
func (t *Task) OnComplete(fn func()) {
	t.mu.Lock()
	if !t.completed {
		t.listeners = append(t.listeners, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn()
}

// Wait blocks until the task completes or ctx is done. On completion it
// returns the task's result; otherwise it returns ctx's error.
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.Result(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// WaitTimeout blocks up to d for completion and reports whether the task
// finished in time. A non-positive d waits using the task's own advisory
// timeout.
func (t *Task) WaitTimeout(d time.Duration) (string, bool) {
	if d <= 0 {
		d = t.spec.Timeout
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.Result(), true
	case <-timer.C:
		return "", false
	}
}
