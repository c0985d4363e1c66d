package dsl

import (
	"fmt"
	"time"

	"github.com/fastdsl/core/internal/task"
)

// TaskBuilder assembles a task's immutable configuration step by step.
// Each With method returns the builder for chaining; Schedule constructs
// the task and hands it to the scheduler.
type TaskBuilder struct {
	dsl  *DSL
	spec task.Spec
	err  error
}

// WithPriority sets the scheduling priority; higher-priority tasks are
// dequeued first.
func (b *TaskBuilder) WithPriority(priority int) *TaskBuilder {
	b.spec.Priority = priority
	return b
}

// WithTimeout sets the advisory completion bound consulted by join
// operations. It does not cancel a running worker.
func (b *TaskBuilder) WithTimeout(timeout time.Duration) *TaskBuilder {
	b.spec.Timeout = timeout
	return b
}

// WithRetries configures up to retries extra attempts after a failure,
// separated by exponential backoff starting at backoff.
func (b *TaskBuilder) WithRetries(retries int, backoff time.Duration) *TaskBuilder {
	b.spec.MaxRetries = retries
	b.spec.Backoff = backoff
	return b
}

// WithRule attaches a validation rule; a result that fails it counts as
// a failed attempt.
func (b *TaskBuilder) WithRule(rule task.Rule) *TaskBuilder {
	b.spec.Rule = rule
	return b
}

// WithRegex attaches a validation rule requiring the result to match
// pattern. An invalid pattern surfaces as an error from Schedule.
func (b *TaskBuilder) WithRegex(pattern string) *TaskBuilder {
	rule, err := task.NewRegexRule(b.spec.Name+"-re", pattern)
	if err != nil {
		b.err = err
		return b
	}
	b.spec.Rule = rule
	return b
}

// WithFallback sets an alternate prompt used for one final attempt after
// ordinary retries are exhausted.
func (b *TaskBuilder) WithFallback(prompt string) *TaskBuilder {
	b.spec.Fallback = prompt
	return b
}

// Schedule constructs the task and submits it. The returned task may
// already be completed when the cache served it synchronously.
func (b *TaskBuilder) Schedule() (*task.Task, error) {
	if b.err != nil {
		return nil, fmt.Errorf("invalid task %q: %w", b.spec.Name, b.err)
	}
	t := task.New(b.spec)
	if err := b.dsl.sched.Add(t); err != nil {
		return nil, fmt.Errorf("failed to schedule task %q: %w", b.spec.Name, err)
	}
	return t, nil
}
