package dsl

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fastdsl/core/internal/cache"
	"github.com/fastdsl/core/internal/events"
	"github.com/fastdsl/core/internal/scheduler"
	"github.com/fastdsl/core/internal/task"
)

// JoinMode selects how Join synchronizes on a set of tasks.
type JoinMode string

// Join modes
const (
	// JoinAll waits for every task, stopping early at the deadline.
	JoinAll JoinMode = "all"

	// JoinAny waits for the first task to complete.
	JoinAny JoinMode = "any"
)

// Config holds DSL-wide settings applied to the cache and scheduler it
// owns.
type Config struct {
	// Workers is the scheduler's pool size.
	Workers int

	// CacheCapacity bounds the result cache.
	CacheCapacity int

	// CacheEnabled toggles result deduplication through the cache.
	CacheEnabled bool
}

// DefaultConfig returns a Config with the stock pool size and cache bound.
func DefaultConfig() Config {
	return Config{
		Workers:       scheduler.DefaultWorkerCount,
		CacheCapacity: cache.DefaultCapacity,
		CacheEnabled:  true,
	}
}

// Option customizes optional DSL collaborators.
type Option func(*options)

type options struct {
	metrics scheduler.Sink
	emitter events.Emitter
}

// WithMetrics attaches a metrics sink to the scheduler.
func WithMetrics(sink scheduler.Sink) Option {
	return func(o *options) { o.metrics = sink }
}

// WithEmitter attaches a completion-event emitter to the scheduler.
func WithEmitter(emitter events.Emitter) Option {
	return func(o *options) { o.emitter = emitter }
}

// DSL owns one Cache and one Scheduler and exposes the fluent task
// construction and join surface callers program against. Create one per
// process and Shutdown when done.
type DSL struct {
	cache  *cache.Cache
	sched  *scheduler.Scheduler
	logger *slog.Logger
}

// New builds a DSL around executor with the given configuration and
// starts its worker pool.
func New(cfg Config, executor scheduler.Executor, logger *slog.Logger, opts ...Option) (*DSL, error) {
	if logger == nil {
		return nil, scheduler.ErrNilLogger
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	resultCache := cache.New(cfg.CacheCapacity)
	sched, err := scheduler.New(
		scheduler.Config{WorkerCount: cfg.Workers, UseCache: cfg.CacheEnabled},
		executor,
		resultCache,
		o.metrics,
		o.emitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	sched.Start()

	return &DSL{
		cache:  resultCache,
		sched:  sched,
		logger: logger.With("component", "dsl"),
	}, nil
}

// Task starts a builder for a unit of work. name keys the task's result
// in join output, prompt is the opaque payload, and agent names the
// executor role that performs the work.
func (d *DSL) Task(name, prompt, agent string) *TaskBuilder {
	return &TaskBuilder{
		dsl: d,
		spec: task.Spec{
			Name:   name,
			Prompt: prompt,
			Agent:  agent,
		},
	}
}

// Join blocks on the given tasks according to mode.
//
// JoinAll visits tasks in order against a shared deadline and returns a
// name→result mapping for every task that completed before the deadline;
// a non-positive within means no deadline. JoinAny returns a single-entry
// mapping for whichever task completes first, or an empty mapping if the
// deadline passes. Each waiter wakes on completion signals rather than
// polling completion flags.
func (d *DSL) Join(tasks []*task.Task, mode JoinMode, within time.Duration) map[string]string {
	results := make(map[string]string)
	if len(tasks) == 0 {
		return results
	}

	var deadline <-chan time.Time
	if within > 0 {
		timer := time.NewTimer(within)
		defer timer.Stop()
		deadline = timer.C
	}

	switch mode {
	case JoinAny:
		// Buffered to the task count so listeners never block, even when
		// several tasks complete before the select runs.
		first := make(chan *task.Task, len(tasks))
		for _, t := range tasks {
			t := t
			t.OnComplete(func() { first <- t })
		}
		select {
		case t := <-first:
			results[t.Name()] = t.Result()
		case <-deadline:
		}

	default:
		for _, t := range tasks {
			select {
			case <-t.Done():
				results[t.Name()] = t.Result()
			case <-deadline:
				return results
			}
		}
	}

	return results
}

// BatchExecute submits every task to the scheduler, blocks until all have
// completed, and returns their results in the order the tasks were given,
// regardless of completion order.
func (d *DSL) BatchExecute(tasks []*task.Task) ([]string, error) {
	for _, t := range tasks {
		if err := d.sched.Add(t); err != nil {
			return nil, fmt.Errorf("failed to submit task %q: %w", t.Name(), err)
		}
	}

	results := make([]string, len(tasks))
	for i, t := range tasks {
		<-t.Done()
		results[i] = t.Result()
	}
	return results, nil
}

// Scheduler exposes the underlying scheduler for direct submission.
func (d *DSL) Scheduler() *scheduler.Scheduler {
	return d.sched
}

// Cache exposes the shared result cache.
func (d *DSL) Cache() *cache.Cache {
	return d.cache
}

// Shutdown drains in-flight work and releases pool resources. Idempotent.
func (d *DSL) Shutdown() {
	d.sched.Shutdown()
}
