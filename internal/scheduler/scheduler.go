package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fastdsl/core/internal/cache"
	"github.com/fastdsl/core/internal/events"
	"github.com/fastdsl/core/internal/task"
)

// Executor performs the actual work for a task's prompt. The role string
// is the task's agent identity, passed through uninterpreted. Executors
// may block; the scheduler treats the call as synchronous and converts
// any returned error (or panic) into an error-tagged result string.
type Executor func(ctx context.Context, prompt, role string) (string, error)

// Common errors
var (
	ErrNilExecutor = errors.New("executor cannot be nil")
	ErrNilLogger   = errors.New("logger cannot be nil")
	ErrClosed      = errors.New("scheduler is shut down")
)

// Config holds scheduler configuration.
type Config struct {
	// WorkerCount determines how many tasks execute concurrently.
	// If zero or negative, defaults to DefaultWorkerCount.
	WorkerCount int

	// UseCache enables serving repeated prompts from the result cache.
	UseCache bool
}

// DefaultWorkerCount is the pool size used when none is configured.
const DefaultWorkerCount = 8

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: DefaultWorkerCount,
		UseCache:    true,
	}
}

// Scheduler owns the worker pool and the execution, retry, fallback and
// metrics logic. It is created once per process; Shutdown drains queued
// and in-flight work and is idempotent.
type Scheduler struct {
	executor Executor
	cache    *cache.Cache
	metrics  Sink
	emitter  events.Emitter
	useCache bool

	// inflight coalesces identical prompts: tasks submitted while an
	// equal prompt is already executing share that execution's result
	// instead of invoking the executor again.
	inflightMu sync.Mutex
	inflight   map[string][]*task.Task

	queue   *pendingQueue
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	workers int

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Scheduler. The cache, metrics sink and event emitter are
// optional; passing nil disables the corresponding behavior. Call Start
// before submitting tasks.
func New(
	cfg Config,
	executor Executor,
	resultCache *cache.Cache,
	metrics Sink,
	emitter events.Emitter,
	logger *slog.Logger,
) (*Scheduler, error) {
	if executor == nil {
		return nil, ErrNilExecutor
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = DefaultWorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		executor: executor,
		cache:    resultCache,
		metrics:  metrics,
		emitter:  emitter,
		useCache: cfg.UseCache && resultCache != nil,
		inflight: make(map[string][]*task.Task),
		queue:    newPendingQueue(),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With("component", "scheduler"),
		workers:  workers,
	}, nil
}

// Start launches the worker pool. Subsequent calls are no-ops.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		for i := 0; i < s.workers; i++ {
			s.wg.Add(1)
			go s.worker(i)
		}
		s.logger.Debug("worker pool started", "worker_count", s.workers)
	})
}

// Add submits a task. An exact cache hit for the task's prompt completes
// it synchronously on the calling goroutine, consuming no worker and
// emitting a zero-latency complete metric; otherwise the task joins the
// pending set for asynchronous execution.
func (s *Scheduler) Add(t *task.Task) error {
	if s.useCache {
		if n, v, ok := s.cache.LongestPrefix(t.Prompt()); ok && n == len(t.Prompt()) {
			t.Complete(v, true)
			s.observe(t, 0, true, true)
			s.logger.Debug("task served from cache", "task_name", t.Name())
			return nil
		}
	}

	if s.useCache && s.joinFlight(t) {
		if s.metrics != nil {
			s.safely("metrics submit", s.metrics.OnSubmit)
		}
		s.logger.Debug("task coalesced with in-flight prompt", "task_name", t.Name())
		return nil
	}

	if !s.queue.push(t) {
		s.failFlight(t.Prompt())
		return ErrClosed
	}
	if s.metrics != nil {
		s.safely("metrics submit", s.metrics.OnSubmit)
	}
	return nil
}

// joinFlight registers t against an already-executing identical prompt,
// reporting true when t will be completed by that execution. When no such
// execution exists it claims the prompt for t and reports false.
func (s *Scheduler) joinFlight(t *task.Task) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if followers, ok := s.inflight[t.Prompt()]; ok {
		s.inflight[t.Prompt()] = append(followers, t)
		return true
	}
	s.inflight[t.Prompt()] = nil
	return false
}

// takeFlight releases the prompt claim and returns any tasks that joined
// the execution while it ran.
func (s *Scheduler) takeFlight(prompt string) []*task.Task {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	followers := s.inflight[prompt]
	delete(s.inflight, prompt)
	return followers
}

// failFlight completes every task that coalesced onto prompt's claim
// after its leader lost the race with a shutdown and was never queued.
// Their Add calls already returned nil, so leaving them pending would
// strand their waiters.
func (s *Scheduler) failFlight(prompt string) {
	for _, f := range s.takeFlight(prompt) {
		f.Complete(errorResult(f.Name(), ErrClosed), false)
		s.observe(f, 0, false, false)
	}
}

// Shutdown stops accepting new submissions, waits for queued and
// in-flight executions to finish, then releases pool resources. It is
// safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() {
		s.queue.close()
		s.wg.Wait()
		s.cancel()
		s.logger.Info("scheduler shut down")
	})
}

// Pending reports the number of tasks waiting for a worker.
func (s *Scheduler) Pending() int {
	return s.queue.len()
}

// worker runs one task to completion at a time, retries included, until
// the queue is closed and drained.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("starting worker", "worker_id", id)
	for {
		t, ok := s.queue.pop()
		if !ok {
			s.logger.Debug("stopping worker", "worker_id", id)
			return
		}
		s.execute(t)
	}
}

// execute runs the full per-task procedure: retry loop with exponential
// backoff, one dedicated fallback attempt, completion, cache write and
// metric emission.
func (s *Scheduler) execute(t *task.Task) {
	start := time.Now()
	logger := s.logger.With("task_id", t.ID(), "task_name", t.Name(), "agent", t.Agent())

	var result string
	success := false
	attempts := 0

	for attempts <= t.MaxRetries() && !success {
		result, success = s.attempt(t, t.Prompt())
		if success {
			break
		}
		attempts++
		if attempts <= t.MaxRetries() {
			delay := t.Backoff() * time.Duration(1<<(attempts-1))
			logger.Debug("attempt failed, backing off",
				"attempt", attempts,
				"max_retries", t.MaxRetries(),
				"delay_ms", delay.Milliseconds())
			s.sleep(delay)
		}
	}

	// One extra attempt with the fallback prompt once retries are spent.
	// Its outcome is final and is not re-validated.
	if !success && t.Fallback() != "" {
		logger.Debug("retries exhausted, invoking fallback")
		out, err := s.invoke(t.Fallback(), t.Agent())
		if err != nil {
			result = errorResult(t.Name(), err)
			success = false
		} else {
			result = out
			success = true
		}
	}

	// The cache is keyed by the original prompt even when the fallback
	// produced the result. Write it before releasing the in-flight claim
	// so a concurrent Add sees either the claim or the cached value.
	if success && s.useCache {
		s.safely("cache write", func() { s.cache.Put(t.Prompt(), result) })
	}
	followers := s.takeFlight(t.Prompt())

	t.Complete(result, success)
	s.observe(t, time.Since(start), success, false)

	for _, f := range followers {
		f.Complete(result, success)
		s.observe(f, 0, success, false)
	}

	if success {
		logger.Info("task completed", "duration_ms", time.Since(start).Milliseconds())
	} else {
		logger.Warn("task exhausted retries", "attempts", attempts, "duration_ms", time.Since(start).Milliseconds())
	}
}

// attempt performs one executor invocation and applies the task's
// validation rule. An executor failure counts as a failed attempt; an
// error-free result with no rule always succeeds.
func (s *Scheduler) attempt(t *task.Task, prompt string) (string, bool) {
	out, err := s.invoke(prompt, t.Agent())
	if err != nil {
		return errorResult(t.Name(), err), false
	}
	if rule := t.Rule(); rule != nil {
		return out, rule.Matches(out)
	}
	return out, true
}

// invoke calls the executor, converting a panic into an error so no
// failure escapes the execution procedure.
func (s *Scheduler) invoke(prompt, role string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return s.executor(s.ctx, prompt, role)
}

// observe emits the completion metric and event. Both are best-effort
// and fully isolated from task completion.
func (s *Scheduler) observe(t *task.Task, duration time.Duration, success, fromCache bool) {
	if s.metrics != nil {
		s.safely("metrics complete", func() { s.metrics.OnComplete(duration, success) })
	}
	if s.emitter != nil {
		s.safely("event emit", func() {
			event := events.NewTaskCompletedEvent(t.ID(), t.Name(), success, fromCache, duration)
			if err := s.emitter.EmitTaskCompleted(s.ctx, event); err != nil {
				s.logger.Debug("completion event handler failed", "task_name", t.Name(), "error", err)
			}
		})
	}
}

// safely runs fn and downgrades any panic to a log line.
func (s *Scheduler) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic from collaborator", "operation", what, "panic", r)
		}
	}()
	fn()
}

func (s *Scheduler) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.ctx.Done():
	}
}

// errorResult converts a failure into the error-tagged result string the
// task surfaces instead of a propagated fault.
func errorResult(name string, err error) string {
	return fmt.Sprintf("[error:%s] %v", name, err)
}
