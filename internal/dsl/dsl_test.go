package dsl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastdsl/core/internal/scheduler"
	"github.com/fastdsl/core/internal/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoExecutor(_ context.Context, prompt, role string) (string, error) {
	return fmt.Sprintf("[LLM:%s] %s", role, prompt), nil
}

func newTestDSL(t *testing.T, executor scheduler.Executor, opts ...Option) *DSL {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.CacheCapacity = 32
	d, err := New(cfg, executor, testLogger(), opts...)
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)
	return d
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultConfig(), echoExecutor, nil)
	assert.ErrorIs(t, err, scheduler.ErrNilLogger)

	_, err = New(DefaultConfig(), nil, testLogger())
	assert.ErrorIs(t, err, scheduler.ErrNilExecutor)
}

func TestBuilder_SchedulesConfiguredTask(t *testing.T) {
	t.Parallel()

	var gotRole atomic.Value
	executor := func(_ context.Context, prompt, role string) (string, error) {
		gotRole.Store(role)
		return "ANSWER-7", nil
	}
	d := newTestDSL(t, executor)

	tk, err := d.Task("forecast", "weather for tomorrow", "weather").
		WithPriority(3).
		WithTimeout(2*time.Second).
		WithRetries(2, 10*time.Millisecond).
		WithRegex(`^ANSWER-\d+$`).
		WithFallback("simple weather").
		Schedule()
	require.NoError(t, err)

	assert.Equal(t, 3, tk.Priority())
	assert.Equal(t, 2*time.Second, tk.Timeout())
	assert.Equal(t, 2, tk.MaxRetries())
	assert.Equal(t, 10*time.Millisecond, tk.Backoff())
	assert.Equal(t, "simple weather", tk.Fallback())

	got, ok := tk.WaitTimeout(5 * time.Second)
	require.True(t, ok)
	assert.Equal(t, "ANSWER-7", got)
	assert.True(t, tk.Succeeded())
	assert.Equal(t, "weather", gotRole.Load())
}

func TestBuilder_InvalidRegexSurfacesAtSchedule(t *testing.T) {
	t.Parallel()

	d := newTestDSL(t, echoExecutor)

	_, err := d.Task("bad", "p", "a").WithRegex(`(`).Schedule()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid task "bad"`)
}

func TestBuilder_CacheHitCompletesBeforeReturn(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	executor := func(_ context.Context, prompt, role string) (string, error) {
		calls.Add(1)
		return "cached answer", nil
	}
	d := newTestDSL(t, executor)

	first, err := d.Task("first", "same prompt", "a").Schedule()
	require.NoError(t, err)
	_, ok := first.WaitTimeout(5 * time.Second)
	require.True(t, ok)

	second, err := d.Task("second", "same prompt", "a").Schedule()
	require.NoError(t, err)

	assert.True(t, second.Completed(), "cache-served task is already complete at Schedule return")
	assert.Equal(t, "cached answer", second.Result())
	assert.Equal(t, int32(1), calls.Load())
}

func TestJoin_AllCompleteness(t *testing.T) {
	t.Parallel()

	d := newTestDSL(t, echoExecutor)

	var tasks []*task.Task
	for i := 0; i < 5; i++ {
		tk, err := d.Task(fmt.Sprintf("t%d", i), fmt.Sprintf("prompt %d", i), "role").Schedule()
		require.NoError(t, err)
		tasks = append(tasks, tk)
	}

	results := d.Join(tasks, JoinAll, 0)

	require.Len(t, results, 5)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("t%d", i)
		assert.Equal(t, fmt.Sprintf("[LLM:role] prompt %d", i), results[name])
	}
}

func TestJoin_AllTimeoutReturnsPartialResults(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	executor := func(_ context.Context, prompt, role string) (string, error) {
		if prompt == "slow" {
			<-release
		}
		return "done:" + prompt, nil
	}
	d := newTestDSL(t, executor)
	defer close(release)

	fast, err := d.Task("fast", "fast", "a").Schedule()
	require.NoError(t, err)
	_, ok := fast.WaitTimeout(5 * time.Second)
	require.True(t, ok)

	slow, err := d.Task("slow", "slow", "a").Schedule()
	require.NoError(t, err)

	results := d.Join([]*task.Task{fast, slow}, JoinAll, 50*time.Millisecond)

	assert.Equal(t, map[string]string{"fast": "done:fast"}, results)
	assert.False(t, slow.Completed())
}

func TestJoin_AnyReturnsFirstCompletion(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	executor := func(_ context.Context, prompt, role string) (string, error) {
		if prompt != "quick" {
			<-release
		}
		return "done:" + prompt, nil
	}
	d := newTestDSL(t, executor)
	defer close(release)

	blocked1, err := d.Task("blocked1", "b1", "a").Schedule()
	require.NoError(t, err)
	blocked2, err := d.Task("blocked2", "b2", "a").Schedule()
	require.NoError(t, err)
	quick, err := d.Task("quick", "quick", "a").Schedule()
	require.NoError(t, err)

	results := d.Join([]*task.Task{blocked1, blocked2, quick}, JoinAny, 5*time.Second)

	assert.Equal(t, map[string]string{"quick": "done:quick"}, results)
}

func TestJoin_AnyTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	executor := func(_ context.Context, prompt, role string) (string, error) {
		<-release
		return "late", nil
	}
	d := newTestDSL(t, executor)
	defer close(release)

	tk, err := d.Task("stuck", "p", "a").Schedule()
	require.NoError(t, err)

	results := d.Join([]*task.Task{tk}, JoinAny, 30*time.Millisecond)
	assert.Empty(t, results)
}

func TestJoin_EmptyTaskSet(t *testing.T) {
	t.Parallel()

	d := newTestDSL(t, echoExecutor)
	assert.Empty(t, d.Join(nil, JoinAll, 0))
	assert.Empty(t, d.Join(nil, JoinAny, 10*time.Millisecond))
}

func TestBatchExecute_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	// Later tasks finish first: completion order is the reverse of
	// submission order.
	executor := func(_ context.Context, prompt, role string) (string, error) {
		switch prompt {
		case "p0":
			time.Sleep(60 * time.Millisecond)
		case "p1":
			time.Sleep(30 * time.Millisecond)
		}
		return "r:" + prompt, nil
	}

	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.CacheEnabled = false
	d, err := New(cfg, executor, testLogger())
	require.NoError(t, err)
	defer d.Shutdown()

	tasks := []*task.Task{
		task.New(task.Spec{Name: "t0", Prompt: "p0"}),
		task.New(task.Spec{Name: "t1", Prompt: "p1"}),
		task.New(task.Spec{Name: "t2", Prompt: "p2"}),
	}

	results, err := d.BatchExecute(tasks)
	require.NoError(t, err)
	assert.Equal(t, []string{"r:p0", "r:p1", "r:p2"}, results)
}

func TestBatchExecute_AfterShutdown(t *testing.T) {
	t.Parallel()

	d, err := New(DefaultConfig(), echoExecutor, testLogger())
	require.NoError(t, err)
	d.Shutdown()

	_, err = d.BatchExecute([]*task.Task{task.New(task.Spec{Name: "t", Prompt: "p"})})
	assert.ErrorIs(t, err, scheduler.ErrClosed)
}

func TestDSL_ErrorsAreDataNotFaults(t *testing.T) {
	t.Parallel()

	failing := func(_ context.Context, prompt, role string) (string, error) {
		return "", errors.New("model overloaded")
	}
	d := newTestDSL(t, failing)

	tk, err := d.Task("fails", "p", "a").WithRetries(1, time.Millisecond).Schedule()
	require.NoError(t, err, "executor failures never surface as scheduling errors")

	got, ok := tk.WaitTimeout(5 * time.Second)
	require.True(t, ok)
	assert.False(t, tk.Succeeded())
	assert.Contains(t, got, "[error:fails]")

	// The pool keeps serving other tasks after an exhausted one
	next, err := d.Task("next", "q", "a").Schedule()
	require.NoError(t, err)
	_, ok = next.WaitTimeout(5 * time.Second)
	assert.True(t, ok)
}

func TestDSL_MetricsOptionWiring(t *testing.T) {
	t.Parallel()

	metrics := scheduler.NewInMemoryMetrics()
	d := newTestDSL(t, echoExecutor, WithMetrics(metrics))

	tk, err := d.Task("m", "p", "a").Schedule()
	require.NoError(t, err)
	_, ok := tk.WaitTimeout(5 * time.Second)
	require.True(t, ok)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Completed)
	assert.Equal(t, int64(1), snap.Succeeded)
}
