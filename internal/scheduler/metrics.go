package scheduler

import (
	"sync"
	"time"
)

// Sink receives scheduling metrics. Implementations must be safe for
// concurrent use. Metrics are best-effort: the scheduler isolates sink
// failures so they never affect task completion.
type Sink interface {
	// OnSubmit is called when a task is handed to the worker pool.
	OnSubmit()

	// OnComplete is called once per completed task with the wall-clock
	// duration of the whole execution procedure and the final success flag.
	OnComplete(duration time.Duration, success bool)
}

// InMemoryMetrics is a Sink that accumulates counters in memory and can
// be queried for a point-in-time snapshot.
type InMemoryMetrics struct {
	mu            sync.Mutex
	inFlight      int64
	completed     int64
	succeeded     int64
	totalDuration time.Duration
}

// NewInMemoryMetrics creates an empty metrics accumulator.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

// OnSubmit implements Sink.
func (m *InMemoryMetrics) OnSubmit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

// OnComplete implements Sink. Cache hits complete without a matching
// OnSubmit, so the in-flight counter is floored at zero.
func (m *InMemoryMetrics) OnComplete(duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight > 0 {
		m.inFlight--
	}
	m.completed++
	if success {
		m.succeeded++
	}
	m.totalDuration += duration
}

// Snapshot is a point-in-time view of accumulated metrics.
type Snapshot struct {
	InFlight      int64   `json:"in_flight"`
	Completed     int64   `json:"completed"`
	Succeeded     int64   `json:"succeeded"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// Snapshot returns the current counters.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		InFlight:  m.inFlight,
		Completed: m.completed,
		Succeeded: m.succeeded,
	}
	if m.completed > 0 {
		s.SuccessRate = float64(m.succeeded) / float64(m.completed)
		s.AvgDurationMs = float64(m.totalDuration.Milliseconds()) / float64(m.completed)
	}
	return s
}
