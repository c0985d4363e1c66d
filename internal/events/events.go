package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskCompletedEvent is published once per completed task, whether the
// task succeeded, exhausted its retries, or was served from the cache.
type TaskCompletedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// TaskID identifies the completed task
	TaskID uuid.UUID `json:"task_id"`

	// TaskName is the caller-assigned task label
	TaskName string `json:"task_name"`

	// Success reports whether the final attempt passed validation
	Success bool `json:"success"`

	// FromCache is true when the result was served without a worker
	FromCache bool `json:"from_cache"`

	// Duration is the wall-clock time of the whole execution procedure
	Duration time.Duration `json:"duration"`

	// CompletedAt is the timestamp when the event was created
	CompletedAt time.Time `json:"completed_at"`
}

// NewTaskCompletedEvent creates a completion event for the given task.
func NewTaskCompletedEvent(
	taskID uuid.UUID,
	taskName string,
	success, fromCache bool,
	duration time.Duration,
) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		ID:          uuid.New(),
		TaskID:      taskID,
		TaskName:    taskName,
		Success:     success,
		FromCache:   fromCache,
		Duration:    duration,
		CompletedAt: time.Now(),
	}
}

// Handler processes completion events. Handlers must tolerate concurrent
// calls; the scheduler may complete tasks on several workers at once.
type Handler interface {
	// HandleTaskCompleted processes the given event within the provided
	// context. Returns an error if the event cannot be handled.
	HandleTaskCompleted(ctx context.Context, event *TaskCompletedEvent) error
}

// Emitter publishes completion events to registered handlers. Emission is
// best-effort from the scheduler's point of view: a failing handler never
// affects task completion.
type Emitter interface {
	// EmitTaskCompleted publishes the given event to all registered handlers.
	EmitTaskCompleted(ctx context.Context, event *TaskCompletedEvent) error
}
