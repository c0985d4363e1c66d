package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple Emitter that stores registered handlers in
// memory and dispatches events to them synchronously.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "in_memory_emitter"),
	}
}

// RegisterHandler adds a new handler to receive completion events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered completion event handler", "handler_count", len(e.handlers))
}

// EmitTaskCompleted publishes the event to all registered handlers. If a
// handler returns an error the event is still delivered to the remaining
// handlers, and the first error encountered is returned.
func (e *InMemoryEmitter) EmitTaskCompleted(ctx context.Context, event *TaskCompletedEvent) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleTaskCompleted(ctx, event); err != nil {
			e.logger.Error("handler failed to process completion event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"task_name", event.TaskName)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// LogHandler is a Handler that records each completion in the structured
// log, mirroring the progress feed the web frontend subscribes to.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler writing to logger.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "task_progress")}
}

// HandleTaskCompleted implements Handler.
func (h *LogHandler) HandleTaskCompleted(_ context.Context, event *TaskCompletedEvent) error {
	h.logger.Info("task completed",
		"task_id", event.TaskID,
		"task_name", event.TaskName,
		"success", event.Success,
		"from_cache", event.FromCache,
		"duration_ms", event.Duration.Milliseconds())
	return nil
}
