package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*TaskCompletedEvent
	err    error
}

func (h *recordingHandler) HandleTaskCompleted(_ context.Context, event *TaskCompletedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryEmitter_DeliversToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEmitter(testLogger())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := NewTaskCompletedEvent(uuid.New(), "traffic-report", true, false, 25*time.Millisecond)
	err := emitter.EmitTaskCompleted(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
	assert.Equal(t, "traffic-report", first.events[0].TaskName)
}

func TestInMemoryEmitter_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEmitter(testLogger())
	failing := &recordingHandler{err: errors.New("sink unavailable")}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	event := NewTaskCompletedEvent(uuid.New(), "t", false, false, 0)
	err := emitter.EmitTaskCompleted(context.Background(), event)

	assert.Error(t, err)
	assert.Equal(t, 1, healthy.count(), "later handlers still receive the event")
}

func TestInMemoryEmitter_NoHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEmitter(testLogger())
	event := NewTaskCompletedEvent(uuid.New(), "t", true, true, 0)
	assert.NoError(t, emitter.EmitTaskCompleted(context.Background(), event))
}

func TestNewTaskCompletedEvent_PopulatesIdentity(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	event := NewTaskCompletedEvent(taskID, "t", true, true, time.Second)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, taskID, event.TaskID)
	assert.True(t, event.FromCache)
	assert.WithinDuration(t, time.Now(), event.CompletedAt, time.Minute)
}
