package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fastdsl/core/internal/dsl"
	"github.com/fastdsl/core/internal/scheduler"
)

// CreateTaskRequest represents the request body for scheduling a task.
type CreateTaskRequest struct {
	Name      string `json:"name"       validate:"required,min=1,max=128"`
	Prompt    string `json:"prompt"     validate:"required,min=1"`
	Agent     string `json:"agent"`
	Priority  int    `json:"priority"`
	TimeoutMs int    `json:"timeout_ms" validate:"omitempty,gt=0"`
	Retries   int    `json:"retries"    validate:"omitempty,gte=0"`
	BackoffMs int    `json:"backoff_ms" validate:"omitempty,gt=0"`
	Regex     string `json:"regex"`
	Fallback  string `json:"fallback"`

	// WaitMs bounds a synchronous wait for the result. Zero schedules
	// the task and returns immediately.
	WaitMs int `json:"wait_ms" validate:"omitempty,gt=0"`
}

// TaskResponse represents the response data for a scheduled task.
type TaskResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Succeeded bool   `json:"succeeded,omitempty"`
	Result    string `json:"result,omitempty"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	dsl       *dsl.DSL
	metrics   *scheduler.InMemoryMetrics
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. metrics may be nil when no
// in-memory sink is wired.
func NewTaskHandler(d *dsl.DSL, metrics *scheduler.InMemoryMetrics, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		dsl:       d,
		metrics:   metrics,
		validator: validator.New(),
		logger:    logger.With("component", "task_handler"),
	}
}

// CreateTask handles POST /api/tasks requests. The task is built through
// the DSL builder and scheduled; with wait_ms set the handler blocks up
// to that bound and returns the result inline.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	builder := h.dsl.Task(req.Name, req.Prompt, req.Agent).
		WithPriority(req.Priority)
	if req.TimeoutMs > 0 {
		builder = builder.WithTimeout(time.Duration(req.TimeoutMs) * time.Millisecond)
	}
	if req.Retries > 0 || req.BackoffMs > 0 {
		backoff := time.Duration(req.BackoffMs) * time.Millisecond
		builder = builder.WithRetries(req.Retries, backoff)
	}
	if req.Regex != "" {
		builder = builder.WithRegex(req.Regex)
	}
	if req.Fallback != "" {
		builder = builder.WithFallback(req.Fallback)
	}

	t, err := builder.Schedule()
	if err != nil {
		if errors.Is(err, scheduler.ErrClosed) {
			h.logger.Error("failed to schedule task", "task_name", req.Name, "error", err)
			RespondWithError(w, http.StatusServiceUnavailable, "Scheduler is shutting down")
			return
		}
		RespondWithError(w, http.StatusBadRequest, "Invalid task: "+err.Error())
		return
	}

	if req.WaitMs > 0 && !t.Completed() {
		t.WaitTimeout(time.Duration(req.WaitMs) * time.Millisecond)
	}

	response := TaskResponse{
		ID:        t.ID().String(),
		Name:      t.Name(),
		Completed: t.Completed(),
	}
	status := http.StatusAccepted
	if t.Completed() {
		response.Succeeded = t.Succeeded()
		response.Result = t.Result()
		status = http.StatusOK
	}

	RespondWithJSON(w, status, response)
}

// MetricsResponse is the GET /api/metrics payload: accumulated
// scheduling counters plus the current queue depth and cache size.
type MetricsResponse struct {
	scheduler.Snapshot
	Pending  int `json:"pending"`
	CacheLen int `json:"cache_len"`
}

// GetMetrics handles GET /api/metrics requests.
func (h *TaskHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		RespondWithError(w, http.StatusNotFound, "Metrics are not enabled")
		return
	}
	RespondWithJSON(w, http.StatusOK, MetricsResponse{
		Snapshot: h.metrics.Snapshot(),
		Pending:  h.dsl.Scheduler().Pending(),
		CacheLen: h.dsl.Cache().Len(),
	})
}
