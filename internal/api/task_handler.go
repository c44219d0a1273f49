package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexhide/ocrflow/internal/api/shared"
	"github.com/lexhide/ocrflow/internal/domain"
	"github.com/lexhide/ocrflow/internal/queue"
)

// TaskService is the engine surface the task endpoints need.
type TaskService interface {
	GetStatus(id uuid.UUID) (*domain.TaskResult, error)
	GetResult(id uuid.UUID) (map[string]any, bool)
	Cancel(id uuid.UUID) bool
	Stats() queue.Stats
}

// TaskHandler handles task lifecycle HTTP requests.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// GetTaskStatus handles GET /api/v1/tasks/{id} requests.
func (h *TaskHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	result, err := h.tasks.GetStatus(id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskResultToResponse(result, false))
}

// GetTaskResult handles GET /api/v1/tasks/{id}/result requests. Responds 409
// when the task exists but has not completed successfully.
func (h *TaskHandler) GetTaskResult(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	status, err := h.tasks.GetStatus(id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	result, ok := h.tasks.GetResult(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusConflict,
			fmt.Sprintf("Task is not completed (status: %s)", status.Status))
		return
	}

	status.Result = result
	shared.RespondWithJSON(w, r, http.StatusOK, taskResultToResponse(status, true))
}

// CancelTask handles DELETE /api/v1/tasks/{id} requests. Cancelling an
// already-terminal task responds 409; the engine treats it as a no-op.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	// Distinguish "unknown task" from "already finished" for the client.
	if _, err := h.tasks.GetStatus(id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if !h.tasks.Cancel(id) {
		shared.RespondWithError(w, r, http.StatusConflict, "Task already finished")
		return
	}

	h.logger.Info("task cancelled via API", "task_id", id)
	shared.RespondWithJSON(w, r, http.StatusOK, CancelResponse{
		TaskID: id.String(),
		Status: string(domain.TaskStatusCancelled),
	})
}

// GetQueueStats handles GET /api/v1/tasks requests.
func (h *TaskHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(h.tasks.Stats()))
}

func parseTaskID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, raw)
	}
	return id, nil
}
