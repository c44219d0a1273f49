package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhide/ocrflow/internal/domain"
	"github.com/lexhide/ocrflow/internal/queue"
)

// fakeTaskService implements TaskService for handler tests.
type fakeTaskService struct {
	results map[uuid.UUID]*domain.TaskResult
	stats   queue.Stats
	nonTerm map[uuid.UUID]bool
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{
		results: make(map[uuid.UUID]*domain.TaskResult),
		nonTerm: make(map[uuid.UUID]bool),
	}
}

func (f *fakeTaskService) GetStatus(id uuid.UUID) (*domain.TaskResult, error) {
	r, ok := f.results[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return r.Clone(), nil
}

func (f *fakeTaskService) GetResult(id uuid.UUID) (map[string]any, bool) {
	r, ok := f.results[id]
	if !ok || r.Status != domain.TaskStatusCompleted {
		return nil, false
	}
	return r.Result, true
}

func (f *fakeTaskService) Cancel(id uuid.UUID) bool {
	return f.nonTerm[id]
}

func (f *fakeTaskService) Stats() queue.Stats {
	return f.stats
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func taskRouter(svc TaskService) http.Handler {
	h := NewTaskHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Get("/api/v1/tasks", h.GetQueueStats)
	r.Get("/api/v1/tasks/{id}", h.GetTaskStatus)
	r.Get("/api/v1/tasks/{id}/result", h.GetTaskResult)
	r.Delete("/api/v1/tasks/{id}", h.CancelTask)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetTaskStatus(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	id := uuid.New()
	started := time.Now().UTC()
	svc.results[id] = &domain.TaskResult{
		TaskID:    id,
		Status:    domain.TaskStatusProcessing,
		Progress:  0,
		CreatedAt: started.Add(-time.Second),
		StartedAt: &started,
	}

	rec := doRequest(t, taskRouter(svc), http.MethodGet, "/api/v1/tasks/"+id.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp.TaskID)
	assert.Equal(t, "processing", resp.Status)
	assert.False(t, resp.ResultAvailable)
	assert.Nil(t, resp.Result)
}

func TestGetTaskStatusNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, taskRouter(newFakeTaskService()), http.MethodGet, "/api/v1/tasks/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Task not found")
}

func TestGetTaskStatusInvalidID(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, taskRouter(newFakeTaskService()), http.MethodGet, "/api/v1/tasks/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid task ID")
}

func TestGetTaskResultCompleted(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	id := uuid.New()
	completed := time.Now().UTC()
	svc.results[id] = &domain.TaskResult{
		TaskID:         id,
		Status:         domain.TaskStatusCompleted,
		Result:         map[string]any{"document_text": "# Done"},
		Progress:       1.0,
		CompletedAt:    &completed,
		ProcessingTime: 1500 * time.Millisecond,
	}

	rec := doRequest(t, taskRouter(svc), http.MethodGet, "/api/v1/tasks/"+id.String()+"/result")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.ResultAvailable)
	assert.Equal(t, "# Done", resp.Result["document_text"])
	require.NotNil(t, resp.ProcessingTime)
	assert.InDelta(t, 1.5, *resp.ProcessingTime, 0.001)
}

func TestGetTaskResultNotCompletedConflicts(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	id := uuid.New()
	svc.results[id] = &domain.TaskResult{TaskID: id, Status: domain.TaskStatusProcessing}

	rec := doRequest(t, taskRouter(svc), http.MethodGet, "/api/v1/tasks/"+id.String()+"/result")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "processing")
}

func TestGetTaskResultNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, taskRouter(newFakeTaskService()), http.MethodGet,
		"/api/v1/tasks/"+uuid.NewString()+"/result")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelTask(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	id := uuid.New()
	svc.results[id] = &domain.TaskResult{TaskID: id, Status: domain.TaskStatusPending}
	svc.nonTerm[id] = true

	rec := doRequest(t, taskRouter(svc), http.MethodDelete, "/api/v1/tasks/"+id.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CancelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Status)
}

func TestCancelFinishedTaskConflicts(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	id := uuid.New()
	svc.results[id] = &domain.TaskResult{TaskID: id, Status: domain.TaskStatusCompleted}

	rec := doRequest(t, taskRouter(svc), http.MethodDelete, "/api/v1/tasks/"+id.String())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelUnknownTaskNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, taskRouter(newFakeTaskService()), http.MethodDelete, "/api/v1/tasks/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetQueueStats(t *testing.T) {
	t.Parallel()

	svc := newFakeTaskService()
	svc.stats = queue.Stats{
		TotalTasks:         3,
		PendingTasks:       1,
		RunningTasks:       2,
		MaxConcurrentTasks: 4,
		StatusCounts:       map[string]int{"pending": 1, "processing": 2},
		RegisteredHandlers: []string{"ocr_batch_files", "ocr_single_file"},
	}

	rec := doRequest(t, taskRouter(svc), http.MethodGet, "/api/v1/tasks")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueueStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalTasks)
	assert.Equal(t, 4, resp.MaxConcurrentTasks)
	assert.Equal(t, []string{"ocr_batch_files", "ocr_single_file"}, resp.RegisteredHandlers)
}
