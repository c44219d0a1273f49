package api

import (
	"time"

	"github.com/lexhide/ocrflow/internal/domain"
	"github.com/lexhide/ocrflow/internal/queue"
)

// TaskStatusResponse is the response body for task status queries.
type TaskStatusResponse struct {
	TaskID              string         `json:"task_id"`
	Status              string         `json:"status"`
	Progress            float64        `json:"progress"`
	CreatedAt           time.Time      `json:"created_at"`
	StartedAt           *time.Time     `json:"started_at,omitempty"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	EstimatedCompletion *time.Time     `json:"estimated_completion,omitempty"`
	ProcessingTime      *float64       `json:"processing_time,omitempty"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	ResultAvailable     bool           `json:"result_available"`
	Result              map[string]any `json:"result,omitempty"`
}

// SubmitResponse is the response body for async submission endpoints.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// CancelResponse is the response body for task cancellation.
type CancelResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// QueueStatsResponse mirrors queue.Stats for clients.
type QueueStatsResponse struct {
	TotalTasks         int            `json:"total_tasks"`
	PendingTasks       int            `json:"pending_tasks"`
	RunningTasks       int            `json:"running_tasks"`
	MaxConcurrentTasks int            `json:"max_concurrent_tasks"`
	StatusCounts       map[string]int `json:"status_counts"`
	RegisteredHandlers []string       `json:"registered_handlers"`
}

// taskResultToResponse converts an engine snapshot to the API shape.
func taskResultToResponse(r *domain.TaskResult, includeResult bool) TaskStatusResponse {
	resp := TaskStatusResponse{
		TaskID:              r.TaskID.String(),
		Status:              string(r.Status),
		Progress:            r.Progress,
		CreatedAt:           r.CreatedAt,
		StartedAt:           r.StartedAt,
		CompletedAt:         r.CompletedAt,
		EstimatedCompletion: r.EstimatedCompletion,
		ErrorMessage:        r.ErrorMessage,
		ResultAvailable:     r.Status == domain.TaskStatusCompleted && r.Result != nil,
	}
	if r.ProcessingTime > 0 {
		secs := r.ProcessingTime.Seconds()
		resp.ProcessingTime = &secs
	}
	if includeResult {
		resp.Result = r.Result
	}
	return resp
}

func statsToResponse(s queue.Stats) QueueStatsResponse {
	return QueueStatsResponse{
		TotalTasks:         s.TotalTasks,
		PendingTasks:       s.PendingTasks,
		RunningTasks:       s.RunningTasks,
		MaxConcurrentTasks: s.MaxConcurrentTasks,
		StatusCounts:       s.StatusCounts,
		RegisteredHandlers: s.RegisteredHandlers,
	}
}
