package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusTimeout    TaskStatus = "timeout"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusTimeout, TaskStatusCancelled:
		return true
	}
	return false
}

// Task is one unit of submitted work. It is immutable after creation;
// all lifecycle state lives on the associated TaskResult.
type Task struct {
	ID        uuid.UUID
	Type      string
	Payload   map[string]any
	Priority  int
	CreatedAt time.Time
}

// NewTask creates a task with a fresh identifier.
func NewTask(taskType string, payload map[string]any, priority int) *Task {
	return &Task{
		ID:        uuid.New(),
		Type:      taskType,
		Payload:   payload,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
}

// TaskResult tracks the lifecycle of a single task. The engine owns the
// canonical record; callers only ever see copies made with Clone.
type TaskResult struct {
	TaskID              uuid.UUID
	Status              TaskStatus
	Result              map[string]any
	ErrorMessage        string
	Progress            float64
	CreatedAt           time.Time
	StartedAt           *time.Time
	CompletedAt         *time.Time
	EstimatedCompletion *time.Time
	ProcessingTime      time.Duration
}

// NewTaskResult creates the initial pending record for a task.
func NewTaskResult(taskID uuid.UUID) *TaskResult {
	return &TaskResult{
		TaskID:    taskID,
		Status:    TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a snapshot of the record. Timestamps are copied so that
// later transitions on the engine's record never show through.
func (r *TaskResult) Clone() *TaskResult {
	c := *r
	c.StartedAt = copyTime(r.StartedAt)
	c.CompletedAt = copyTime(r.CompletedAt)
	c.EstimatedCompletion = copyTime(r.EstimatedCompletion)
	if r.Result != nil {
		c.Result = make(map[string]any, len(r.Result))
		for k, v := range r.Result {
			c.Result[k] = v
		}
	}
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
