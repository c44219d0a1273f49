package queue

import (
	"github.com/google/uuid"
	"github.com/lexhide/ocrflow/internal/domain"
)

// taskStore keeps tasks and their result records in memory. Each task has
// exactly one result record from creation until the janitor evicts both
// together. Not safe for concurrent use; the engine's mutex guards it.
type taskStore struct {
	tasks   map[uuid.UUID]*domain.Task
	results map[uuid.UUID]*domain.TaskResult
}

func newTaskStore() *taskStore {
	return &taskStore{
		tasks:   make(map[uuid.UUID]*domain.Task),
		results: make(map[uuid.UUID]*domain.TaskResult),
	}
}

func (s *taskStore) put(task *domain.Task, result *domain.TaskResult) {
	s.tasks[task.ID] = task
	s.results[task.ID] = result
}

func (s *taskStore) task(id uuid.UUID) (*domain.Task, bool) {
	t, ok := s.tasks[id]
	return t, ok
}

func (s *taskStore) result(id uuid.UUID) (*domain.TaskResult, bool) {
	r, ok := s.results[id]
	return r, ok
}

func (s *taskStore) delete(id uuid.UUID) {
	delete(s.tasks, id)
	delete(s.results, id)
}

func (s *taskStore) len() int {
	return len(s.results)
}
