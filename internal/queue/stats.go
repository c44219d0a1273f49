package queue

import (
	"sort"
)

// Stats is a read-only snapshot of queue state, used for observability.
type Stats struct {
	TotalTasks         int            `json:"total_tasks"`
	PendingTasks       int            `json:"pending_tasks"`
	RunningTasks       int            `json:"running_tasks"`
	MaxConcurrentTasks int            `json:"max_concurrent_tasks"`
	StatusCounts       map[string]int `json:"status_counts"`
	RegisteredHandlers []string       `json:"registered_handlers"`
}

// Stats reports current queue statistics without mutating any state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[string]int)
	for _, result := range e.store.results {
		counts[string(result.Status)]++
	}

	handlers := make([]string, 0, len(e.handlers))
	for taskType := range e.handlers {
		handlers = append(handlers, taskType)
	}
	sort.Strings(handlers)

	return Stats{
		TotalTasks:         e.store.len(),
		PendingTasks:       e.pending.len(),
		RunningTasks:       len(e.running),
		MaxConcurrentTasks: e.cfg.MaxConcurrentTasks,
		StatusCounts:       counts,
		RegisteredHandlers: handlers,
	}
}
