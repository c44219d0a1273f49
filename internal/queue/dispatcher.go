package queue

import (
	"context"
	"time"

	"github.com/lexhide/ocrflow/internal/domain"
)

// dispatchSweepInterval is a safety-net poll in case a wakeup is ever
// missed; normal dispatch latency comes from the wake channel, which is
// nudged on every submit, cancellation and slot release.
const dispatchSweepInterval = time.Second

// dispatchLoop moves tasks from the pending queue into execution while
// capacity allows. It never exits on a dispatch error; it logs and resumes
// after a short backoff.
func (e *Engine) dispatchLoop() {
	defer e.loopWG.Done()

	ticker := time.NewTicker(dispatchSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.wake:
		case <-ticker.C:
		}

		if err := e.dispatchReady(); err != nil {
			e.logger.Error("dispatch pass failed", "error", err)
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// dispatchReady starts executions until the pending queue is empty or the
// concurrency limit is reached.
func (e *Engine) dispatchReady() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	for {
		e.mu.Lock()
		if e.pending.len() == 0 || len(e.running) >= e.cfg.MaxConcurrentTasks {
			e.mu.Unlock()
			return nil
		}

		id, _ := e.pending.pop()
		task, ok := e.store.task(id)
		result, rok := e.store.result(id)
		if !ok || !rok {
			// Evicted or cancelled between queueing and dispatch.
			e.mu.Unlock()
			continue
		}

		now := time.Now().UTC()
		eta := now.Add(e.cfg.TaskTimeout)
		result.Status = domain.TaskStatusProcessing
		result.StartedAt = &now
		result.EstimatedCompletion = &eta

		taskCtx, cancel := context.WithCancel(e.ctx)
		e.running[id] = cancel
		e.mu.Unlock()

		e.metrics.running.Inc()
		e.execWG.Add(1)
		go e.execute(taskCtx, task)

		e.logger.Info("dispatched task",
			"task_id", id,
			"task_type", task.Type,
			"priority", task.Priority)
	}
}
