package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexhide/ocrflow/internal/domain"
)

// handlerOutcome is the tagged result of one handler invocation.
type handlerOutcome struct {
	payload map[string]any
	err     error
}

// execute runs one dispatched task to a terminal state: acquire a gate
// unit, run the handler under the configured deadline, classify the outcome
// and record it. The gate unit, the in-flight entry and the context are
// released on every exit path, including handler panics.
func (e *Engine) execute(ctx context.Context, task *domain.Task) {
	defer e.execWG.Done()
	defer e.finishExecution(task.ID)

	logger := e.logger.With("task_id", task.ID, "task_type", task.Type)

	if err := e.gate.acquire(ctx); err != nil {
		// Only possible when the task or the whole engine was cancelled
		// while waiting for a slot.
		e.recordOutcome(task.ID, domain.TaskStatusCancelled, nil, "")
		logger.Info("task cancelled before execution")
		return
	}
	defer e.gate.release()

	e.mu.Lock()
	handler, ok := e.handlers[task.Type]
	e.mu.Unlock()
	if !ok {
		e.recordOutcome(task.ID, domain.TaskStatusFailed, nil,
			fmt.Sprintf("no handler registered for task type: %s", task.Type))
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.TaskTimeout)
	defer cancel()

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- handlerOutcome{err: panicError(r)}
			}
		}()
		payload, err := handler(runCtx, task.Payload)
		done <- handlerOutcome{payload: payload, err: err}
	}()

	select {
	case out := <-done:
		// A handler that observed its context going away surfaces the ctx
		// error; classify by the context rather than treating it as a
		// handler failure.
		if out.err != nil && runCtx.Err() != nil {
			e.recordDeadline(task.ID, runCtx, logger)
			return
		}
		if out.err != nil {
			e.recordOutcome(task.ID, domain.TaskStatusFailed, nil, out.err.Error())
			logger.Error("task execution failed", "error", out.err)
			return
		}
		e.recordOutcome(task.ID, domain.TaskStatusCompleted, out.payload, "")
		logger.Info("task completed")

	case <-runCtx.Done():
		// The handler goroutine may still be running until it observes
		// runCtx; that race is part of the cooperative cancellation
		// contract.
		e.recordDeadline(task.ID, runCtx, logger)
	}
}

// recordDeadline classifies a context-terminated execution as TIMEOUT or
// CANCELLED.
func (e *Engine) recordDeadline(id uuid.UUID, runCtx context.Context, logger *slog.Logger) {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		e.recordOutcome(id, domain.TaskStatusTimeout, nil,
			fmt.Sprintf("task timed out after %s", e.cfg.TaskTimeout))
		logger.Warn("task timed out", "timeout", e.cfg.TaskTimeout)
		return
	}
	e.recordOutcome(id, domain.TaskStatusCancelled, nil, "")
	logger.Info("task cancelled")
}

// recordOutcome applies a terminal transition for the task, unless another
// path (e.g. Cancel) already made one.
func (e *Engine) recordOutcome(id uuid.UUID, status domain.TaskStatus, payload map[string]any, errMsg string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, ok := e.store.result(id)
	if !ok {
		return
	}
	e.markTerminalLocked(result, status, payload, errMsg)
}

// finishExecution removes the task from the in-flight set and wakes the
// dispatcher so the freed slot is reused immediately.
func (e *Engine) finishExecution(id uuid.UUID) {
	e.mu.Lock()
	if cancel, ok := e.running[id]; ok {
		cancel()
		delete(e.running, id)
	}
	e.mu.Unlock()

	e.metrics.running.Dec()
	e.nudge()
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
