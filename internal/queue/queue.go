package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lexhide/ocrflow/internal/domain"
)

// HandlerFunc performs the work for one task type. The payload is opaque to
// the engine. Handlers signal failure by returning an error and are expected
// to honor ctx cancellation promptly if they want to support cooperative
// abort; the engine marks a cancelled task CANCELLED regardless.
type HandlerFunc func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Config holds configuration for the task engine
type Config struct {
	// MaxConcurrentTasks caps the number of simultaneously executing tasks
	MaxConcurrentTasks int

	// TaskTimeout is the per-task execution deadline
	TaskTimeout time.Duration

	// ResultCacheTTL is how long terminal records survive before the
	// janitor evicts them
	ResultCacheTTL time.Duration

	// CleanupInterval is how often the janitor sweeps for expired records
	// If zero, defaults to 5 minutes
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		MaxConcurrentTasks: 4,
		TaskTimeout:        5 * time.Minute,
		ResultCacheTTL:     time.Hour,
		CleanupInterval:    5 * time.Minute,
	}
}

// Engine manages asynchronous task execution. Construct with New, register
// handlers, then Start. All methods are safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	// mu guards handlers, store, pending and running. The dispatcher is the
	// only goroutine that moves tasks out of pending, executors only touch
	// their own record, and every mutation happens under this one lock.
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	store    *taskStore
	pending  *pendingQueue
	running  map[uuid.UUID]context.CancelFunc
	started  bool

	gate *gate
	wake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	loopWG sync.WaitGroup
	execWG sync.WaitGroup
}

// New creates an engine. Zero config fields fall back to defaults.
func New(cfg Config, logger *slog.Logger) *Engine {
	return NewWithMetrics(cfg, logger, defaultMetrics())
}

// NewWithMetrics creates an engine reporting to the given metrics instance.
// Useful in tests that need a fresh prometheus registry.
func NewWithMetrics(cfg Config, logger *slog.Logger, metrics *Metrics) *Engine {
	def := DefaultConfig()
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = def.MaxConcurrentTasks
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = def.ResultCacheTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		handlers: make(map[string]HandlerFunc),
		store:    newTaskStore(),
		pending:  newPendingQueue(),
		running:  make(map[uuid.UUID]context.CancelFunc),
		gate:     newGate(cfg.MaxConcurrentTasks),
		wake:     make(chan struct{}, 1),
	}
}

// RegisterHandler associates a task type with its handler. Re-registration
// overwrites silently; the last writer wins.
func (e *Engine) RegisterHandler(taskType string, handler HandlerFunc) {
	e.mu.Lock()
	e.handlers[taskType] = handler
	e.mu.Unlock()

	e.logger.Info("registered task handler", "task_type", taskType)
}

// Submit creates a task and queues it for execution, returning its id.
// Fails with domain.ErrUnknownTaskType if no handler is registered for the
// type; no task record is created in that case. Higher priority tasks are
// dispatched first; equal priorities run in submission order. Priority is
// fixed at submission: sustained high-priority load can starve lower
// priorities.
func (e *Engine) Submit(taskType string, payload map[string]any, priority int) (uuid.UUID, error) {
	e.mu.Lock()
	if _, ok := e.handlers[taskType]; !ok {
		e.mu.Unlock()
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrUnknownTaskType, taskType)
	}

	task := domain.NewTask(taskType, payload, priority)
	e.store.put(task, domain.NewTaskResult(task.ID))
	e.pending.push(task.ID, priority)
	e.mu.Unlock()

	e.metrics.submitted.Inc()
	e.nudge()

	e.logger.Info("task submitted",
		"task_id", task.ID,
		"task_type", taskType,
		"priority", priority)

	return task.ID, nil
}

// GetStatus returns a snapshot of the task's current record, or
// domain.ErrTaskNotFound. The snapshot may lag a concurrent transition.
func (e *Engine) GetStatus(id uuid.UUID) (*domain.TaskResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, ok := e.store.result(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return result.Clone(), nil
}

// GetResult returns the result payload if the task completed successfully.
// The second return is false when the task is unknown or not yet completed;
// callers should check GetStatus to tell those apart.
func (e *Engine) GetResult(id uuid.UUID) (map[string]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, ok := e.store.result(id)
	if !ok || result.Status != domain.TaskStatusCompleted {
		return nil, false
	}
	return result.Clone().Result, true
}

// Cancel cancels a task. A pending task is removed from the queue and marked
// CANCELLED immediately. A processing task has its context cancelled and is
// marked CANCELLED right away; the handler may still be running until it
// observes the cancellation, which is a documented race. Returns false if
// the task is unknown or already terminal.
func (e *Engine) Cancel(id uuid.UUID) bool {
	e.mu.Lock()

	result, ok := e.store.result(id)
	if !ok || result.Status.Terminal() {
		e.mu.Unlock()
		return false
	}

	if e.pending.remove(id) {
		e.markTerminalLocked(result, domain.TaskStatusCancelled, nil, "")
		e.mu.Unlock()
		e.nudge()
		e.logger.Info("cancelled pending task", "task_id", id)
		return true
	}

	if cancel, running := e.running[id]; running {
		e.markTerminalLocked(result, domain.TaskStatusCancelled, nil, "")
		e.mu.Unlock()
		cancel()
		e.logger.Info("cancelled running task", "task_id", id)
		return true
	}

	e.mu.Unlock()
	return false
}

// Start launches the dispatcher and janitor loops.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return domain.ErrEngineStarted
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	e.loopWG.Add(2)
	go e.dispatchLoop()
	go e.janitorLoop()

	e.logger.Info("task engine started",
		"max_concurrent_tasks", e.cfg.MaxConcurrentTasks,
		"task_timeout", e.cfg.TaskTimeout,
		"result_cache_ttl", e.cfg.ResultCacheTTL)

	return nil
}

// Stop shuts the engine down: the dispatcher and janitor exit, every
// in-flight execution is cancelled, and Stop blocks until each execution
// has finished its cleanup path. No background work outlives the call.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.loopWG.Wait()
	e.execWG.Wait()

	e.logger.Info("task engine stopped")
}

// markTerminalLocked applies a terminal transition. Terminal records are
// never mutated again, so this is a no-op when the record is already done.
// Caller must hold e.mu.
func (e *Engine) markTerminalLocked(result *domain.TaskResult, status domain.TaskStatus, payload map[string]any, errMsg string) {
	if result.Status.Terminal() {
		return
	}

	now := time.Now().UTC()
	result.Status = status
	result.CompletedAt = &now
	result.ErrorMessage = errMsg
	if status == domain.TaskStatusCompleted {
		result.Result = payload
		result.Progress = 1.0
	}
	if result.StartedAt != nil {
		result.ProcessingTime = now.Sub(*result.StartedAt)
	}

	e.metrics.finished.WithLabelValues(string(status)).Inc()
}

// nudge wakes the dispatcher without blocking. The channel holds one
// pending wakeup; extra nudges while one is queued are redundant.
func (e *Engine) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
