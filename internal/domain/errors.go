package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrUnknownTaskType is returned by Submit when no handler is registered
	// for the requested task type. No task record is created in this case.
	ErrUnknownTaskType = errors.New("no handler registered for task type")

	// ErrTaskNotFound is returned when a task id does not exist in the store,
	// either because it was never created or the janitor already evicted it.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEngineStarted is returned when Start is called on a running engine.
	ErrEngineStarted = errors.New("engine already started")

	// ErrInvalidID is returned when a task id is malformed.
	ErrInvalidID = errors.New("invalid task ID")
)
