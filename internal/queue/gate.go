package queue

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// gate bounds the number of simultaneously executing tasks using a weighted
// semaphore. The dispatcher checks capacity before handing a task to an
// executor, but the gate is the actual source of truth: every execution
// holds one unit for its full duration.
type gate struct {
	sem *semaphore.Weighted
}

func newGate(limit int) *gate {
	if limit < 1 {
		limit = 1
	}
	return &gate{sem: semaphore.NewWeighted(int64(limit))}
}

// acquire blocks until a slot is free. Returns ctx.Err() if the context is
// cancelled while waiting.
func (g *gate) acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *gate) release() {
	g.sem.Release(1)
}
