package queue

import (
	"time"

	"github.com/google/uuid"
)

// janitorLoop periodically evicts terminal records older than the result
// cache TTL. It is the only mechanism bounding store growth and the only
// path that deletes tasks. Sweep errors are logged and the loop continues.
func (e *Engine) janitorLoop() {
	defer e.loopWG.Done()

	ticker := time.NewTicker(e.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if n, err := e.sweepExpired(time.Now().UTC()); err != nil {
				e.logger.Error("cleanup sweep failed", "error", err)
			} else if n > 0 {
				e.logger.Info("evicted expired task results", "count", n)
			}
		}
	}
}

// sweepExpired deletes every terminal record whose completion timestamp
// precedes now minus the TTL, returning how many were evicted.
func (e *Engine) sweepExpired(now time.Time) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	cutoff := now.Add(-e.cfg.ResultCacheTTL)

	e.mu.Lock()
	defer e.mu.Unlock()

	var expired []uuid.UUID
	for id, result := range e.store.results {
		if result.Status.Terminal() && result.CompletedAt != nil && result.CompletedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		e.store.delete(id)
	}

	e.metrics.evicted.Add(float64(len(expired)))
	return len(expired), nil
}
