package queue

import "github.com/google/uuid"

// pendingQueue holds the ids of tasks waiting for dispatch, ordered by
// priority (higher first). Among equal priorities insertion order is
// preserved. Not safe for concurrent use; the engine's mutex guards it.
type pendingQueue struct {
	ids      []uuid.UUID
	priority map[uuid.UUID]int
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{priority: make(map[uuid.UUID]int)}
}

// push inserts the id before the first entry with a strictly lower
// priority, so equal-priority tasks keep their arrival order.
func (q *pendingQueue) push(id uuid.UUID, priority int) {
	q.priority[id] = priority
	for i, existing := range q.ids {
		if priority > q.priority[existing] {
			q.ids = append(q.ids[:i], append([]uuid.UUID{id}, q.ids[i:]...)...)
			return
		}
	}
	q.ids = append(q.ids, id)
}

// pop removes and returns the highest-priority id.
func (q *pendingQueue) pop() (uuid.UUID, bool) {
	if len(q.ids) == 0 {
		return uuid.Nil, false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	delete(q.priority, id)
	return id, true
}

// remove deletes the id from the queue, reporting whether it was present.
func (q *pendingQueue) remove(id uuid.UUID) bool {
	if _, ok := q.priority[id]; !ok {
		return false
	}
	for i, existing := range q.ids {
		if existing == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			break
		}
	}
	delete(q.priority, id)
	return true
}

func (q *pendingQueue) len() int {
	return len(q.ids)
}
