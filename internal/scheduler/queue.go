// Package scheduler owns the pending-work queue, the traversal
// orders of a full-grid scheduling pass, and the bounded dispatcher
// that feeds tile computations to background workers.
package scheduler

import "github.com/fractal-tiles/explorer/internal/camera"

// Request asks for one tile to be recomputed under a captured camera.
// Requests are immutable and consumed exactly once.
type Request struct {
	Tile       int
	Cam        camera.Snapshot
	Generation int
	Iterations int
}

// Queue is the ordered pending-request collection, owned exclusively
// by the control loop. With dedup enabled a tile appears at most once:
// re-enqueueing a queued tile replaces its entry at the back, so the
// queue length is naturally capped at the grid size.
type Queue struct {
	pending []Request
	queued  map[int]struct{}
	dedup   bool
}

// NewQueue creates a queue. dedup enables one-entry-per-tile
// replacement semantics.
func NewQueue(dedup bool) *Queue {
	return &Queue{queued: make(map[int]struct{}), dedup: dedup}
}

// Enqueue appends a request, first dropping any stale queued entry
// for the same tile when dedup is on.
func (q *Queue) Enqueue(r Request) {
	if q.dedup {
		if _, ok := q.queued[r.Tile]; ok {
			for i := range q.pending {
				if q.pending[i].Tile == r.Tile {
					q.pending = append(q.pending[:i], q.pending[i+1:]...)
					break
				}
			}
		}
	}
	q.pending = append(q.pending, r)
	q.queued[r.Tile] = struct{}{}
}

// Dequeue removes and returns the head request.
func (q *Queue) Dequeue() (Request, bool) {
	if len(q.pending) == 0 {
		return Request{}, false
	}
	r := q.pending[0]
	q.pending = q.pending[1:]
	delete(q.queued, r.Tile)
	return r, true
}

// requeueFront puts a dequeued request back at the head, used when
// the dispatcher cannot admit it right now.
func (q *Queue) requeueFront(r Request) {
	q.pending = append([]Request{r}, q.pending...)
	q.queued[r.Tile] = struct{}{}
}

// Len returns the number of queued requests.
func (q *Queue) Len() int { return len(q.pending) }
