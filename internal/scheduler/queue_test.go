package scheduler

import "testing"

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(false)
	for i := 0; i < 3; i++ {
		q.Enqueue(Request{Tile: i, Generation: 1})
	}

	for i := 0; i < 3; i++ {
		r, ok := q.Dequeue()
		if !ok || r.Tile != i {
			t.Fatalf("dequeue %d: got (%v, %v)", i, r.Tile, ok)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("empty queue should not dequeue")
	}
}

func TestQueueDedupReplacesAtBack(t *testing.T) {
	q := NewQueue(true)
	q.Enqueue(Request{Tile: 0, Generation: 1})
	q.Enqueue(Request{Tile: 1, Generation: 1})
	q.Enqueue(Request{Tile: 0, Generation: 2})

	if q.Len() != 2 {
		t.Fatalf("dedup queue length: got %d, want 2", q.Len())
	}

	r, _ := q.Dequeue()
	if r.Tile != 1 {
		t.Fatalf("head after replacement: got tile %d, want 1", r.Tile)
	}
	r, _ = q.Dequeue()
	if r.Tile != 0 || r.Generation != 2 {
		t.Fatalf("replaced entry: got tile %d gen %d, want tile 0 gen 2", r.Tile, r.Generation)
	}
}

func TestQueueDedupCapsAtGridSize(t *testing.T) {
	const tiles = 16 * 9
	q := NewQueue(true)
	for pass := 0; pass < 5; pass++ {
		for i := 0; i < tiles; i++ {
			q.Enqueue(Request{Tile: i, Generation: pass})
		}
	}
	if q.Len() != tiles {
		t.Fatalf("queue length after repeated passes: got %d, want %d", q.Len(), tiles)
	}
}

func TestQueueNoDedupGrows(t *testing.T) {
	q := NewQueue(false)
	q.Enqueue(Request{Tile: 0, Generation: 1})
	q.Enqueue(Request{Tile: 0, Generation: 2})
	if q.Len() != 2 {
		t.Fatalf("without dedup both entries stay: got %d", q.Len())
	}
}

func TestRequeueFront(t *testing.T) {
	q := NewQueue(true)
	q.Enqueue(Request{Tile: 0, Generation: 1})
	q.Enqueue(Request{Tile: 1, Generation: 1})

	r, _ := q.Dequeue()
	q.requeueFront(r)

	head, _ := q.Dequeue()
	if head.Tile != 0 {
		t.Fatalf("requeued request should be at the head, got tile %d", head.Tile)
	}
}
