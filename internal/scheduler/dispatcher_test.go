package scheduler

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fractal-tiles/explorer/internal/camera"
	"github.com/fractal-tiles/explorer/internal/tile"
)

func testSnapshot() camera.Snapshot {
	return camera.New(0, 0, 500).Snapshot()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fill(img *image.RGBA, v uint8) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = v
		img.Pix[i+3] = 255
	}
}

// A slow computation for an old generation must lose to a faster one
// for a newer generation, even when it finishes later.
func TestStaleResultDiscarded(t *testing.T) {
	store := tile.NewStore(1, 1, 4, 4)
	mapper := camera.NewMapper(4, 4, 1, 1)

	release := map[int]chan struct{}{
		5: make(chan struct{}),
		6: make(chan struct{}),
	}
	rasterize := func(req Request, dst *image.RGBA) {
		<-release[req.Generation]
		fill(dst, uint8(req.Generation))
	}

	d := NewDispatcher(store, rasterize, 2)
	d.Start()
	defer d.Stop()

	q := NewQueue(false)
	q.Enqueue(Request{Tile: 0, Cam: testSnapshot(), Generation: 5, Iterations: 10})
	d.Drive(q)
	waitFor(t, "generation 5 to start", func() bool { return d.Running() == 1 })

	q.Enqueue(Request{Tile: 0, Cam: testSnapshot(), Generation: 6, Iterations: 10})
	d.Drive(q)
	waitFor(t, "generation 6 to start", func() bool { return d.Running() == 2 })

	// Let the newer generation finish first, then the stale one.
	close(release[6])
	waitFor(t, "generation 6 to finish", func() bool { return d.Running() == 1 })
	close(release[5])
	waitFor(t, "generation 5 to finish", func() bool { return d.Running() == 0 })

	if got := store.Generation(0); got != 6 {
		t.Fatalf("tile generation: got %d, want 6", got)
	}

	comp := tile.NewCompositor(store, mapper, true)
	if n := comp.Promote(); n != 1 {
		t.Fatalf("promoted %d tiles, want 1", n)
	}
	layers := comp.Layers(testSnapshot())
	if len(layers) != 1 {
		t.Fatalf("layers: got %d, want 1", len(layers))
	}
	if got := layers[0].Img.Pix[0]; got != 6 {
		t.Fatalf("visible raster is from generation %d, want 6", got)
	}
}

func TestBoundedConcurrency(t *testing.T) {
	const workers = 3
	store := tile.NewStore(5, 4, 4, 4)

	var running, peak atomic.Int32
	rasterize := func(req Request, dst *image.RGBA) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
	}

	d := NewDispatcher(store, rasterize, workers)
	d.Start()

	q := NewQueue(true)
	for i := 0; i < store.Len(); i++ {
		q.Enqueue(Request{Tile: i, Cam: testSnapshot(), Generation: 1, Iterations: 10})
	}
	for q.Len() > 0 {
		d.Drive(q)
		time.Sleep(time.Millisecond)
	}
	d.Stop()

	if got := peak.Load(); got > workers {
		t.Fatalf("peak concurrency %d exceeds budget %d", got, workers)
	}
	for i := 0; i < store.Len(); i++ {
		if store.Generation(i) != 1 {
			t.Fatalf("tile %d never computed", i)
		}
	}
}

func TestDriveDropsSupersededBeforeDispatch(t *testing.T) {
	store := tile.NewStore(1, 1, 4, 4)

	var calls atomic.Int32
	d := NewDispatcher(store, func(Request, *image.RGBA) { calls.Add(1) }, 1)
	d.Start()
	defer d.Stop()

	store.RaiseGeneration(0, 5)

	q := NewQueue(false)
	q.Enqueue(Request{Tile: 0, Cam: testSnapshot(), Generation: 3, Iterations: 10})
	if admitted := d.Drive(q); admitted != 0 {
		t.Fatalf("superseded request admitted: %d", admitted)
	}
	if q.Len() != 0 {
		t.Fatal("superseded request should be dropped, not requeued")
	}
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("superseded request was dispatched")
	}
}

func TestDriveNeverBlocks(t *testing.T) {
	const workers = 2
	store := tile.NewStore(4, 4, 4, 4)

	gate := make(chan struct{})
	d := NewDispatcher(store, func(Request, *image.RGBA) { <-gate }, workers)
	d.Start()

	q := NewQueue(true)
	for i := 0; i < store.Len(); i++ {
		q.Enqueue(Request{Tile: i, Cam: testSnapshot(), Generation: 1, Iterations: 10})
	}

	before := q.Len()
	done := make(chan struct{})
	go func() {
		d.Drive(q)
		d.Drive(q)
		d.Drive(q)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drive blocked with saturated workers")
	}
	if q.Len() == 0 || q.Len() >= before {
		t.Fatalf("expected partial admission, queue went %d -> %d", before, q.Len())
	}

	close(gate)
	for q.Len() > 0 {
		d.Drive(q)
		time.Sleep(time.Millisecond)
	}
	d.Stop()
}
