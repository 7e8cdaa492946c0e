package scheduler

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/fractal-tiles/explorer/internal/tile"
)

// RasterizeFunc fills dst with the pixels of one request. It runs on
// a worker goroutine and must not touch shared state.
type RasterizeFunc func(req Request, dst *image.RGBA)

// Dispatcher drains the queue under a fixed concurrency budget. A
// pool of worker goroutines consumes admitted requests from a
// buffered channel; results commit through the store's generation
// check, so a stale computation is discarded rather than cancelled.
type Dispatcher struct {
	store     *tile.Store
	rasterize RasterizeFunc
	workers   int

	requests chan Request
	running  atomic.Int32
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher with the given concurrency
// budget. Call Start before Drive.
func NewDispatcher(store *tile.Store, rasterize RasterizeFunc, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		store:     store,
		rasterize: rasterize,
		workers:   workers,
		requests:  make(chan Request, workers),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop drains the pool; in-flight computations run to completion.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.requests)
		d.wg.Wait()
	})
}

// Drive admits queued requests while worker capacity remains. It is
// called from the control loop every frame and never blocks: if the
// request channel is momentarily full the head request goes back to
// the front of the queue for the next frame. Requests already
// superseded by a newer generation are dropped without dispatch.
// Returns the number of requests admitted.
func (d *Dispatcher) Drive(q *Queue) int {
	admitted := 0
	for int(d.running.Load()) < d.workers && q.Len() > 0 {
		req, ok := q.Dequeue()
		if !ok {
			break
		}
		if d.store.Generation(req.Tile) > req.Generation {
			continue
		}
		select {
		case d.requests <- req:
			admitted++
		default:
			q.requeueFront(req)
			return admitted
		}
	}
	return admitted
}

// Running reports how many workers are computing right now.
func (d *Dispatcher) Running() int {
	return int(d.running.Load())
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for req := range d.requests {
		d.running.Add(1)
		d.compute(req)
		d.running.Add(-1)
	}
}

// compute runs one tile computation. The generation is raised up
// front so slower in-flight work for older generations knows it has
// been superseded; the commit re-checks under the tile lock. Either
// way the worker runs to completion, since discarding a finished
// raster is cheaper than interrupting the computation.
func (d *Dispatcher) compute(req Request) {
	d.store.RaiseGeneration(req.Tile, req.Generation)
	buf := d.store.CheckoutBuffer()
	d.rasterize(req, buf)
	if !d.store.Commit(req.Tile, req.Generation, buf, req.Cam) {
		d.store.RecycleBuffer(buf)
	}
}
