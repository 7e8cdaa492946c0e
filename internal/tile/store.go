// Package tile holds the screen tile grid: per-tile raster slots,
// generation tracking, and the per-frame promotion of freshly
// computed rasters into the visible set.
package tile

import (
	"image"
	"sync"

	"github.com/fractal-tiles/explorer/internal/camera"
)

// slot is one retained raster plus the world-space bounds it was
// computed for. A nil image means the slot has never been filled.
type slot struct {
	img    *image.RGBA
	bounds camera.WorldRect
}

// Tile is one fixed rectangular region of the screen. The mutex
// guards generation, the pending buffer, and the three raster slots;
// it is held only for commits and promotions, never across a
// computation.
type Tile struct {
	Col, Row int

	mu         sync.Mutex
	generation int

	pending    *image.RGBA
	pendingCam camera.Snapshot

	current, previous, previousPrevious slot
}

// Store is the fixed-size tile grid, allocated once at startup.
// Raster buffers cycle through a pool so promotions do not allocate.
type Store struct {
	Cols, Rows   int
	TileW, TileH int

	tiles []Tile
	pool  sync.Pool
}

// NewStore creates a cols x rows grid of tiles of the given pixel size.
func NewStore(cols, rows, tileW, tileH int) *Store {
	s := &Store{
		Cols:  cols,
		Rows:  rows,
		TileW: tileW,
		TileH: tileH,
		tiles: make([]Tile, cols*rows),
	}
	s.pool.New = func() interface{} {
		return image.NewRGBA(image.Rect(0, 0, tileW, tileH))
	}
	for i := range s.tiles {
		s.tiles[i].Col = i % cols
		s.tiles[i].Row = i / cols
	}
	return s
}

// Len returns the tile count.
func (s *Store) Len() int { return len(s.tiles) }

// Tile returns the tile at index i.
func (s *Store) Tile(i int) *Tile { return &s.tiles[i] }

// Generation returns the most recent generation accepted for tile i.
func (s *Store) Generation(i int) int {
	t := &s.tiles[i]
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// RaiseGeneration records that a computation for the given generation
// has started, so older in-flight results know they are superseded.
// The generation never decreases.
func (s *Store) RaiseGeneration(i, generation int) {
	t := &s.tiles[i]
	t.mu.Lock()
	if t.generation <= generation {
		t.generation = generation
	}
	t.mu.Unlock()
}

// CheckoutBuffer hands out a raster buffer for a worker to fill.
func (s *Store) CheckoutBuffer() *image.RGBA {
	return s.pool.Get().(*image.RGBA)
}

// RecycleBuffer returns a buffer to the pool.
func (s *Store) RecycleBuffer(img *image.RGBA) {
	if img != nil {
		s.pool.Put(img)
	}
}

// Commit installs a finished raster as tile i's pending buffer,
// provided no newer generation has claimed the tile in the meantime.
// It reports whether the raster was accepted; on rejection the caller
// still owns the buffer. A replaced pending buffer is recycled, so at
// most one pending raster exists per tile.
func (s *Store) Commit(i, generation int, img *image.RGBA, cam camera.Snapshot) bool {
	t := &s.tiles[i]
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generation > generation {
		return false
	}
	t.generation = generation
	if t.pending != nil {
		s.pool.Put(t.pending)
	}
	t.pending = img
	t.pendingCam = cam
	return true
}
