package tile

import (
	"image"

	"github.com/fractal-tiles/explorer/internal/camera"
)

// Layer is one raster ready to draw: pixels, the screen rectangle it
// occupies under the live camera, and its age (0 = current,
// 2 = previous-previous).
type Layer struct {
	Img  *image.RGBA
	Rect camera.Rect
	Age  int
}

// Compositor promotes pending rasters into the visible slots and
// produces the draw list for the render backend.
type Compositor struct {
	store    *Store
	mapper   camera.Mapper
	temporal bool
}

// NewCompositor creates a compositor. With temporal disabled only the
// current slot is kept and older rasters are dropped on promotion.
func NewCompositor(store *Store, mapper camera.Mapper, temporal bool) *Compositor {
	return &Compositor{store: store, mapper: mapper, temporal: temporal}
}

// Promote shifts each tile with a ready pending buffer:
// previous moves to previousPrevious, current to previous, and the
// pending raster becomes current, carrying the world bounds captured
// with it. The displaced oldest buffer is recycled. Returns the
// number of tiles promoted.
func (c *Compositor) Promote() int {
	promoted := 0
	for i := range c.store.tiles {
		t := &c.store.tiles[i]
		t.mu.Lock()
		if t.pending == nil {
			t.mu.Unlock()
			continue
		}
		if c.temporal {
			c.store.RecycleBuffer(t.previousPrevious.img)
			t.previousPrevious = t.previous
			t.previous = t.current
		} else {
			c.store.RecycleBuffer(t.current.img)
		}
		t.current = slot{
			img:    t.pending,
			bounds: c.mapper.TileWorldRect(t.Col, t.Row, t.pendingCam),
		}
		t.pending = nil
		t.mu.Unlock()
		promoted++
	}
	return promoted
}

// Layers returns the draw list under the live camera, oldest slots
// first so the freshest raster wins wherever rectangles overlap.
// Each rectangle is reprojected from the bounds captured when the
// slot's raster was computed.
func (c *Compositor) Layers(live camera.Snapshot) []Layer {
	layers := make([]Layer, 0, 3*len(c.store.tiles))
	if c.temporal {
		layers = c.appendAge(layers, live, 2)
		layers = c.appendAge(layers, live, 1)
	}
	return c.appendAge(layers, live, 0)
}

func (c *Compositor) appendAge(layers []Layer, live camera.Snapshot, age int) []Layer {
	for i := range c.store.tiles {
		t := &c.store.tiles[i]
		t.mu.Lock()
		sl := t.current
		switch age {
		case 1:
			sl = t.previous
		case 2:
			sl = t.previousPrevious
		}
		if sl.img == nil {
			t.mu.Unlock()
			continue
		}
		rect := c.mapper.ScreenRect(sl.bounds, live)
		layers = append(layers, Layer{Img: sl.img, Rect: rect, Age: age})
		t.mu.Unlock()
	}
	return layers
}
