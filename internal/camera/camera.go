// Package camera provides the view state for the explorer: an
// extended-precision camera, the mapping between screen and world
// coordinates, and change detection that decides when the view has
// drifted enough to re-render.
package camera

import (
	"fmt"
	"math/big"
)

// Prec is the mantissa size, in bits, used for all world-space
// arithmetic. Plain float64 runs out of precision around zoom 1e15,
// well short of the zoom depths the explorer targets (~8.7e16).
const Prec = 128

func newFloat() *big.Float {
	return new(big.Float).SetPrec(Prec)
}

// Camera holds the live view: world-space center and zoom factor
// (screen pixels per world unit). It is owned by the render loop and
// must not be shared across goroutines; workers receive Snapshots.
type Camera struct {
	X, Y, Zoom *big.Float
}

// New creates a camera centered on (x, y) at the given zoom.
func New(x, y, zoom float64) *Camera {
	return &Camera{
		X:    newFloat().SetFloat64(x),
		Y:    newFloat().SetFloat64(y),
		Zoom: newFloat().SetFloat64(zoom),
	}
}

// NewFromStrings creates a camera from decimal strings, so deep-zoom
// targets survive with full precision instead of being rounded
// through float64.
func NewFromStrings(x, y string, zoom float64) (*Camera, error) {
	cam := New(0, 0, zoom)
	if _, ok := cam.X.SetString(x); !ok {
		return nil, fmt.Errorf("invalid camera x: %q", x)
	}
	if _, ok := cam.Y.SetString(y); !ok {
		return nil, fmt.Errorf("invalid camera y: %q", y)
	}
	return cam, nil
}

// Snapshot is an immutable copy of the camera state, captured when a
// scheduling pass or a raster is produced. Fields must not be mutated
// after capture.
type Snapshot struct {
	X, Y, Zoom *big.Float
}

// Snapshot captures the current state.
func (c *Camera) Snapshot() Snapshot {
	return Snapshot{
		X:    newFloat().Set(c.X),
		Y:    newFloat().Set(c.Y),
		Zoom: newFloat().Set(c.Zoom),
	}
}

// Pan moves the center by (dx, dy) input units. The world-space step
// is speed/zoom/fps per unit, so panning slows down as the view
// zooms in, keeping on-screen speed constant.
func (c *Camera) Pan(dx, dy, speed float64, fps int) {
	if fps <= 0 {
		fps = 1
	}
	step := newFloat().Quo(newFloat().SetFloat64(speed/float64(fps)), c.Zoom)
	if dx != 0 {
		c.X.Add(c.X, newFloat().Mul(step, newFloat().SetFloat64(dx)))
	}
	if dy != 0 {
		c.Y.Add(c.Y, newFloat().Mul(step, newFloat().SetFloat64(dy)))
	}
}

// minZoomFactor floors the per-step zoom scale. A zero or negative
// zoom would break the world mapping (division by zero, inverted
// axes), so a single step can shrink the zoom by at most 100x.
const minZoomFactor = 0.01

// ZoomBy scales the zoom by (1 + dir*speed/fps). Positive dir zooms
// in, negative zooms out. The factor is clamped so arbitrary input
// can never zero or flip the zoom.
func (c *Camera) ZoomBy(dir, speed float64, fps int) {
	if fps <= 0 {
		fps = 1
	}
	f := 1 + dir*speed/float64(fps)
	if f < minZoomFactor {
		f = minZoomFactor
	}
	c.Zoom.Mul(c.Zoom, newFloat().SetFloat64(f))
}

// MulZoom multiplies the zoom by a fixed factor. Used by the video
// exporter's geometric zoom ladder.
func (c *Camera) MulZoom(factor *big.Float) {
	c.Zoom.Mul(c.Zoom, factor)
}

// Set overwrites the camera state.
func (c *Camera) Set(x, y, zoom float64) {
	c.X.SetFloat64(x)
	c.Y.SetFloat64(y)
	c.Zoom.SetFloat64(zoom)
}

// Echo formats the state with enough digits to paste back into a
// config file and land on the same view.
func (s Snapshot) Echo() (x, y, zoom string) {
	return s.X.Text('f', 40), s.Y.Text('f', 40), s.Zoom.Text('g', 20)
}
