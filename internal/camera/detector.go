package camera

import "math/big"

// Detector compares the live camera against the state captured at the
// last scheduling pass and decides when accumulated drift justifies a
// full re-render. Thresholds are expressed in screen terms, so the
// world-space pan tolerance shrinks as zoom grows.
type Detector struct {
	// PositionThreshold triggers a pass when the center moved by more
	// than 1000*threshold/zoom world units on either axis.
	PositionThreshold float64
	// ZoomThreshold triggers a pass when |1 - zoom/lastZoom| exceeds it.
	ZoomThreshold float64

	last Snapshot
}

// NewDetector creates a detector seeded with the initial camera state.
func NewDetector(initial Snapshot, positionThreshold, zoomThreshold float64) *Detector {
	return &Detector{
		PositionThreshold: positionThreshold,
		ZoomThreshold:     zoomThreshold,
		last:              initial,
	}
}

// Changed reports whether the camera has drifted past either
// threshold since the last Mark.
func (d *Detector) Changed(cam Snapshot) bool {
	tol := newFloat().Quo(newFloat().SetFloat64(1000*d.PositionThreshold), cam.Zoom)
	dx := newFloat().Sub(cam.X, d.last.X)
	if dx.Abs(dx).Cmp(tol) >= 0 {
		return true
	}
	dy := newFloat().Sub(cam.Y, d.last.Y)
	if dy.Abs(dy).Cmp(tol) >= 0 {
		return true
	}
	ratio, _ := newFloat().Quo(cam.Zoom, d.last.Zoom).Float64()
	drift := 1 - ratio
	if drift < 0 {
		drift = -drift
	}
	return drift >= d.ZoomThreshold
}

// Mark records cam as the last-scheduled state and returns the pan
// delta (last - cam) per axis. The delta signs select the traversal
// order of the scheduling pass; a zero delta means pure zoom.
func (d *Detector) Mark(cam Snapshot) (dx, dy *big.Float) {
	dx = newFloat().Sub(d.last.X, cam.X)
	dy = newFloat().Sub(d.last.Y, cam.Y)
	d.last = cam
	return dx, dy
}
