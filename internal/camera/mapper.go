package camera

import "math/big"

// Rect is a screen-space rectangle in pixels. It may extend past the
// screen edges when a cached raster has drifted off-view.
type Rect struct {
	X, Y, W, H float64
}

// WorldRect is a world-space rectangle held in extended precision,
// captured when a tile raster was computed.
type WorldRect struct {
	X1, Y1, X2, Y2 *big.Float
}

// Mapper converts between the tile/pixel grid and world space. It is
// stateless; both directions are exact inverses of each other up to
// the float64 rounding of the screen-space result.
type Mapper struct {
	ScreenW, ScreenH int
	TileW, TileH     int
}

// NewMapper builds a mapper for a screen split into cols x rows tiles.
func NewMapper(screenW, screenH, cols, rows int) Mapper {
	return Mapper{
		ScreenW: screenW,
		ScreenH: screenH,
		TileW:   screenW / cols,
		TileH:   screenH / rows,
	}
}

// WorldPoint maps a pixel offset inside a tile to world space under
// the given camera: world = (screenOffset - halfScreen)/zoom + center.
func (m Mapper) WorldPoint(col, row, px, py int, cam Snapshot) (x, y *big.Float) {
	sx := float64(px+col*m.TileW) - float64(m.ScreenW)/2
	sy := float64(py+row*m.TileH) - float64(m.ScreenH)/2
	x = newFloat().Quo(newFloat().SetFloat64(sx), cam.Zoom)
	x.Add(x, cam.X)
	y = newFloat().Quo(newFloat().SetFloat64(sy), cam.Zoom)
	y.Add(y, cam.Y)
	return x, y
}

// TileWorldRect returns the world-space bounds of a whole tile under
// the given camera.
func (m Mapper) TileWorldRect(col, row int, cam Snapshot) WorldRect {
	x1, y1 := m.WorldPoint(col, row, 0, 0, cam)
	x2, y2 := m.WorldPoint(col, row, m.TileW, m.TileH, cam)
	return WorldRect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// ScreenRect projects a world-space rectangle back onto the screen
// under the live camera: screen = (world - center)*zoom + halfScreen.
// This is what places a raster computed under a past camera correctly
// under the current one.
func (m Mapper) ScreenRect(b WorldRect, cam Snapshot) Rect {
	x1 := m.screenX(b.X1, cam)
	y1 := m.screenY(b.Y1, cam)
	x2 := m.screenX(b.X2, cam)
	y2 := m.screenY(b.Y2, cam)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func (m Mapper) screenX(wx *big.Float, cam Snapshot) float64 {
	d := newFloat().Sub(wx, cam.X)
	d.Mul(d, cam.Zoom)
	v, _ := d.Float64()
	return v + float64(m.ScreenW)/2
}

func (m Mapper) screenY(wy *big.Float, cam Snapshot) float64 {
	d := newFloat().Sub(wy, cam.Y)
	d.Mul(d, cam.Zoom)
	v, _ := d.Float64()
	return v + float64(m.ScreenH)/2
}

// AxisSamples returns the world coordinate of every pixel column and
// row of a tile, computed in extended precision and converted to
// float64 only at the end. Rasterizers iterate these instead of
// calling WorldPoint per pixel.
func (m Mapper) AxisSamples(col, row int, cam Snapshot) (xs, ys []float64) {
	xs = make([]float64, m.TileW)
	ys = make([]float64, m.TileH)
	tmp := newFloat()
	baseX := float64(col*m.TileW) - float64(m.ScreenW)/2
	for px := 0; px < m.TileW; px++ {
		tmp.SetFloat64(baseX + float64(px))
		tmp.Quo(tmp, cam.Zoom)
		tmp.Add(tmp, cam.X)
		xs[px], _ = tmp.Float64()
	}
	baseY := float64(row*m.TileH) - float64(m.ScreenH)/2
	for py := 0; py < m.TileH; py++ {
		tmp.SetFloat64(baseY + float64(py))
		tmp.Quo(tmp, cam.Zoom)
		tmp.Add(tmp, cam.Y)
		ys[py], _ = tmp.Float64()
	}
	return xs, ys
}
