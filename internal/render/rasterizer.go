// Package render produces pixels: per-tile rasterization of the
// active fractal and composition of the tile layers into full frames.
package render

import (
	"image"
	"image/color"

	"github.com/fractal-tiles/explorer/internal/camera"
)

// PointColorer maps one world coordinate to a color under an
// iteration budget. It must be pure and safe for concurrent use.
type PointColorer func(x, y float64, iterations int) color.RGBA

// TileRasterizer samples the world position of every pixel of a tile
// and delegates coloring to the point function. Axis samples are
// precomputed in extended precision; the per-pixel loop is plain
// float64 and lock-free.
type TileRasterizer struct {
	mapper  camera.Mapper
	colorAt PointColorer
}

// NewTileRasterizer creates a rasterizer for the given mapper and
// point-coloring function.
func NewTileRasterizer(mapper camera.Mapper, colorAt PointColorer) *TileRasterizer {
	return &TileRasterizer{mapper: mapper, colorAt: colorAt}
}

// Rasterize fills dst with the tile's pixels under the captured
// camera. dst must be at least TileW x TileH.
func (r *TileRasterizer) Rasterize(col, row int, cam camera.Snapshot, iterations int, dst *image.RGBA) {
	xs, ys := r.mapper.AxisSamples(col, row, cam)
	for py, wy := range ys {
		off := dst.PixOffset(0, py)
		for _, wx := range xs {
			c := r.colorAt(wx, wy, iterations)
			dst.Pix[off] = c.R
			dst.Pix[off+1] = c.G
			dst.Pix[off+2] = c.B
			dst.Pix[off+3] = c.A
			off += 4
		}
	}
}
