// Package server exposes the explorer over HTTP: the live frame, the
// camera input endpoints, a status HUD, and an XYZ tile projection of
// the active fractal for slippy-map clients.
package server

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fractal-tiles/explorer/internal/cache"
	"github.com/fractal-tiles/explorer/internal/fractal"
	"github.com/fractal-tiles/explorer/internal/render"
)

// tileWorldSpan is the world-space window served by the XYZ pyramid:
// [-2, 2] on both axes covers every supported set.
const (
	tileWorldMin  = -2.0
	tileWorldSpan = 4.0
)

// TileServerConfig contains XYZ tile serving configuration.
type TileServerConfig struct {
	Variant    fractal.Variant
	Iterations int
	TileSize   int
	Cache      *cache.Manager
}

// TileServer renders fractal tiles for slippy-map coordinates on
// demand, memoizing encoded tiles in the cache.
type TileServer struct {
	variant    fractal.Variant
	iterations int
	tileSize   int
	cache      *cache.Manager
	frames     *render.FrameRenderer
}

// NewTileServer creates a tile server.
func NewTileServer(cfg TileServerConfig) *TileServer {
	tileSize := cfg.TileSize
	if tileSize <= 0 {
		tileSize = 256
	}
	return &TileServer{
		variant:    cfg.Variant,
		iterations: cfg.Iterations,
		tileSize:   tileSize,
		cache:      cfg.Cache,
		frames:     render.NewFrameRenderer(tileSize, tileSize),
	}
}

// GetTile returns the encoded PNG for one XYZ tile. iterations <= 0
// falls back to the configured budget; palette may be empty for the
// variant's built-in coloring.
func (s *TileServer) GetTile(z, x, y, iterations int, palette string) ([]byte, error) {
	if z < 0 || z > 48 {
		return nil, fmt.Errorf("invalid zoom level: %d", z)
	}
	tilesPerAxis := 1 << z
	if x < 0 || y < 0 || x >= tilesPerAxis || y >= tilesPerAxis {
		return nil, fmt.Errorf("tile out of range: %d/%d (tiles_per_axis=%d)", x, y, tilesPerAxis)
	}
	if iterations <= 0 {
		iterations = s.iterations
	}
	if palette != "" {
		if _, ok := fractal.Palettes[palette]; !ok {
			return nil, fmt.Errorf("unknown palette: %q", palette)
		}
	}

	key := cache.TileKey(s.variant.String(), z, x, y, iterations, palette)
	if data, ok := s.cache.GetTile(key); ok {
		return data, nil
	}

	img := s.renderTile(z, x, y, iterations, palette)
	data, err := s.frames.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile: %w", err)
	}

	s.cache.SetTile(key, data)
	return data, nil
}

func (s *TileServer) renderTile(z, x, y, iterations int, palette string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.tileSize, s.tileSize))
	n := float64(int(1) << z)
	step := tileWorldSpan / n / float64(s.tileSize)
	baseX := tileWorldMin + tileWorldSpan*float64(x)/n
	baseY := tileWorldMin + tileWorldSpan*float64(y)/n

	for py := 0; py < s.tileSize; py++ {
		wy := baseY + (float64(py)+0.5)*step
		off := img.PixOffset(0, py)
		for px := 0; px < s.tileSize; px++ {
			wx := baseX + (float64(px)+0.5)*step
			var c color.RGBA
			if palette != "" {
				c = fractal.PalettedColorAt(s.variant, palette, wx, wy, iterations)
			} else {
				c = fractal.ColorAt(s.variant, wx, wy, iterations)
			}
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
			off += 4
		}
	}
	return img
}
