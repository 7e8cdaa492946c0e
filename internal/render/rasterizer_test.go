package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/fractal-tiles/explorer/internal/camera"
)

func TestRasterizePassesWorldCoordinates(t *testing.T) {
	m := camera.NewMapper(8, 8, 2, 2)
	cam := camera.New(0, 0, 2).Snapshot()

	var minX, maxX float64
	first := true
	r := NewTileRasterizer(m, func(x, y float64, iterations int) color.RGBA {
		if first || x < minX {
			minX = x
		}
		if first || x > maxX {
			maxX = x
		}
		first = false
		return color.RGBA{R: 1, A: 255}
	})

	dst := image.NewRGBA(image.Rect(0, 0, m.TileW, m.TileH))
	r.Rasterize(0, 0, cam, 10, dst)

	// Tile (0,0) covers screen x in [0,4); with zoom 2 and center 0
	// that is world x in [-2, -0.5].
	if minX != -2 || maxX != -0.5 {
		t.Fatalf("world x range: got [%g, %g], want [-2, -0.5]", minX, maxX)
	}
}

func TestRasterizeFillsEveryPixel(t *testing.T) {
	m := camera.NewMapper(16, 16, 2, 2)
	cam := camera.New(0, 0, 4).Snapshot()

	r := NewTileRasterizer(m, func(x, y float64, iterations int) color.RGBA {
		return color.RGBA{R: 7, G: 8, B: 9, A: 255}
	})
	dst := image.NewRGBA(image.Rect(0, 0, m.TileW, m.TileH))
	r.Rasterize(1, 1, cam, 10, dst)

	for i := 0; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] != 7 || dst.Pix[i+1] != 8 || dst.Pix[i+2] != 9 || dst.Pix[i+3] != 255 {
			t.Fatalf("pixel %d not written: %v", i/4, dst.Pix[i:i+4])
		}
	}
}

func TestRasterizeForwardsIterationBudget(t *testing.T) {
	m := camera.NewMapper(4, 4, 1, 1)
	cam := camera.New(0, 0, 1).Snapshot()

	got := 0
	r := NewTileRasterizer(m, func(x, y float64, iterations int) color.RGBA {
		got = iterations
		return color.RGBA{A: 255}
	})
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	r.Rasterize(0, 0, cam, 1234, dst)
	if got != 1234 {
		t.Fatalf("iteration budget: got %d, want 1234", got)
	}
}
