package fractal

import "testing"

func TestPaletteAtEndpoints(t *testing.T) {
	p := Palettes["viridis"]
	if got := p.At(-1); got != p.colors[0] {
		t.Fatalf("t<0 should clamp to first anchor, got %v", got)
	}
	if got := p.At(2); got != p.colors[len(p.colors)-1] {
		t.Fatalf("t>1 should clamp to last anchor, got %v", got)
	}
}

func TestPaletteAtInterpolates(t *testing.T) {
	p := Palettes["inferno"]
	mid := p.At(0.5)
	if mid == p.colors[0] || mid == p.colors[len(p.colors)-1] {
		t.Fatalf("midpoint should be an interior color, got %v", mid)
	}
	if mid.A != 255 {
		t.Fatalf("palette colors must be opaque, got %v", mid)
	}
}

func TestPalettedColorAt(t *testing.T) {
	// Non-escaping points stay black regardless of palette.
	if got := PalettedColorAt(Mandelbrot, "viridis", 0, 0, 300); got != black {
		t.Fatalf("interior point should stay black, got %v", got)
	}

	// Escaping points take a palette color.
	got := PalettedColorAt(Mandelbrot, "viridis", 0.5, 0.5, 300)
	if got == black {
		t.Fatal("exterior point rendered black")
	}

	// Unknown palettes fall back to the built-in coloring.
	fallback := PalettedColorAt(Mandelbrot, "no-such-palette", 0.5, 0.5, 300)
	builtin := ColorAt(Mandelbrot, 0.5, 0.5, 300)
	if fallback != builtin {
		t.Fatalf("fallback %v, want built-in %v", fallback, builtin)
	}
}

func TestPalettedColorAtAllVariants(t *testing.T) {
	for v := Mandelbrot; v <= Lyapunov; v++ {
		c := PalettedColorAt(v, "magma", 0.35, 0.4, 200)
		if c.A != 255 {
			t.Errorf("%v: non-opaque pixel %v", v, c)
		}
	}
}

func TestEscapeCountMatchesColoring(t *testing.T) {
	// A point the plain coloring treats as escaped must also escape in
	// the bare iteration, and vice versa.
	points := []struct{ x, y float64 }{
		{0, 0}, {2, 2}, {0.5, 0.5}, {-1, 0}, {0.25, 0},
	}
	for _, pt := range points {
		_, escaped := escapeCount(Mandelbrot, pt.x, pt.y, 300)
		plainBlack := ColorAt(Mandelbrot, pt.x, pt.y, 300) == black
		if escaped == plainBlack {
			t.Errorf("(%g,%g): escapeCount=%v but plain coloring black=%v",
				pt.x, pt.y, escaped, plainBlack)
		}
	}
}
