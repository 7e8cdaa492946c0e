package fractal

import (
	"testing"
)

func TestParseVariant(t *testing.T) {
	for _, name := range []string{"mandelbrot", "julia", "burning-ship", "tricorn", "phoenix", "lyapunov"} {
		v, err := ParseVariant(name)
		if err != nil {
			t.Fatalf("ParseVariant(%q): %v", name, err)
		}
		if v.String() != name {
			t.Fatalf("round trip: %q -> %v -> %q", name, v, v.String())
		}
	}

	if _, err := ParseVariant("menger-sponge"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestColorAtDeterministic(t *testing.T) {
	for v := Mandelbrot; v <= Lyapunov; v++ {
		a := ColorAt(v, 0.3, -0.42, 200)
		b := ColorAt(v, 0.3, -0.42, 200)
		if a != b {
			t.Fatalf("%v: same input produced %v and %v", v, a, b)
		}
	}
}

func TestMandelbrotKnownPoints(t *testing.T) {
	// The origin never escapes.
	if got := ColorAt(Mandelbrot, 0, 0, 500); got != black {
		t.Fatalf("origin should be in the set, got %v", got)
	}
	// Far outside the set escapes in a handful of iterations.
	if got := ColorAt(Mandelbrot, 2, 2, 500); got == black {
		t.Fatal("(2,2) should escape")
	}
	// The iteration budget changes the exterior coloring band.
	lo := ColorAt(Mandelbrot, 0.5, 0.5, 20)
	if lo == black {
		t.Fatal("(0.5,0.5) should escape with a small budget")
	}
}

func TestEscapedPointsAreColored(t *testing.T) {
	for v := Mandelbrot; v <= Phoenix; v++ {
		if got := ColorAt(v, 2, 2, 200); got == black {
			t.Errorf("%v: far-exterior point rendered black", v)
		}
		if got := ColorAt(v, 2, 2, 200); got.A != 255 {
			t.Errorf("%v: non-opaque pixel %v", v, got)
		}
	}
}

func TestBurningShipInterior(t *testing.T) {
	if got := ColorAt(BurningShip, 0, 0, 500); got != black {
		t.Fatalf("burning ship origin should not escape, got %v", got)
	}
}

func TestTricornInterior(t *testing.T) {
	if got := ColorAt(Tricorn, 0, 0, 500); got != black {
		t.Fatalf("tricorn origin should not escape, got %v", got)
	}
}

func TestLyapunovBounds(t *testing.T) {
	// Chaotic region of the standard parameter square.
	c := ColorAt(Lyapunov, 3.9, 3.9, 300)
	if c.A != 255 {
		t.Fatalf("non-opaque lyapunov pixel: %v", c)
	}
	// Divergent orbit (x leaves (0,1)) is black.
	if got := ColorAt(Lyapunov, 4.5, 4.5, 300); got != black {
		t.Fatalf("divergent orbit should be black, got %v", got)
	}
}

func TestHSVToRGB(t *testing.T) {
	if got := hsvToRGB(0, 1, 1); got.R != 255 || got.G != 0 || got.B != 0 {
		t.Fatalf("pure red: got %v", got)
	}
	if got := hsvToRGB(0, 0, 0); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Fatalf("value 0 should be black, got %v", got)
	}
}
