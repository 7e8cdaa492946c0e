// Package fractal provides the per-point escape-time coloring
// functions for each supported set. Every function is pure: a world
// coordinate and an iteration budget map deterministically to a color.
package fractal

import (
	"fmt"
	"image/color"
	"math"
)

// Variant identifies one fractal family.
type Variant int

const (
	Mandelbrot Variant = iota
	Julia
	BurningShip
	Tricorn
	Phoenix
	Lyapunov
)

var variantNames = map[Variant]string{
	Mandelbrot:  "mandelbrot",
	Julia:       "julia",
	BurningShip: "burning-ship",
	Tricorn:     "tricorn",
	Phoenix:     "phoenix",
	Lyapunov:    "lyapunov",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "unknown"
}

// ParseVariant resolves a config string to a Variant.
func ParseVariant(name string) (Variant, error) {
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown fractal variant: %q", name)
}

var black = color.RGBA{A: 255}

// ColorAt returns the color of one world-space point for the given
// variant. Coordinates are float64: past zoom ~1e15 adjacent pixels
// collapse to the same value and the image degrades silently, which
// is the documented precision limit of the explorer.
func ColorAt(v Variant, x, y float64, maxIterations int) color.RGBA {
	switch v {
	case Julia:
		return juliaColor(x, y, maxIterations)
	case BurningShip:
		return burningShipColor(x, y, maxIterations)
	case Tricorn:
		return tricornColor(x, y, maxIterations)
	case Phoenix:
		return phoenixColor(x, y, maxIterations)
	case Lyapunov:
		return lyapunovColor(x, y, maxIterations)
	default:
		return mandelbrotColor(x, y, maxIterations)
	}
}

var (
	piSqrtPi = math.Pi * math.Sqrt(math.Pi)
	piSqrt2  = math.Pi * math.Sqrt2
)

func mandelbrotColor(a, b float64, maxIterations int) color.RGBA {
	ca, cb := a, b
	n := 0
	for ; math.Abs(a+b) <= 16 && n < maxIterations; n++ {
		a, b = a*a-b*b+ca, 2*a*b+cb
	}
	if n >= maxIterations {
		return black
	}
	fn := float64(n)
	return color.RGBA{
		R: uint8(int(fn*math.Pi) % 255),
		G: uint8(int(fn*piSqrtPi) % 255),
		B: uint8(int(fn*piSqrt2) % 255),
		A: 255,
	}
}

// Julia constant c = -0.7 + 0.27015i.
const (
	juliaCA = -0.7
	juliaCB = 0.27015
)

func juliaColor(a, b float64, maxIterations int) color.RGBA {
	n := 0
	for ; n < maxIterations; n++ {
		if a*a+b*b > 4 {
			break
		}
		a, b = a*a-b*b+juliaCA, 2*a*b+juliaCB
	}
	if n == maxIterations {
		return black
	}
	zn := math.Sqrt(a*a + b*b)
	smooth := float64(n) + 1 - math.Log2(math.Log2(zn))
	hue := math.Mod(0.95+20*smooth/float64(maxIterations), 1)
	if hue < 0 {
		hue += 1
	}
	return hsvToRGB(hue, 0.8, 1)
}

func burningShipColor(a, b float64, maxIterations int) color.RGBA {
	var x, y float64
	n := 0
	for x*x+y*y <= 4 && n < maxIterations {
		x, y = math.Abs(x*x-y*y+a), math.Abs(2*x*y)+b
		n++
	}
	if n == maxIterations {
		return black
	}
	t := float64(n) / float64(maxIterations)
	return color.RGBA{
		R: uint8(9 * (1 - t) * t * t * t * 255),
		G: uint8(15 * (1 - t) * (1 - t) * t * t * 255),
		B: uint8(8.5 * (1 - t) * (1 - t) * (1 - t) * t * 255),
		A: 255,
	}
}

func tricornColor(a, b float64, maxIterations int) color.RGBA {
	var x, y float64
	n := 0
	for x*x+y*y <= 4 && n < maxIterations {
		x, y = x*x-y*y+a, -2*x*y+b
		n++
	}
	if n == maxIterations {
		return black
	}
	t := float64(n) / float64(maxIterations)
	return color.RGBA{
		R: uint8(255 * t),
		G: uint8(255 * (1 - t)),
		B: uint8(128 * t),
		A: 255,
	}
}

// Phoenix constant p = -0.5.
const (
	phoenixPRe = -0.5
	phoenixPIm = 0.0
)

func phoenixColor(a, b float64, maxIterations int) color.RGBA {
	var x, y, xPrev, yPrev float64
	n := 0
	for x*x+y*y <= 4 && n < maxIterations {
		x2 := x*x - y*y
		y2 := 2 * x * y
		xNext := x2 + a + (phoenixPRe*xPrev - phoenixPIm*yPrev)
		yNext := y2 + b + (phoenixPRe*yPrev + phoenixPIm*xPrev)
		xPrev, yPrev = x, y
		x, y = xNext, yNext
		n++
	}
	if n == maxIterations {
		return black
	}
	zn := math.Sqrt(x*x + y*y)
	smooth := float64(n) + 1 - math.Log(math.Log(zn))/math.Ln2
	t := smooth / float64(maxIterations)
	return color.RGBA{
		R: uint8(9 * (1 - t) * t * t * t * 255),
		G: uint8(15 * (1 - t) * (1 - t) * t * t * 255),
		B: uint8(8.5 * (1 - t) * (1 - t) * (1 - t) * t * 255),
		A: 255,
	}
}

// Lyapunov forcing sequence; A picks the x axis parameter, B the y.
const lyapunovPattern = "AABAB"

func lyapunovColor(a, b float64, maxIterations int) color.RGBA {
	x := 0.5
	lyap := 0.0
	for n := 0; n < maxIterations; n++ {
		r := a
		if lyapunovPattern[n%len(lyapunovPattern)] == 'B' {
			r = b
		}
		x = r * x * (1 - x)
		if x <= 0 || x >= 1 {
			return black
		}
		if deriv := math.Abs(r * (1 - 2*x)); deriv > 0 {
			lyap += math.Log(deriv)
		}
	}
	lyap /= float64(maxIterations)

	// Exponent range ~[-2,2] normalized to [0,1].
	t := (lyap + 2) / 4
	t = math.Min(math.Max(t, 0), 1)
	return color.RGBA{
		R: uint8(255 * t),
		G: uint8(200 * math.Sqrt(t)),
		B: uint8(30 * (1 - t)),
		A: 255,
	}
}

func hsvToRGB(h, s, v float64) color.RGBA {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
