package fractal

import (
	"image/color"
	"math"
)

// Palette maps a normalized escape value in [0, 1] to a color by
// linear interpolation between anchor colors. Points that never
// escape stay black regardless of palette.
type Palette struct {
	colors []color.RGBA
}

// At returns the color at position t, clamped to [0, 1].
func (p Palette) At(t float64) color.RGBA {
	if t <= 0 {
		return p.colors[0]
	}
	if t >= 1 {
		return p.colors[len(p.colors)-1]
	}
	idx := t * float64(len(p.colors)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(p.colors) {
		upper = len(p.colors) - 1
	}
	frac := idx - float64(lower)
	c1, c2 := p.colors[lower], p.colors[upper]
	return color.RGBA{
		R: uint8(float64(c1.R) + frac*(float64(c2.R)-float64(c1.R))),
		G: uint8(float64(c1.G) + frac*(float64(c2.G)-float64(c1.G))),
		B: uint8(float64(c1.B) + frac*(float64(c2.B)-float64(c1.B))),
		A: 255,
	}
}

// Palettes lists the named palettes accepted by the tile endpoints.
var Palettes = map[string]Palette{
	"viridis": {colors: []color.RGBA{
		{68, 1, 84, 255},
		{72, 35, 116, 255},
		{64, 67, 135, 255},
		{52, 94, 141, 255},
		{41, 120, 142, 255},
		{32, 144, 140, 255},
		{34, 167, 132, 255},
		{68, 190, 112, 255},
		{121, 209, 81, 255},
		{189, 222, 38, 255},
		{253, 231, 37, 255},
	}},
	"plasma": {colors: []color.RGBA{
		{13, 8, 135, 255},
		{75, 3, 161, 255},
		{125, 3, 168, 255},
		{168, 34, 150, 255},
		{203, 70, 121, 255},
		{229, 107, 93, 255},
		{248, 148, 65, 255},
		{253, 195, 40, 255},
		{240, 249, 33, 255},
	}},
	"inferno": {colors: []color.RGBA{
		{0, 0, 4, 255},
		{40, 11, 84, 255},
		{101, 21, 110, 255},
		{159, 42, 99, 255},
		{212, 72, 66, 255},
		{245, 125, 21, 255},
		{250, 193, 39, 255},
		{252, 255, 164, 255},
	}},
	"magma": {colors: []color.RGBA{
		{0, 0, 4, 255},
		{28, 16, 68, 255},
		{79, 18, 123, 255},
		{129, 37, 129, 255},
		{181, 54, 122, 255},
		{229, 80, 100, 255},
		{251, 135, 97, 255},
		{254, 194, 135, 255},
		{252, 253, 191, 255},
	}},
}

// PalettedColorAt colors a point by running the escape iteration for
// the variant and mapping the normalized iteration count through a
// named palette. Unknown palette names fall back to the variant's
// built-in coloring.
func PalettedColorAt(v Variant, paletteName string, x, y float64, maxIterations int) color.RGBA {
	p, ok := Palettes[paletteName]
	if !ok {
		return ColorAt(v, x, y, maxIterations)
	}
	n, escaped := escapeCount(v, x, y, maxIterations)
	if !escaped {
		return black
	}
	t := math.Sqrt(float64(n) / float64(maxIterations))
	return p.At(t)
}

// escapeCount runs the bare iteration for the variant and reports
// the iteration count and whether the orbit escaped. Lyapunov has no
// escape notion; its red channel stands in for the exponent.
func escapeCount(v Variant, x, y float64, maxIterations int) (int, bool) {
	switch v {
	case Lyapunov:
		c := lyapunovColor(x, y, maxIterations)
		if c == black {
			return maxIterations, false
		}
		return int(float64(c.R) / 255 * float64(maxIterations)), true
	case Julia:
		a, b := x, y
		for n := 0; n < maxIterations; n++ {
			if a*a+b*b > 4 {
				return n, true
			}
			a, b = a*a-b*b+juliaCA, 2*a*b+juliaCB
		}
	case BurningShip:
		var a, b float64
		for n := 0; n < maxIterations; n++ {
			if a*a+b*b > 4 {
				return n, true
			}
			a, b = math.Abs(a*a-b*b+x), math.Abs(2*a*b)+y
		}
	case Tricorn:
		var a, b float64
		for n := 0; n < maxIterations; n++ {
			if a*a+b*b > 4 {
				return n, true
			}
			a, b = a*a-b*b+x, -2*a*b+y
		}
	case Phoenix:
		var a, b, aPrev, bPrev float64
		for n := 0; n < maxIterations; n++ {
			if a*a+b*b > 4 {
				return n, true
			}
			aNext := a*a - b*b + x + phoenixPRe*aPrev - phoenixPIm*bPrev
			bNext := 2*a*b + y + phoenixPRe*bPrev + phoenixPIm*aPrev
			aPrev, bPrev = a, b
			a, b = aNext, bNext
		}
	default:
		a, b := x, y
		for n := 0; n < maxIterations; n++ {
			if math.Abs(a+b) > 16 {
				return n, true
			}
			a, b = a*a-b*b+x, 2*a*b+y
		}
	}
	return maxIterations, false
}
