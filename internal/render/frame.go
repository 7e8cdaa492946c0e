package render

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/fractal-tiles/explorer/internal/tile"
)

// FrameRenderer composes tile layers into full frames and encodes
// them as PNG.
type FrameRenderer struct {
	w, h    int
	bufPool sync.Pool
}

// NewFrameRenderer creates a renderer for w x h frames.
func NewFrameRenderer(w, h int) *FrameRenderer {
	return &FrameRenderer{
		w: w,
		h: h,
		bufPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 256*1024))
			},
		},
	}
}

// Compose draws the layer list onto a black frame, oldest layers
// first so the freshest raster occludes stale ones. Rasters whose
// rectangle no longer matches their pixel size (the camera moved or
// zoomed since they were computed) are stretched with a
// nearest-neighbour blit. With showGrid each layer's rectangle is
// outlined, color-coded by age.
func (f *FrameRenderer) Compose(layers []tile.Layer, showGrid bool) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}

	for _, l := range layers {
		dst := image.Rect(
			int(math.Round(l.Rect.X)),
			int(math.Round(l.Rect.Y)),
			int(math.Round(l.Rect.X+l.Rect.W)),
			int(math.Round(l.Rect.Y+l.Rect.H)),
		)
		if dst.Empty() || !dst.Overlaps(frame.Bounds()) {
			continue
		}
		xdraw.NearestNeighbor.Scale(frame, dst, l.Img, l.Img.Bounds(), xdraw.Over, nil)
	}

	if showGrid {
		dc := gg.NewContextForRGBA(frame)
		dc.SetLineWidth(1)
		for _, l := range layers {
			switch l.Age {
			case 0:
				dc.SetRGB(0, 0, 1)
			case 1:
				dc.SetRGB(1, 0, 0)
			default:
				dc.SetRGB(0, 1, 0)
			}
			dc.DrawRectangle(l.Rect.X, l.Rect.Y, l.Rect.W, l.Rect.H)
			dc.Stroke()
		}
	}

	return frame
}

// EncodePNG encodes an image with the fast encoder, reusing pooled
// buffers.
func (f *FrameRenderer) EncodePNG(img image.Image) ([]byte, error) {
	buf := f.bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		f.bufPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, err
	}

	// Copy out; the buffer is reused.
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
