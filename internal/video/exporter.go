// Package video renders zoom videos offline: a geometric zoom ladder
// toward a target camera, one generation per frame, every tile of
// every frame computed by a bounded worker pool.
package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"

	"github.com/fractal-tiles/explorer/internal/camera"
	"github.com/fractal-tiles/explorer/internal/render"
)

// Options configures one export run.
type Options struct {
	Width, Height int
	Cols, Rows    int
	FPS           int
	DurationS     int
	Iterations    int
	Workers       int

	// CameraX/CameraY are decimal strings; deep-zoom targets need
	// more digits than float64 carries.
	CameraX, CameraY string
	StartZoom        float64
	TargetZoom       float64

	ColorAt render.PointColorer

	OutDir string
	// RawStream additionally writes an in-order zstd-compressed
	// RGB24 stream (frames.rgb.zst) for piping straight into ffmpeg.
	RawStream bool
}

// Exporter renders the frame sequence to disk.
type Exporter struct {
	opts     Options
	mapper   camera.Mapper
	rast     *render.TileRasterizer
	frames   *render.FrameRenderer
	tilePool sync.Pool
}

// pendingFrame is one frame being assembled by the workers.
type pendingFrame struct {
	index     int
	img       *image.RGBA
	remaining atomic.Int32
}

type job struct {
	frame    *pendingFrame
	col, row int
	cam      camera.Snapshot
}

// NewExporter validates options and builds an exporter.
func NewExporter(opts Options) (*Exporter, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.FPS <= 0 || opts.DurationS <= 0 {
		return nil, fmt.Errorf("invalid video timing: fps=%d duration=%ds", opts.FPS, opts.DurationS)
	}
	if opts.StartZoom <= 0 || opts.TargetZoom <= opts.StartZoom {
		return nil, fmt.Errorf("invalid zoom range: %g -> %g", opts.StartZoom, opts.TargetZoom)
	}
	if opts.ColorAt == nil {
		return nil, fmt.Errorf("missing point colorer")
	}
	mapper := camera.NewMapper(opts.Width, opts.Height, opts.Cols, opts.Rows)
	e := &Exporter{
		opts:   opts,
		mapper: mapper,
		rast:   render.NewTileRasterizer(mapper, opts.ColorAt),
		frames: render.NewFrameRenderer(opts.Width, opts.Height),
	}
	e.tilePool.New = func() interface{} {
		return image.NewRGBA(image.Rect(0, 0, mapper.TileW, mapper.TileH))
	}
	return e, nil
}

// Run renders all frames. Frames complete out of order; the writer
// goroutine reassembles them so the PNG sequence and the raw stream
// are emitted in frame order.
func (e *Exporter) Run(ctx context.Context) error {
	opts := e.opts
	frameCount := opts.FPS * opts.DurationS
	tileCount := opts.Cols * opts.Rows

	cam, err := camera.NewFromStrings(opts.CameraX, opts.CameraY, opts.StartZoom)
	if err != nil {
		return err
	}
	zoomStep := new(big.Float).SetPrec(camera.Prec).
		SetFloat64(math.Pow(opts.TargetZoom/opts.StartZoom, 1/float64(frameCount)))

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	var rawEnc *zstd.Encoder
	if opts.RawStream {
		rawFile, err := os.Create(filepath.Join(opts.OutDir, "frames.rgb.zst"))
		if err != nil {
			return fmt.Errorf("failed to create raw stream: %w", err)
		}
		defer rawFile.Close()
		rawEnc, err = zstd.NewWriter(rawFile)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		defer rawEnc.Close()
	}

	// Bound the number of frames held in memory at once.
	inFlight := opts.Workers
	if inFlight > 4 {
		inFlight = 4
	}
	slots := make(chan struct{}, inFlight)
	jobs := make(chan job)
	completed := make(chan *pendingFrame, inFlight)

	var workerWG sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for j := range jobs {
				e.computeTile(j)
				if j.frame.remaining.Add(-1) == 0 {
					completed <- j.frame
				}
			}
		}()
	}

	writerErr := make(chan error, 1)
	go func() {
		writerErr <- e.writeFrames(completed, slots, rawEnc)
	}()

	log.Printf("exporting %d frames (%dx%d, %d tiles, %d workers)",
		frameCount, opts.Width, opts.Height, tileCount, opts.Workers)

scheduling:
	for i := 0; i < frameCount; i++ {
		select {
		case <-ctx.Done():
			break scheduling
		case slots <- struct{}{}:
		}

		pf := &pendingFrame{
			index: i,
			img:   image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		}
		pf.remaining.Store(int32(tileCount))

		snap := cam.Snapshot()
		for row := 0; row < opts.Rows; row++ {
			for col := 0; col < opts.Cols; col++ {
				jobs <- job{frame: pf, col: col, row: row, cam: snap}
			}
		}
		cam.MulZoom(zoomStep)
	}

	close(jobs)
	workerWG.Wait()
	close(completed)

	if err := <-writerErr; err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Exporter) computeTile(j job) {
	buf := e.tilePool.Get().(*image.RGBA)
	e.rast.Rasterize(j.col, j.row, j.cam, e.opts.Iterations, buf)
	dst := image.Rect(
		j.col*e.mapper.TileW, j.row*e.mapper.TileH,
		(j.col+1)*e.mapper.TileW, (j.row+1)*e.mapper.TileH,
	)
	// Tiles cover disjoint frame regions, so no lock is needed here.
	draw.Draw(j.frame.img, dst, buf, image.Point{}, draw.Src)
	e.tilePool.Put(buf)
}

// writeFrames drains completed frames, reorders them, and writes the
// PNG sequence (and the raw stream, if enabled) in frame order. After
// a write error it keeps draining so the workers never block, and
// returns the first error at the end.
func (e *Exporter) writeFrames(completed <-chan *pendingFrame, slots <-chan struct{}, rawEnc *zstd.Encoder) error {
	pending := make(map[int]*pendingFrame)
	next := 0
	var rgb []byte
	var firstErr error

	for pf := range completed {
		pending[pf.index] = pf
		for {
			f, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			<-slots

			if firstErr != nil {
				continue
			}
			if err := e.writeFrame(f, rawEnc, &rgb); err != nil {
				firstErr = err
				continue
			}
			log.Printf("saved frame %d", f.index)
		}
	}
	return firstErr
}

func (e *Exporter) writeFrame(f *pendingFrame, rawEnc *zstd.Encoder, rgb *[]byte) error {
	name := filepath.Join(e.opts.OutDir, fmt.Sprintf("frame%05d.png", f.index))
	data, err := e.frames.EncodePNG(f.img)
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", f.index, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", f.index, err)
	}
	if rawEnc != nil {
		*rgb = appendRGB24((*rgb)[:0], f.img)
		if _, err := rawEnc.Write(*rgb); err != nil {
			return fmt.Errorf("failed to write raw frame %d: %w", f.index, err)
		}
	}
	return nil
}

func appendRGB24(dst []byte, img *image.RGBA) []byte {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			dst = append(dst, img.Pix[off], img.Pix[off+1], img.Pix[off+2])
			off += 4
		}
	}
	return dst
}
