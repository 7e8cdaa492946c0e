// Package engine runs the explorer's control loop: it applies input,
// detects view drift, schedules tile passes, drives the dispatcher,
// promotes finished rasters, and keeps the latest composed frame
// available for the render backend.
package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fractal-tiles/explorer/internal/cache"
	"github.com/fractal-tiles/explorer/internal/camera"
	"github.com/fractal-tiles/explorer/internal/config"
	"github.com/fractal-tiles/explorer/internal/fractal"
	"github.com/fractal-tiles/explorer/internal/render"
	"github.com/fractal-tiles/explorer/internal/scheduler"
	"github.com/fractal-tiles/explorer/internal/tile"
)

// Command is one unit of input from the outside (HTTP handler or
// test). Zero-valued fields are no-ops.
type Command struct {
	// PanX/PanY move the camera by input units (sign is direction).
	PanX, PanY float64
	// ZoomSteps scales the zoom; positive zooms in.
	ZoomSteps float64
	// SetIterations replaces the iteration budget when positive.
	SetIterations int
	// SetVariant switches the fractal set when non-empty.
	SetVariant string
	// Reset returns to the home view.
	Reset bool
	// Rerender forces a scheduling pass without moving the camera.
	Rerender bool
	// EchoCamera logs the camera state for copy-paste reuse.
	EchoCamera bool
}

// Status is a point-in-time view of the engine for the HUD endpoint.
type Status struct {
	Generation int    `json:"generation"`
	QueueLen   int    `json:"queue_len"`
	Running    int    `json:"running_workers"`
	Promotions uint64 `json:"promotions"`
	Tiles      int    `json:"tiles"`
	Iterations int    `json:"iterations"`
	Variant    string `json:"variant"`
	TargetFPS  int    `json:"target_fps"`
	CameraX    string `json:"camera_x"`
	CameraY    string `json:"camera_y"`
	CameraZoom string `json:"camera_zoom"`
}

// Engine owns all scheduling state. The queue, detector, and camera
// are touched only by the Run loop; input arrives through a command
// channel and frames leave through FramePNG.
type Engine struct {
	cfg *config.Config

	cam    *camera.Camera
	mapper camera.Mapper
	det    *camera.Detector

	queue *scheduler.Queue
	disp  *scheduler.Dispatcher
	store *tile.Store
	comp  *tile.Compositor

	frames *render.FrameRenderer
	// rast is swapped on variant changes while workers hold it.
	rast   atomic.Pointer[render.TileRasterizer]
	caches *cache.Manager

	cmds chan Command

	variant    fractal.Variant
	iterations int
	generation int
	promotions atomic.Uint64

	mu          sync.RWMutex
	latestFrame []byte
	status      Status
}

// New builds an engine from configuration. The dispatcher is not
// started until Run.
func New(cfg *config.Config, caches *cache.Manager) (*Engine, error) {
	variant, err := fractal.ParseVariant(cfg.Fractal.Variant)
	if err != nil {
		return nil, err
	}

	cam, err := camera.NewFromStrings(cfg.Camera.X, cfg.Camera.Y, cfg.Camera.Zoom)
	if err != nil {
		return nil, err
	}

	mapper := camera.NewMapper(cfg.Screen.Width, cfg.Screen.Height, cfg.Grid.Cols, cfg.Grid.Rows)
	store := tile.NewStore(cfg.Grid.Cols, cfg.Grid.Rows, mapper.TileW, mapper.TileH)

	e := &Engine{
		cfg:        cfg,
		cam:        cam,
		mapper:     mapper,
		det:        camera.NewDetector(cam.Snapshot(), cfg.Scheduler.PositionThreshold, cfg.Scheduler.ZoomThreshold),
		queue:      scheduler.NewQueue(*cfg.Scheduler.Dedup),
		store:      store,
		comp:       tile.NewCompositor(store, mapper, *cfg.Scheduler.TemporalBuffering),
		frames:     render.NewFrameRenderer(cfg.Screen.Width, cfg.Screen.Height),
		caches:     caches,
		cmds:       make(chan Command, 16),
		variant:    variant,
		iterations: cfg.Fractal.Iterations,
	}
	e.rast.Store(render.NewTileRasterizer(mapper, e.pointColorer()))
	e.disp = scheduler.NewDispatcher(store, e.rasterizeRequest, cfg.Scheduler.MaxWorkers)
	return e, nil
}

func (e *Engine) pointColorer() render.PointColorer {
	variant := e.variant
	palette := e.cfg.Fractal.Palette
	if palette == "" {
		return func(x, y float64, iterations int) color.RGBA {
			return fractal.ColorAt(variant, x, y, iterations)
		}
	}
	return func(x, y float64, iterations int) color.RGBA {
		return fractal.PalettedColorAt(variant, palette, x, y, iterations)
	}
}

func (e *Engine) rasterizeRequest(req scheduler.Request, dst *image.RGBA) {
	col := req.Tile % e.store.Cols
	row := req.Tile / e.store.Cols
	e.rast.Load().Rasterize(col, row, req.Cam, req.Iterations, dst)
}

// Apply submits a command to the control loop. Input is best-effort:
// commands are dropped if the loop is saturated.
func (e *Engine) Apply(cmd Command) {
	select {
	case e.cmds <- cmd:
	default:
	}
}

// Run executes the control loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.disp.Start()
	defer e.disp.Stop()

	// First render: pure-zoom pass, spiral from the center.
	e.schedulePass()
	e.Step()

	interval := time.Second / time.Duration(e.cfg.Scheduler.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step runs one frame of the control loop: apply pending input,
// re-schedule if the view drifted, admit work, promote finished
// rasters, and recompose the output frame.
func (e *Engine) Step() {
	explicit := e.drainCommands()

	snap := e.cam.Snapshot()
	if explicit || e.det.Changed(snap) {
		e.schedulePass()
	}

	e.disp.Drive(e.queue)

	if n := e.comp.Promote(); n > 0 {
		e.promotions.Add(uint64(n))
	}

	e.compose(e.cam.Snapshot())
}

func (e *Engine) drainCommands() bool {
	explicit := false
	for {
		select {
		case cmd := <-e.cmds:
			if e.applyCommand(cmd) {
				explicit = true
			}
		default:
			return explicit
		}
	}
}

// applyCommand mutates the camera/settings and reports whether the
// command forces a scheduling pass regardless of drift thresholds.
func (e *Engine) applyCommand(cmd Command) bool {
	fps := e.cfg.Scheduler.TargetFPS
	explicit := false

	if cmd.PanX != 0 || cmd.PanY != 0 {
		e.cam.Pan(cmd.PanX, cmd.PanY, e.cfg.Camera.PanSpeed, fps)
	}
	if cmd.ZoomSteps != 0 {
		e.cam.ZoomBy(cmd.ZoomSteps, e.cfg.Camera.ZoomSpeed, fps)
	}
	if cmd.SetIterations > 0 && cmd.SetIterations != e.iterations {
		e.iterations = cmd.SetIterations
		explicit = true
	}
	if cmd.SetVariant != "" {
		if v, err := fractal.ParseVariant(cmd.SetVariant); err != nil {
			log.Printf("ignoring variant switch: %v", err)
		} else if v != e.variant {
			e.variant = v
			e.rast.Store(render.NewTileRasterizer(e.mapper, e.pointColorer()))
			explicit = true
		}
	}
	if cmd.Reset {
		e.cam.Set(0, 0, float64(e.cfg.Screen.Width)/3)
		explicit = true
	}
	if cmd.Rerender {
		explicit = true
	}
	if cmd.EchoCamera {
		x, y, zoom := e.cam.Snapshot().Echo()
		log.Printf("camera x=%s y=%s zoom=%s", x, y, zoom)
	}
	return explicit
}

// schedulePass bumps the generation and enqueues one request per
// tile, ordered by the traversal picked from the pan delta.
func (e *Engine) schedulePass() {
	snap := e.cam.Snapshot()
	dx, dy := e.det.Mark(snap)
	e.generation++

	order := scheduler.PassOrder(e.store.Cols, e.store.Rows, dx, dy)
	for _, idx := range order {
		e.queue.Enqueue(scheduler.Request{
			Tile:       idx,
			Cam:        snap,
			Generation: e.generation,
			Iterations: e.iterations,
		})
	}
}

// compose renders the layer stack under the live camera and caches
// the encoded result; an unchanged view reuses the cached encoding.
func (e *Engine) compose(live camera.Snapshot) {
	x, y, zoom := live.Echo()
	key := cache.FrameKey(e.generation, e.promotions.Load(), x, y, zoom)

	var data []byte
	if cached, ok := e.caches.GetFrame(key); ok {
		data = cached
	} else {
		img := e.frames.Compose(e.comp.Layers(live), e.cfg.Scheduler.ShowGrid)
		encoded, err := e.frames.EncodePNG(img)
		if err != nil {
			log.Printf("frame encode failed: %v", err)
			return
		}
		e.caches.SetFrame(key, encoded)
		data = encoded
	}

	e.mu.Lock()
	e.latestFrame = data
	e.status = Status{
		Generation: e.generation,
		QueueLen:   e.queue.Len(),
		Running:    e.disp.Running(),
		Promotions: e.promotions.Load(),
		Tiles:      e.store.Len(),
		Iterations: e.iterations,
		Variant:    e.variant.String(),
		TargetFPS:  e.cfg.Scheduler.TargetFPS,
		CameraX:    x,
		CameraY:    y,
		CameraZoom: zoom,
	}
	e.mu.Unlock()
}

// FramePNG returns the most recently composed frame.
func (e *Engine) FramePNG() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.latestFrame == nil {
		return nil, fmt.Errorf("no frame composed yet")
	}
	return e.latestFrame, nil
}

// Status returns the current HUD snapshot.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}
