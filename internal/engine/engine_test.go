package engine

import (
	"bytes"
	"context"
	"image/png"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/fractal-tiles/explorer/internal/cache"
	"github.com/fractal-tiles/explorer/internal/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	caches, err := cache.NewManager(cache.Config{
		TileCacheSizeMB: 8,
		TileTTL:         time.Minute,
		FrameCacheSize:  8,
	})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(func() { caches.Close() })

	cfg := config.DefaultConfig()
	cfg.Screen.Width = 160
	cfg.Screen.Height = 90
	cfg.Fractal.Iterations = 50
	cfg.Scheduler.MaxWorkers = 2
	cfg.Scheduler.TargetFPS = 120

	eng, err := New(cfg, caches)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func TestStepSchedulesAndComposes(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.FramePNG(); err == nil {
		t.Fatal("expected no frame before the first step")
	}

	eng.Apply(Command{Rerender: true})
	eng.Step()

	st := eng.Status()
	if st.Generation != 1 {
		t.Fatalf("generation after first pass: got %d, want 1", st.Generation)
	}

	data, err := eng.FramePNG()
	if err != nil {
		t.Fatalf("FramePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("frame decode: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 90 {
		t.Fatalf("frame size: got %v", img.Bounds())
	}
}

func TestRunRendersAllTiles(t *testing.T) {
	eng := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		st := eng.Status()
		if st.Promotions >= uint64(st.Tiles) && st.QueueLen == 0 {
			cancel()
			<-done
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("initial pass never completed: %+v", eng.Status())
}

func TestVariantSwitch(t *testing.T) {
	eng := newTestEngine(t)

	eng.Apply(Command{SetVariant: "julia"})
	eng.Step()
	if got := eng.Status().Variant; got != "julia" {
		t.Fatalf("variant: got %q, want julia", got)
	}

	// An unknown variant is logged and ignored.
	eng.Apply(Command{SetVariant: "koch-flake"})
	eng.Step()
	if got := eng.Status().Variant; got != "julia" {
		t.Fatalf("unknown variant changed state to %q", got)
	}
}

func TestVariantSwitchForcesPass(t *testing.T) {
	eng := newTestEngine(t)
	eng.Apply(Command{Rerender: true})
	eng.Step()
	before := eng.Status().Generation

	eng.Apply(Command{SetVariant: "tricorn"})
	eng.Step()
	if got := eng.Status().Generation; got != before+1 {
		t.Fatalf("generation: got %d, want %d", got, before+1)
	}
}

func TestIterationChangeForcesPass(t *testing.T) {
	eng := newTestEngine(t)
	eng.Apply(Command{Rerender: true})
	eng.Step()
	before := eng.Status()

	eng.Apply(Command{SetIterations: 75})
	eng.Step()
	after := eng.Status()
	if after.Iterations != 75 {
		t.Fatalf("iterations: got %d, want 75", after.Iterations)
	}
	if after.Generation != before.Generation+1 {
		t.Fatalf("generation: got %d, want %d", after.Generation, before.Generation+1)
	}

	// Setting the same value again is a no-op.
	eng.Apply(Command{SetIterations: 75})
	eng.Step()
	if got := eng.Status().Generation; got != after.Generation {
		t.Fatalf("no-op iteration change bumped generation to %d", got)
	}
}

func TestPanMovesCamera(t *testing.T) {
	eng := newTestEngine(t)
	eng.Apply(Command{Rerender: true})
	eng.Step()
	before := eng.Status().CameraX

	eng.Apply(Command{PanX: 50})
	eng.Step()
	if got := eng.Status().CameraX; got == before {
		t.Fatal("pan left camera x unchanged")
	}
}

func TestResetReturnsHome(t *testing.T) {
	eng := newTestEngine(t)
	eng.Apply(Command{PanX: 100, ZoomSteps: 5})
	eng.Step()

	eng.Apply(Command{Reset: true})
	eng.Step()
	st := eng.Status()
	if !strings.HasPrefix(st.CameraX, "0.0000") {
		t.Fatalf("camera x after reset: got %q", st.CameraX)
	}
	// Home zoom is a third of the frame width.
	if !strings.HasPrefix(st.CameraZoom, "53.33") {
		t.Fatalf("camera zoom after reset: got %q", st.CameraZoom)
	}
}

// Hostile zoom input must never zero the zoom: a later scheduling
// pass would have workers divide by it.
func TestExtremeZoomOutStaysRenderable(t *testing.T) {
	eng := newTestEngine(t)

	// At zoom speed 1 and 120 fps, -120 steps would cancel the zoom
	// outright without clamping.
	eng.Apply(Command{ZoomSteps: -120})
	eng.Apply(Command{Rerender: true})
	eng.Step()

	st := eng.Status()
	zoom, ok := new(big.Float).SetString(st.CameraZoom)
	if !ok {
		t.Fatalf("camera zoom does not parse: %q", st.CameraZoom)
	}
	if zoom.Sign() <= 0 {
		t.Fatalf("zoom after extreme zoom-out: got %q, want > 0", st.CameraZoom)
	}
	if _, err := eng.FramePNG(); err != nil {
		t.Fatalf("no frame after extreme zoom-out: %v", err)
	}
}

func TestSmallCameraDriftDoesNotReschedule(t *testing.T) {
	eng := newTestEngine(t)
	eng.Apply(Command{Rerender: true})
	eng.Step()
	before := eng.Status().Generation

	// A tiny pan stays under the detector threshold.
	eng.Apply(Command{PanX: 0.001})
	eng.Step()
	if got := eng.Status().Generation; got != before {
		t.Fatalf("sub-threshold drift bumped generation %d -> %d", before, got)
	}
}
