package cli

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fractal-tiles/explorer/internal/camera"
	"github.com/fractal-tiles/explorer/internal/config"
	"github.com/fractal-tiles/explorer/internal/fractal"
	"github.com/fractal-tiles/explorer/internal/render"
)

type snapshotOptions struct {
	out        string
	x, y       string
	zoom       float64
	iterations int
}

// NewSnapshotCommand creates the single-frame render command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:          "snapshot",
		Short:        "Render one frame of the configured view to a PNG file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "snapshot.png", "output file")
	cmd.Flags().StringVar(&opts.x, "x", "", "camera x (default from config)")
	cmd.Flags().StringVar(&opts.y, "y", "", "camera y (default from config)")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 0, "camera zoom (default from config)")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "iteration budget (default from config)")

	return cmd
}

func runSnapshot(rootOpts *RootOptions, opts *snapshotOptions) error {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	variant, err := fractal.ParseVariant(cfg.Fractal.Variant)
	if err != nil {
		return err
	}

	x, y, zoom := cfg.Camera.X, cfg.Camera.Y, cfg.Camera.Zoom
	if opts.x != "" {
		x = opts.x
	}
	if opts.y != "" {
		y = opts.y
	}
	if opts.zoom > 0 {
		zoom = opts.zoom
	}
	iterations := cfg.Fractal.Iterations
	if opts.iterations > 0 {
		iterations = opts.iterations
	}

	cam, err := camera.NewFromStrings(x, y, zoom)
	if err != nil {
		return err
	}
	snap := cam.Snapshot()

	mapper := camera.NewMapper(cfg.Screen.Width, cfg.Screen.Height, cfg.Grid.Cols, cfg.Grid.Rows)
	rast := render.NewTileRasterizer(mapper, pointColorer(variant, cfg.Fractal.Palette))
	img := image.NewRGBA(image.Rect(0, 0, cfg.Screen.Width, cfg.Screen.Height))

	type tileJob struct{ col, row int }
	jobs := make(chan tileJob)
	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := image.NewRGBA(image.Rect(0, 0, mapper.TileW, mapper.TileH))
			for j := range jobs {
				rast.Rasterize(j.col, j.row, snap, iterations, buf)
				dst := image.Rect(
					j.col*mapper.TileW, j.row*mapper.TileH,
					(j.col+1)*mapper.TileW, (j.row+1)*mapper.TileH,
				)
				draw.Draw(img, dst, buf, image.Point{}, draw.Src)
			}
		}()
	}
	for row := 0; row < cfg.Grid.Rows; row++ {
		for col := 0; col < cfg.Grid.Cols; col++ {
			jobs <- tileJob{col: col, row: row}
		}
	}
	close(jobs)
	wg.Wait()

	frames := render.NewFrameRenderer(cfg.Screen.Width, cfg.Screen.Height)
	data, err := frames.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Printf("wrote %s (%dx%d, %s, %d iterations)",
		opts.out, cfg.Screen.Width, cfg.Screen.Height, variant, iterations)
	return nil
}
