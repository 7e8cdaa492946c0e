package cli

import (
	"context"
	"fmt"
	"image/color"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fractal-tiles/explorer/internal/config"
	"github.com/fractal-tiles/explorer/internal/fractal"
	"github.com/fractal-tiles/explorer/internal/video"
)

type videoOptions struct {
	outDir     string
	fps        int
	durationS  int
	targetZoom float64
	workers    int
	rawStream  bool
}

// NewVideoCommand creates the video export command.
func NewVideoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &videoOptions{}

	cmd := &cobra.Command{
		Use:   "video",
		Short: "Export a zoom video as a PNG frame sequence",
		Long: `Render a geometric zoom from the configured camera toward the target
zoom, one frame per step, written as frameNNNNN.png files. With
--raw-stream an additional zstd-compressed RGB24 stream is written for
piping straight into ffmpeg.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideo(rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory (default from config)")
	cmd.Flags().IntVar(&opts.fps, "fps", 0, "frames per second (default from config)")
	cmd.Flags().IntVar(&opts.durationS, "duration", 0, "duration in seconds (default from config)")
	cmd.Flags().Float64Var(&opts.targetZoom, "target-zoom", 0, "final zoom level (default from config)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "tile workers (default: all CPUs)")
	cmd.Flags().BoolVar(&opts.rawStream, "raw-stream", false, "also write a zstd RGB24 stream")

	return cmd
}

func runVideo(rootOpts *RootOptions, opts *videoOptions) error {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	variant, err := fractal.ParseVariant(cfg.Fractal.Variant)
	if err != nil {
		return err
	}

	vopts := video.Options{
		Width:      cfg.Screen.Width,
		Height:     cfg.Screen.Height,
		Cols:       cfg.Grid.Cols,
		Rows:       cfg.Grid.Rows,
		FPS:        cfg.Video.FPS,
		DurationS:  cfg.Video.DurationS,
		Iterations: cfg.Fractal.Iterations,
		Workers:    runtime.NumCPU(),
		CameraX:    cfg.Camera.X,
		CameraY:    cfg.Camera.Y,
		StartZoom:  cfg.Camera.Zoom,
		TargetZoom: cfg.Video.TargetZoom,
		ColorAt:    pointColorer(variant, cfg.Fractal.Palette),
		OutDir:     cfg.Video.OutDir,
		RawStream:  cfg.Video.RawStream,
	}

	if opts.outDir != "" {
		vopts.OutDir = opts.outDir
	}
	if opts.fps > 0 {
		vopts.FPS = opts.fps
	}
	if opts.durationS > 0 {
		vopts.DurationS = opts.durationS
	}
	if opts.targetZoom > 0 {
		vopts.TargetZoom = opts.targetZoom
	}
	if opts.workers > 0 {
		vopts.Workers = opts.workers
	}
	if opts.rawStream {
		vopts.RawStream = true
	}

	exporter, err := video.NewExporter(vopts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return exporter.Run(ctx)
}

func pointColorer(variant fractal.Variant, palette string) func(x, y float64, iterations int) color.RGBA {
	if palette == "" {
		return func(x, y float64, iterations int) color.RGBA {
			return fractal.ColorAt(variant, x, y, iterations)
		}
	}
	return func(x, y float64, iterations int) color.RGBA {
		return fractal.PalettedColorAt(variant, palette, x, y, iterations)
	}
}
