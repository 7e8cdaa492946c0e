// Package config handles configuration loading for the explorer.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the explorer configuration.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Fractal   FractalConfig   `yaml:"fractal"`
	Camera    CameraConfig    `yaml:"camera"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Video     VideoConfig     `yaml:"video"`
}

// ScreenConfig contains the frame dimensions.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// GridConfig contains the tile grid dimensions.
type GridConfig struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// FractalConfig selects the active set and iteration budget.
type FractalConfig struct {
	Variant    string `yaml:"variant"`
	Iterations int    `yaml:"iterations"`
	Palette    string `yaml:"palette"`
}

// CameraConfig contains the initial view and movement speeds. X and Y
// are decimal strings so deep-zoom targets keep full precision.
type CameraConfig struct {
	X         string  `yaml:"x"`
	Y         string  `yaml:"y"`
	Zoom      float64 `yaml:"zoom"`
	PanSpeed  float64 `yaml:"pan_speed"`
	ZoomSpeed float64 `yaml:"zoom_speed"`
}

// SchedulerConfig tunes the tile scheduling engine. None of these
// affect correctness, only responsiveness.
type SchedulerConfig struct {
	MaxWorkers        int     `yaml:"max_workers"`
	TargetFPS         int     `yaml:"target_fps"`
	PositionThreshold float64 `yaml:"position_threshold"`
	ZoomThreshold     float64 `yaml:"zoom_threshold"`
	Dedup             *bool   `yaml:"dedup"`
	TemporalBuffering *bool   `yaml:"temporal_buffering"`
	ShowGrid          bool    `yaml:"show_grid"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	TileSizeMB     int `yaml:"tile_size_mb"`
	TileTTLMinutes int `yaml:"tile_ttl_minutes"`
	FrameCacheSize int `yaml:"frame_cache_size"`
}

// VideoConfig contains zoom-video export settings.
type VideoConfig struct {
	FPS        int     `yaml:"fps"`
	DurationS  int     `yaml:"duration_s"`
	TargetZoom float64 `yaml:"target_zoom"`
	OutDir     string  `yaml:"out_dir"`
	RawStream  bool    `yaml:"raw_stream"`
}

// Load reads configuration from a YAML file. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	yes := true
	return &Config{
		Screen: ScreenConfig{Width: 1280, Height: 720},
		Grid:   GridConfig{Cols: 16, Rows: 9},
		Fractal: FractalConfig{
			Variant:    "mandelbrot",
			Iterations: 2000,
		},
		Camera: CameraConfig{
			X:         "0",
			Y:         "0",
			Zoom:      500,
			PanSpeed:  500,
			ZoomSpeed: 1,
		},
		Scheduler: SchedulerConfig{
			MaxWorkers:        runtime.NumCPU(),
			TargetFPS:         60,
			PositionThreshold: 0.25,
			ZoomThreshold:     0.25,
			Dedup:             &yes,
			TemporalBuffering: &yes,
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Cache: CacheConfig{
			TileSizeMB:     256,
			TileTTLMinutes: 10,
			FrameCacheSize: 32,
		},
		Video: VideoConfig{
			FPS:        24,
			DurationS:  10,
			TargetZoom: 8.697794105704448e16,
			OutDir:     "frames",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Screen.Width == 0 {
		cfg.Screen.Width = defaults.Screen.Width
	}
	if cfg.Screen.Height == 0 {
		cfg.Screen.Height = defaults.Screen.Height
	}
	if cfg.Grid.Cols == 0 {
		cfg.Grid.Cols = defaults.Grid.Cols
	}
	if cfg.Grid.Rows == 0 {
		cfg.Grid.Rows = defaults.Grid.Rows
	}
	if cfg.Fractal.Variant == "" {
		cfg.Fractal.Variant = defaults.Fractal.Variant
	}
	if cfg.Fractal.Iterations == 0 {
		cfg.Fractal.Iterations = defaults.Fractal.Iterations
	}
	if cfg.Camera.X == "" {
		cfg.Camera.X = defaults.Camera.X
	}
	if cfg.Camera.Y == "" {
		cfg.Camera.Y = defaults.Camera.Y
	}
	if cfg.Camera.Zoom == 0 {
		cfg.Camera.Zoom = defaults.Camera.Zoom
	}
	if cfg.Camera.PanSpeed == 0 {
		cfg.Camera.PanSpeed = defaults.Camera.PanSpeed
	}
	if cfg.Camera.ZoomSpeed == 0 {
		cfg.Camera.ZoomSpeed = defaults.Camera.ZoomSpeed
	}
	if cfg.Scheduler.MaxWorkers == 0 {
		cfg.Scheduler.MaxWorkers = defaults.Scheduler.MaxWorkers
	}
	if cfg.Scheduler.TargetFPS == 0 {
		cfg.Scheduler.TargetFPS = defaults.Scheduler.TargetFPS
	}
	if cfg.Scheduler.PositionThreshold == 0 {
		cfg.Scheduler.PositionThreshold = defaults.Scheduler.PositionThreshold
	}
	if cfg.Scheduler.ZoomThreshold == 0 {
		cfg.Scheduler.ZoomThreshold = defaults.Scheduler.ZoomThreshold
	}
	if cfg.Scheduler.Dedup == nil {
		cfg.Scheduler.Dedup = defaults.Scheduler.Dedup
	}
	if cfg.Scheduler.TemporalBuffering == nil {
		cfg.Scheduler.TemporalBuffering = defaults.Scheduler.TemporalBuffering
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Cache.TileSizeMB == 0 {
		cfg.Cache.TileSizeMB = defaults.Cache.TileSizeMB
	}
	if cfg.Cache.TileTTLMinutes == 0 {
		cfg.Cache.TileTTLMinutes = defaults.Cache.TileTTLMinutes
	}
	if cfg.Cache.FrameCacheSize == 0 {
		cfg.Cache.FrameCacheSize = defaults.Cache.FrameCacheSize
	}
	if cfg.Video.FPS == 0 {
		cfg.Video.FPS = defaults.Video.FPS
	}
	if cfg.Video.DurationS == 0 {
		cfg.Video.DurationS = defaults.Video.DurationS
	}
	if cfg.Video.TargetZoom == 0 {
		cfg.Video.TargetZoom = defaults.Video.TargetZoom
	}
	if cfg.Video.OutDir == "" {
		cfg.Video.OutDir = defaults.Video.OutDir
	}
}

func validate(cfg *Config) error {
	if cfg.Grid.Cols <= 0 || cfg.Grid.Rows <= 0 {
		return fmt.Errorf("invalid grid: %dx%d", cfg.Grid.Cols, cfg.Grid.Rows)
	}
	if cfg.Screen.Width < cfg.Grid.Cols || cfg.Screen.Height < cfg.Grid.Rows {
		return fmt.Errorf("screen %dx%d smaller than grid %dx%d",
			cfg.Screen.Width, cfg.Screen.Height, cfg.Grid.Cols, cfg.Grid.Rows)
	}
	if cfg.Fractal.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", cfg.Fractal.Iterations)
	}
	return nil
}
