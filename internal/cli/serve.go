package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fractal-tiles/explorer/internal/cache"
	"github.com/fractal-tiles/explorer/internal/config"
	"github.com/fractal-tiles/explorer/internal/engine"
	"github.com/fractal-tiles/explorer/internal/fractal"
	"github.com/fractal-tiles/explorer/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP explorer",
		Long: `Run the explorer engine and expose it over HTTP: the live frame at
/frame.png, camera input at /api/camera, and an XYZ tile pyramid of the
active fractal at /tiles/{z}/{x}/{y}.png.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(rootOpts *RootOptions) error {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	variant, err := fractal.ParseVariant(cfg.Fractal.Variant)
	if err != nil {
		return err
	}

	cacheManager, err := cache.NewManager(cache.Config{
		TileCacheSizeMB: cfg.Cache.TileSizeMB,
		TileTTL:         time.Duration(cfg.Cache.TileTTLMinutes) * time.Minute,
		FrameCacheSize:  cfg.Cache.FrameCacheSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer cacheManager.Close()

	eng, err := engine.New(cfg, cacheManager)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	tiles := server.NewTileServer(server.TileServerConfig{
		Variant:    variant,
		Iterations: cfg.Fractal.Iterations,
		TileSize:   256,
		Cache:      cacheManager,
	})

	router := server.NewRouter(server.RouterConfig{
		Engine:      eng,
		Tiles:       tiles,
		Caches:      cacheManager,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := eng.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("engine stopped: %v", err)
		}
	}()

	go func() {
		log.Printf("explorer listening on http://localhost:%d (%s, %d workers, grid %dx%d)",
			cfg.Server.Port, cfg.Fractal.Variant, cfg.Scheduler.MaxWorkers, cfg.Grid.Cols, cfg.Grid.Rows)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	// Echo the final view for copy-paste reuse.
	st := eng.Status()
	log.Printf("final view: x=%s y=%s zoom=%s", st.CameraX, st.CameraY, st.CameraZoom)
	return nil
}
