// Package cli wires the explorer's commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the explorer CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fractalview",
		Short: "Tiled escape-time fractal explorer",
		Long: `An interactively explorable fractal renderer. Tiles of the screen are
recomputed on background workers while cached rasters are reprojected
under the moving camera, so the view stays coherent at any zoom.`,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config/explorer.yaml", "path to configuration file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVideoCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))

	return cmd
}
