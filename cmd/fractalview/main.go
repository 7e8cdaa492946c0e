package main

import (
	"os"

	"github.com/fractal-tiles/explorer/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
