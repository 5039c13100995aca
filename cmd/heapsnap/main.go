package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/raoulx24/heapsnap/internal/config"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "heapsnap",
		Usage:   "capture heap snapshots on a schedule and expire them",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Commands: []*cli.Command{
			runCommand(),
			listCommand(),
			pruneCommand(),
		},
	}
}

func dirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Usage:   "snapshot directory",
		EnvVars: []string{"HEAPSNAP_DIR"},
		Value:   config.DefaultDir,
	}
}

func lifetimeFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:    "lifetime",
		Aliases: []string{"l"},
		Usage:   "how long a snapshot is kept after capture",
		EnvVars: []string{"HEAPSNAP_LIFETIME"},
		Value:   config.DefaultLifetime,
	}
}

// now is replaced in tests.
var now = time.Now
