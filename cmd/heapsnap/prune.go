package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/raoulx24/heapsnap/internal/journal"
	"github.com/raoulx24/heapsnap/internal/retention"
)

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "delete expired snapshots and leftover temp files",
		Flags: []cli.Flag{
			dirFlag(),
			lifetimeFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "only report what would be removed",
			},
		},
		Action: func(c *cli.Context) error {
			dir := c.String("dir")
			dryRun := c.Bool("dry-run")

			engine := retention.New(c.Duration("lifetime"), retention.Deps{
				Journal: journal.New(dir, nil, now, c.App.ErrWriter),
			})

			rep, err := engine.Sweep(dir, now(), dryRun)
			if err != nil {
				return err
			}

			out := c.App.Writer
			verb := "removed"
			if dryRun {
				verb = "would remove"
			}
			for _, s := range rep.Expired {
				fmt.Fprintf(out, "%s %s\n", verb, s.Name)
			}
			for _, name := range rep.TempsRemoved {
				fmt.Fprintf(out, "%s %s\n", verb, name)
			}
			fmt.Fprintf(out, "%d expired, %d temp, %d kept\n", len(rep.Expired), len(rep.TempsRemoved), len(rep.Live))

			if len(rep.Failed) > 0 {
				return fmt.Errorf("%d snapshot(s) could not be deleted", len(rep.Failed))
			}
			return nil
		},
	}
}
