package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/raoulx24/heapsnap/internal/fs"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list snapshots with size, age and expiry",
		Flags: []cli.Flag{dirFlag(), lifetimeFlag()},
		Action: func(c *cli.Context) error {
			l, err := snapshot.Scan(fs.New(), c.String("dir"))
			if err != nil {
				return err
			}

			out := c.App.Writer
			if len(l.Snapshots) == 0 && len(l.Temps) == 0 {
				fmt.Fprintf(out, "no snapshots in %s\n", c.String("dir"))
				return nil
			}

			lifetime := c.Duration("lifetime")
			t := now()

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tCAPTURED\tEXPIRES")
			for _, s := range l.Snapshots {
				expires := s.ExpiresAt(lifetime)
				when := humanize.RelTime(expires, t, "ago (overdue)", "from now")
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					s.Name,
					humanize.Bytes(uint64(s.Size)),
					humanize.RelTime(s.Timestamp, t, "ago", "from now"),
					when,
				)
			}
			for _, tmp := range l.Temps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tmp.Name, humanize.Bytes(uint64(tmp.Size)), "incomplete", "-")
			}
			return tw.Flush()
		},
	}
}
