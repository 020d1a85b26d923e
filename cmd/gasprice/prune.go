package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete old price snapshots",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Keep snapshots newer than this many days",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			days := e.cfg.RetentionDays
			if c.IsSet("days") {
				days = c.Int("days")
			}
			deleted, err := e.app.Prune(c.Context, days)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d snapshots older than %d days\n", deleted, days)
			return nil
		},
	}
}
