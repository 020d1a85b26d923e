package main

import (
	"fmt"
	"time"

	"github.com/rubiojr/gasprice/internal/geo"
	"github.com/urfave/cli/v2"
)

func locationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "locations",
		Usage: "List the most searched locations",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of locations",
				Value: 10,
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			logs, err := e.storage.GetLocationLogs(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Println("No searches logged.")
				return nil
			}

			for i, l := range logs {
				fmt.Printf("%d. %.2f, %.2f  radius %s  searches %d  last %s\n",
					i+1, l.Latitude, l.Longitude, geo.FormatDistance(l.Distance),
					l.SearchCount, l.LastSearch.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}
