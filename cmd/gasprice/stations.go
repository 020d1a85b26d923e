package main

import (
	"fmt"

	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/urfave/cli/v2"
)

func stationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stations",
		Usage: "List the gas stations with reported prices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Show every price of this gas station ID",
			},
		},
		Action: stationsAction,
	}
}

func stationsAction(c *cli.Context) error {
	e, err := newEnv(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(c); err != nil {
		return err
	}
	if err := e.loadPrices(c, api.Filters{}); err != nil {
		return err
	}
	records := e.app.Store.Records()

	if id := c.String("id"); id != "" {
		printRecords(fuel.RecordsForStation(records, id))
		return nil
	}

	canonical := fuel.CanonicalStations(records)
	for i, s := range canonical {
		fmt.Printf("%d. [%d] %s (%s)", i+1, s.GasStationID, s.Station.Name, s.Station.Address)
		if s.Divergent {
			fmt.Print(" *")
		}
		fmt.Println()
	}
	fmt.Printf("\nFound %d stations\n", len(canonical))
	return nil
}
