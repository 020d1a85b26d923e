package main

import (
	"fmt"
	"strings"

	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/urfave/cli/v2"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the price register",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "by",
				Aliases: []string{"b"},
				Usage:   "Search by fuelType, price or address",
				Value:   string(fuel.SearchByFuelType),
			},
			&cli.StringFlag{
				Name:  "fuel-type",
				Usage: "Only fetch prices of this fuel type code",
			},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	mode := fuel.SearchMode(c.String("by"))
	switch mode {
	case fuel.SearchByFuelType, fuel.SearchByPrice, fuel.SearchByAddress:
	default:
		return fmt.Errorf("unknown search mode %q", mode)
	}

	e, err := newEnv(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(c); err != nil {
		return err
	}
	if err := e.loadPrices(c, api.Filters{FuelType: c.String("fuel-type")}); err != nil {
		return err
	}

	query := strings.Join(c.Args().Slice(), " ")
	printRecords(fuel.Search(e.app.Store.Records(), mode, query))
	return nil
}
