package main

import (
	"errors"
	"fmt"

	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/urfave/cli/v2"
)

func calcCommand() *cli.Command {
	return &cli.Command{
		Name:  "calc",
		Usage: "Compute the cost of a refill, or the liters a budget buys",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "station",
				Usage:    "Gas station ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "fuel",
				Usage:    "Fuel type code (1-8)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "liters",
				Usage: "Liters to buy",
			},
			&cli.StringFlag{
				Name:  "value",
				Usage: "Money to spend",
			},
		},
		Action: calcAction,
	}
}

func calcAction(c *cli.Context) error {
	mode, input, err := calcInput(c.String("liters"), c.String("value"))
	if err != nil {
		return err
	}

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

	record, ok := fuel.FindFuel(e.app.Store.Records(), c.String("station"), c.String("fuel"))
	if !ok {
		return fmt.Errorf("no %s price for station %s", fuel.TypeName(c.String("fuel")), c.String("station"))
	}

	calc, err := fuel.ComputeTotal(mode, record, input)
	if err != nil {
		return err
	}

	fmt.Printf("%s at %s: R$ %.2f/L\n", record.TypeName(), record.Station.Name, calc.Price)
	switch mode {
	case fuel.ByVolume:
		fmt.Printf("%.2f L cost R$ %.2f\n", calc.Liters, calc.Total)
	case fuel.ByValue:
		fmt.Printf("R$ %.2f buys %.2f L\n", calc.Total, calc.Liters)
	}
	return nil
}

// calcInput picks the calculation mode from whichever of liters or value
// was given.
func calcInput(liters, value string) (fuel.CalcMode, float64, error) {
	switch {
	case liters != "" && value != "":
		return "", 0, errors.New("use either --liters or --value, not both")
	case liters != "":
		v, err := fuel.ParseAmount(liters)
		return fuel.ByVolume, v, err
	case value != "":
		v, err := fuel.ParseAmount(value)
		return fuel.ByValue, v, err
	}
	return "", 0, errors.New("--liters or --value is required")
}
