package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/gasprice/internal/app"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/urfave/cli/v2"
)

func addPriceCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-price",
		Usage: "Report a fuel price",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "station",
				Usage: "Gas station name",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Gas station address, looked up by name when empty",
			},
			&cli.StringFlag{
				Name:  "fuel",
				Usage: "Fuel type code (1-8)",
			},
			&cli.StringFlag{
				Name:  "price",
				Usage: "Price (5.99), digits only are read as cents (599 is 5.99)",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the known stations and fuel types",
			},
		},
		Action: addPriceAction,
	}
}

func addPriceAction(c *cli.Context) error {
	e, err := newEnv(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(c); err != nil {
		return err
	}

	if c.Bool("list") {
		return listPickers(c.Context, e.app)
	}

	form := app.PriceForm{
		FuelType:       c.String("fuel"),
		Price:          priceArg(c.String("price")),
		GasStationName: c.String("station"),
		Address:        c.String("address"),
	}
	if form.GasStationName != "" && form.Address == "" {
		stations, err := e.app.GasStations(c.Context)
		if err != nil {
			return err
		}
		if s, ok := pickStation(stations, form.GasStationName); ok {
			form.GasStationName, form.Address = s.Name, s.Address
		}
	}

	if err := e.app.SubmitFuelPrice(c.Context, form); err != nil {
		if errors.Is(err, app.ErrMissingFields) {
			return fmt.Errorf("%w: --station, --address, --fuel and --price", err)
		}
		return err
	}
	return nil
}

// priceArg keeps a price typed with a decimal separator as is and reads
// bare digits as cents.
func priceArg(text string) string {
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, ".,") {
		return text
	}
	return fuel.FormatPriceInput(text)
}

// pickStation finds the station named name, compared trimmed and
// case-insensitively.
func pickStation(stations []fuel.GasStation, name string) (fuel.GasStation, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range stations {
		if strings.ToLower(strings.TrimSpace(s.Name)) == name {
			return s, true
		}
	}
	return fuel.GasStation{}, false
}

func listPickers(ctx context.Context, a *app.App) error {
	stations, err := a.GasStations(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Stations:")
	for _, s := range stations {
		fmt.Printf("  %s - %s\n", s.Name, s.Address)
	}
	fmt.Println("\nFuel types:")
	for _, t := range fuel.Types {
		fmt.Printf("  %s. %s\n", t.Code, t.Name)
	}
	return nil
}
