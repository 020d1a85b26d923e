package main

import (
	"errors"
	"fmt"

	"github.com/rubiojr/gasprice/internal/geo"
	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/rubiojr/gasprice/pkg/polyline"
	"github.com/urfave/cli/v2"
)

func mapCommand() *cli.Command {
	return &cli.Command{
		Name:  "map",
		Usage: "List gas stations near you and route to one of them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "location",
				Usage: "Search around this address instead of the device location",
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in kilometers",
			},
			&cli.StringFlag{
				Name:  "route",
				Usage: "Gas station ID to route to",
			},
		},
		Action: mapAction,
	}
}

func mapAction(c *cli.Context) error {
	e, err := newEnv(c, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(c); err != nil {
		return err
	}

	radius := e.cfg.RadiusKm
	if c.IsSet("radius") {
		radius = c.Float64("radius")
	}

	var lat, lng float64
	if loc := c.String("location"); loc != "" {
		lat, lng, err = e.geocoder.Geocode(c.Context, loc)
		if err != nil {
			return err
		}
		fmt.Println("Location found:", loc)
	} else {
		here, err := e.app.Session.FetchLocation(c.Context)
		if err != nil {
			return err
		}
		lat, lng = *here.Latitude, *here.Longitude
		if here.Address != "" {
			fmt.Println("You are at:", here.Address)
		}
	}

	if err := e.loadPrices(c, api.Filters{}); err != nil {
		return err
	}
	records := geo.GeocodeRecords(c.Context, e.geocoder, fuel.UniqueStations(e.app.Store.Records()), e.log)

	fmt.Printf("Filtering stations within %g km radius...\n\n", radius)
	nearby := fuel.Nearby(records, lat, lng, radius*metersPerKm)
	for i, n := range nearby {
		fmt.Printf("%d. [%d] %s (%s)\n", i+1, n.Record.GasStationID, n.Record.Station.Name, n.Record.Station.Address)
		fmt.Printf("   Distance: %.2f km\n\n", n.Distance/metersPerKm)
	}
	fmt.Printf("Found %d stations within %g km radius\n", len(nearby), radius)

	stationID := c.String("route")
	if stationID == "" {
		return nil
	}

	var dest *fuel.Record
	for _, r := range records {
		if r.StationKey() == stationID && r.HasCoordinates() {
			dest = &r
			break
		}
	}
	if dest == nil {
		return fmt.Errorf("no location known for station %s", stationID)
	}

	from := polyline.Point{Latitude: lat, Longitude: lng}
	to := polyline.Point{Latitude: *dest.Latitude, Longitude: *dest.Longitude}
	route, err := e.router.Route(c.Context, from, to)
	if errors.Is(err, polyline.ErrMalformedPolyline) {
		fmt.Println("\nRoute geometry unavailable.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nRoute to %s: %s, %s (%d points)", dest.Station.Name, route.Distance, route.Duration, len(route.Points))
	if route.Fallback {
		fmt.Print(" [straight line]")
	}
	fmt.Println()
	return nil
}
