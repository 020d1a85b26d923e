package geo

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rubiojr/gasprice/pkg/fuel"
)

// GeocodeRecords returns a copy of records where every record without
// coordinates got the coordinates of its station address. Addresses that
// fail to geocode are logged and left without coordinates.
func GeocodeRecords(ctx context.Context, g Geocoder, records []fuel.Record, logger *slog.Logger) []fuel.Record {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	type coords struct {
		lat, lng float64
		ok       bool
	}
	resolved := map[string]coords{}

	out := make([]fuel.Record, 0, len(records))
	for _, r := range records {
		address := strings.TrimSpace(r.Station.Address)
		if r.HasCoordinates() || address == "" {
			out = append(out, r)
			continue
		}

		c, seen := resolved[address]
		if !seen {
			lat, lng, err := g.Geocode(ctx, address)
			if err != nil {
				logger.Warn("error geocoding station address", "address", address, "error", err)
			}
			c = coords{lat: lat, lng: lng, ok: err == nil}
			resolved[address] = c
		}

		if c.ok {
			r = r.WithCoordinates(c.lat, c.lng)
		}
		out = append(out, r)
	}
	return out
}
