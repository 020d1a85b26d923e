// Package geo talks to the mapping providers gasprice depends on:
// geocoding, reverse geocoding, driving directions and the device
// location.
package geo

import (
	"context"
	"errors"
	"strings"

	"github.com/rubiojr/gasprice/pkg/polyline"
)

var (
	// ErrPermissionDenied is returned by a Locator that may not read the
	// device location.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrNotFound is returned when a provider has no result for a query.
	ErrNotFound = errors.New("no results found")
)

// Address is a reverse geocoded, human readable location.
type Address struct {
	Street   string
	District string
	Display  string
}

// String formats the address as "street - district", leaving out the
// parts that are missing.
func (a Address) String() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{a.Street, a.District} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
}

// ReverseGeocoder resolves coordinates to an address.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (Address, error)
}

// Router computes a driving route between two points.
type Router interface {
	Route(ctx context.Context, from, to polyline.Point) (*Route, error)
}

// Locator reads the device position.
type Locator interface {
	Locate(ctx context.Context) (lat, lng float64, err error)
}

// StaticLocator is a fixed device position. A locator without a position
// behaves like a device that refused the location permission.
type StaticLocator struct {
	Latitude  *float64
	Longitude *float64
}

// NewStaticLocator returns a locator fixed at lat, lng.
func NewStaticLocator(lat, lng float64) *StaticLocator {
	return &StaticLocator{Latitude: &lat, Longitude: &lng}
}

func (l *StaticLocator) Locate(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if l == nil || l.Latitude == nil || l.Longitude == nil {
		return 0, 0, ErrPermissionDenied
	}
	return *l.Latitude, *l.Longitude, nil
}
