package geo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/gominatim"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultNominatimServer = "https://nominatim.openstreetmap.org/"

	geocodeCacheExpiry  = 30 * time.Minute
	geocodeCacheCleanup = 90 * time.Minute

	// reverseZoom asks Nominatim for building level detail.
	reverseZoom = 18
)

// CacheObserver is told about geocode cache hits and misses.
type CacheObserver interface {
	RecordHit(cache string)
	RecordMiss(cache string)
}

// Nominatim geocodes through an OpenStreetMap Nominatim server and caches
// the answers.
type Nominatim struct {
	cache    *cache.Cache
	log      *slog.Logger
	observer CacheObserver

	search  func(q string) ([]gominatim.SearchResult, error)
	reverse func(lat, lng string) (*gominatim.ReverseResult, error)
}

// NewNominatim configures the gominatim server and returns a geocoder. An
// empty server selects DefaultNominatimServer.
func NewNominatim(server string, logger *slog.Logger, observer CacheObserver) *Nominatim {
	if server == "" {
		server = DefaultNominatimServer
	}
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gominatim.SetServer(server)

	return &Nominatim{
		cache:    cache.New(geocodeCacheExpiry, geocodeCacheCleanup),
		log:      logger,
		observer: observer,
		search: func(q string) ([]gominatim.SearchResult, error) {
			query := gominatim.SearchQuery{
				Q: url.QueryEscape(q),
			}
			return query.Get()
		},
		reverse: func(lat, lng string) (*gominatim.ReverseResult, error) {
			query := gominatim.ReverseQuery{
				Lat:            lat,
				Lon:            lng,
				Zoom:           reverseZoom,
				AddressDetails: true,
			}
			return query.Get()
		},
	}
}

// Geocode returns the coordinates of the first match for address.
func (n *Nominatim) Geocode(ctx context.Context, address string) (float64, float64, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, fmt.Errorf("%w: empty address", ErrNotFound)
	}

	key := "search:" + strings.ToLower(address)
	if cached, ok := n.cache.Get(key); ok {
		n.recordHit()
		return resultToLatLon(cached.(gominatim.SearchResult))
	}
	n.recordMiss()

	results, err := runBlocking(ctx, func() ([]gominatim.SearchResult, error) {
		return n.search(address)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("%w for location: %s", ErrNotFound, address)
	}

	n.cache.Set(key, results[0], cache.DefaultExpiration)
	return resultToLatLon(results[0])
}

// ReverseGeocode returns the address at lat, lng.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lng float64) (Address, error) {
	latStr := strconv.FormatFloat(lat, 'f', 6, 64)
	lngStr := strconv.FormatFloat(lng, 'f', 6, 64)

	key := "reverse:" + latStr + "," + lngStr
	if cached, ok := n.cache.Get(key); ok {
		n.recordHit()
		return cached.(Address), nil
	}
	n.recordMiss()

	result, err := runBlocking(ctx, func() (*gominatim.ReverseResult, error) {
		return n.reverse(latStr, lngStr)
	})
	if err != nil {
		return Address{}, fmt.Errorf("reverse geocoding error: %w", err)
	}
	if result == nil {
		return Address{}, fmt.Errorf("%w at %s,%s", ErrNotFound, latStr, lngStr)
	}

	addr := resultToAddress(result)
	if addr.Street == "" && addr.District == "" {
		return Address{}, fmt.Errorf("%w at %s,%s", ErrNotFound, latStr, lngStr)
	}
	n.cache.Set(key, addr, cache.DefaultExpiration)
	return addr, nil
}

func (n *Nominatim) recordHit() {
	if n.observer != nil {
		n.observer.RecordHit("geocode")
	}
}

func (n *Nominatim) recordMiss() {
	if n.observer != nil {
		n.observer.RecordMiss("geocode")
	}
}

func resultToLatLon(result gominatim.SearchResult) (lat, lng float64, err error) {
	lat, err = strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing latitude: %w", err)
	}

	lng, err = strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing longitude: %w", err)
	}

	return lat, lng, nil
}

// resultToAddress takes street and district from the address details and
// falls back to the display name when the details carry neither.
func resultToAddress(result *gominatim.ReverseResult) Address {
	district := result.Address.Suburb
	if district == "" {
		district = result.Address.Village
	}
	if district == "" {
		district = result.Address.Town
	}

	if result.Address.Road == "" && district == "" {
		return parseDisplayName(result.DisplayName)
	}
	return Address{
		Street:   result.Address.Road,
		District: district,
		Display:  result.DisplayName,
	}
}

// parseDisplayName splits a Nominatim display name ("12, Rua Augusta,
// Consolação, São Paulo, ...") into street and district. A leading house
// number is skipped.
func parseDisplayName(display string) Address {
	var parts []string
	for _, p := range strings.Split(display, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 && isHouseNumber(parts[0]) {
		parts = parts[1:]
	}

	addr := Address{Display: display}
	if len(parts) > 0 {
		addr.Street = parts[0]
	}
	if len(parts) > 1 {
		addr.District = parts[1]
	}
	return addr
}

func isHouseNumber(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '-' && r != '/'
	}) < 0
}

// runBlocking runs fn, which cannot be cancelled, and stops waiting for it
// when ctx is done.
func runBlocking[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}
