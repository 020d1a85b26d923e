package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rubiojr/gasprice/pkg/polyline"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	DefaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

	// fallbackSpeedKmh is the average speed assumed for straight line routes.
	fallbackSpeedKmh = 40.0
)

// ErrNoRoute is returned when the provider finds no route.
var ErrNoRoute = errors.New("no route found")

// Route is a driving route. Fallback routes are straight lines computed
// locally when no directions provider is configured.
type Route struct {
	Points         []polyline.Point
	Distance       string
	Duration       string
	DistanceMeters float64
	Fallback       bool
}

// Directions computes routes with the Google Directions API.
type Directions struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewDirections returns a router using apiKey. Without a key every route
// is a straight line fallback.
func NewDirections(apiKey string, httpClient *http.Client, logger *slog.Logger) *Directions {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Directions{
		apiKey:     apiKey,
		baseURL:    DefaultDirectionsURL,
		httpClient: httpClient,
		log:        logger,
	}
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance textValue `json:"distance"`
			Duration textValue `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// Route asks the provider for a route from from to to. When the geometry
// cannot be decoded the returned route carries no points and no texts and
// the error wraps polyline.ErrMalformedPolyline.
func (d *Directions) Route(ctx context.Context, from, to polyline.Point) (*Route, error) {
	if d.apiKey == "" {
		d.log.Debug("no directions API key, using straight line route")
		return StraightLine(from, to), nil
	}

	q := url.Values{}
	q.Set("origin", latLng(from))
	q.Set("destination", latLng(to))
	q.Set("key", d.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching directions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var dr directionsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("error unmarshaling JSON: %w", err)
	}
	if dr.Status != "OK" || len(dr.Routes) == 0 {
		if dr.ErrorMessage != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrNoRoute, dr.Status, dr.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, dr.Status)
	}

	first := dr.Routes[0]
	points, err := polyline.Decode(first.OverviewPolyline.Points)
	if err != nil {
		d.log.Error("error decoding route geometry", "error", err)
		return &Route{}, fmt.Errorf("error decoding route: %w", err)
	}

	route := &Route{Points: points}
	if len(first.Legs) > 0 {
		leg := first.Legs[0]
		route.Distance = leg.Distance.Text
		route.Duration = leg.Duration.Text
		route.DistanceMeters = leg.Distance.Value
	}
	return route, nil
}

// StraightLine builds a two point route with the great circle distance
// and a duration estimated at fallbackSpeedKmh.
func StraightLine(from, to polyline.Point) *Route {
	meters := gpx.Distance2D(from.Latitude, from.Longitude, to.Latitude, to.Longitude, true)
	minutes := int(math.Ceil(meters / 1000 / fallbackSpeedKmh * 60))

	return &Route{
		Points:         []polyline.Point{from, to},
		Distance:       FormatDistance(meters),
		Duration:       fmt.Sprintf("%d min", minutes),
		DistanceMeters: meters,
		Fallback:       true,
	}
}

// FormatDistance renders meters the way the directions provider does:
// "850 m" below a kilometre, "3.4 km" above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func latLng(p polyline.Point) string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}
