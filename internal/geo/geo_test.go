package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/muesli/gominatim"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/rubiojr/gasprice/pkg/polyline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	saoPaulo = polyline.Point{Latitude: -23.55052, Longitude: -46.63331}
	santos   = polyline.Point{Latitude: -23.96083, Longitude: -46.33361}
)

type countingObserver struct {
	hits, misses int32
}

func (o *countingObserver) RecordHit(string)  { atomic.AddInt32(&o.hits, 1) }
func (o *countingObserver) RecordMiss(string) { atomic.AddInt32(&o.misses, 1) }

func TestAddressString(t *testing.T) {
	assert.Equal(t, "Rua Augusta - Consolação", Address{Street: "Rua Augusta", District: "Consolação"}.String())
	assert.Equal(t, "Rua Augusta", Address{Street: "Rua Augusta"}.String())
	assert.Equal(t, "Consolação", Address{District: " Consolação "}.String())
	assert.Equal(t, "", Address{}.String())
}

func TestStaticLocator(t *testing.T) {
	ctx := context.Background()

	lat, lng, err := NewStaticLocator(-23.5, -46.6).Locate(ctx)
	require.NoError(t, err)
	assert.Equal(t, -23.5, lat)
	assert.Equal(t, -46.6, lng)

	_, _, err = (&StaticLocator{}).Locate(ctx)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	var nilLocator *StaticLocator
	_, _, err = nilLocator.Locate(ctx)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestNominatim_Geocode(t *testing.T) {
	obs := &countingObserver{}
	n := NewNominatim("", nil, obs)

	var calls int32
	n.search = func(q string) ([]gominatim.SearchResult, error) {
		atomic.AddInt32(&calls, 1)
		switch q {
		case "Rua Augusta, São Paulo":
			return []gominatim.SearchResult{{Lat: "-23.5558", Lon: "-46.6622"}}, nil
		case "broken":
			return []gominatim.SearchResult{{Lat: "north", Lon: "-46.6"}}, nil
		case "down":
			return nil, errors.New("connection refused")
		}
		return nil, nil
	}
	ctx := context.Background()

	lat, lng, err := n.Geocode(ctx, "Rua Augusta, São Paulo")
	require.NoError(t, err)
	assert.Equal(t, -23.5558, lat)
	assert.Equal(t, -46.6622, lng)

	_, _, err = n.Geocode(ctx, "  rua augusta, são paulo ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&obs.hits))

	_, _, err = n.Geocode(ctx, "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = n.Geocode(ctx, "broken")
	assert.Error(t, err)

	_, _, err = n.Geocode(ctx, "down")
	assert.ErrorContains(t, err, "connection refused")

	_, _, err = n.Geocode(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNominatim_ReverseGeocode(t *testing.T) {
	n := NewNominatim("http://localhost:1", nil, nil)
	n.reverse = func(lat, lng string) (*gominatim.ReverseResult, error) {
		switch lat {
		case "0.000000":
			return &gominatim.ReverseResult{}, nil
		case "-22.906800":
			return &gominatim.ReverseResult{
				DisplayName: "Rua do Ouvidor, Paraty, Brasil",
				Address:     gominatim.Address{Road: "Rua do Ouvidor", Town: "Paraty", Country: "Brasil"},
			}, nil
		case "-23.000000":
			return &gominatim.ReverseResult{DisplayName: "1578, Avenida Paulista, Bela Vista, São Paulo, Brasil"}, nil
		}
		return &gominatim.ReverseResult{
			DisplayName: "1578, Avenida Paulista, Bela Vista, São Paulo, Brasil",
			Address: gominatim.Address{
				House:   "1578",
				Road:    "Avenida Paulista",
				Suburb:  "Bela Vista",
				City:    "São Paulo",
				Country: "Brasil",
			},
		}, nil
	}
	ctx := context.Background()

	addr, err := n.ReverseGeocode(ctx, -23.5614, -46.6559)
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "Bela Vista", addr.District)
	assert.Equal(t, "Avenida Paulista - Bela Vista", addr.String())

	addr, err = n.ReverseGeocode(ctx, -22.9068, -44.7)
	require.NoError(t, err)
	assert.Equal(t, "Rua do Ouvidor - Paraty", addr.String())

	// No address details: the display name is split instead.
	addr, err = n.ReverseGeocode(ctx, -23, -46)
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista - Bela Vista", addr.String())

	_, err = n.ReverseGeocode(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNominatim_ReverseGeocodeQuery(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		query = r.URL.Query()
		w.Write([]byte(`{
			"display_name": "1578, Avenida Paulista, Bela Vista, São Paulo, Brasil",
			"address": {"house_number": "1578", "road": "Avenida Paulista",
			            "suburb": "Bela Vista", "city": "São Paulo", "country": "Brasil"}
		}`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, nil, nil)
	addr, err := n.ReverseGeocode(context.Background(), -23.5614, -46.6559)
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista - Bela Vista", addr.String())

	require.NotNil(t, query)
	assert.Equal(t, "-23.561400", query.Get("lat"))
	assert.Equal(t, "-46.655900", query.Get("lon"))
	assert.Equal(t, "18", query.Get("zoom"))
	assert.Equal(t, "1", query.Get("addressdetails"))
}

func TestNominatim_ContextCancelled(t *testing.T) {
	n := NewNominatim("", nil, nil)
	block := make(chan struct{})
	defer close(block)
	n.search = func(string) ([]gominatim.SearchResult, error) {
		<-block
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := n.Geocode(ctx, "anywhere")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDisplayName(t *testing.T) {
	tests := []struct {
		display  string
		street   string
		district string
	}{
		{"Rua Augusta, Consolação, São Paulo", "Rua Augusta", "Consolação"},
		{"12-14, Rua Augusta, Consolação", "Rua Augusta", "Consolação"},
		{"Praça da Sé", "Praça da Sé", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		addr := parseDisplayName(tt.display)
		assert.Equal(t, tt.street, addr.Street, tt.display)
		assert.Equal(t, tt.district, addr.District, tt.display)
	}
}

func newTestDirections(t *testing.T, handler http.HandlerFunc) *Directions {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d := NewDirections("test-key", srv.Client(), nil)
	d.baseURL = srv.URL
	return d
}

func TestDirections_Route(t *testing.T) {
	encoded := polyline.Encode([]polyline.Point{saoPaulo, santos})
	d := newTestDirections(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "-23.55052,-46.63331", r.URL.Query().Get("origin"))
		assert.Equal(t, "-23.96083,-46.33361", r.URL.Query().Get("destination"))
		w.Write([]byte(`{"status": "OK", "routes": [{
			"overview_polyline": {"points": "` + encoded + `"},
			"legs": [{"distance": {"text": "72,4 km", "value": 72400}, "duration": {"text": "1 hora 5 minutos", "value": 3900}}]
		}]}`))
	})

	route, err := d.Route(context.Background(), saoPaulo, santos)
	require.NoError(t, err)
	assert.False(t, route.Fallback)
	assert.Equal(t, "72,4 km", route.Distance)
	assert.Equal(t, "1 hora 5 minutos", route.Duration)
	assert.Equal(t, 72400.0, route.DistanceMeters)
	require.Len(t, route.Points, 2)
	assert.InDelta(t, santos.Latitude, route.Points[1].Latitude, 1e-5)
}

func TestDirections_MalformedPolyline(t *testing.T) {
	d := newTestDirections(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "routes": [{
			"overview_polyline": {"points": "_p~iF"},
			"legs": [{"distance": {"text": "1 km"}, "duration": {"text": "2 min"}}]
		}]}`))
	})

	route, err := d.Route(context.Background(), saoPaulo, santos)
	require.ErrorIs(t, err, polyline.ErrMalformedPolyline)
	require.NotNil(t, route)
	assert.Empty(t, route.Points)
	assert.Empty(t, route.Distance)
	assert.Empty(t, route.Duration)
}

func TestDirections_NoRoute(t *testing.T) {
	d := newTestDirections(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid.", "routes": []}`))
	})

	_, err := d.Route(context.Background(), saoPaulo, santos)
	require.ErrorIs(t, err, ErrNoRoute)
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}

func TestDirections_StatusError(t *testing.T) {
	d := newTestDirections(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := d.Route(context.Background(), saoPaulo, santos)
	assert.ErrorContains(t, err, "502")
}

func TestDirections_FallbackWithoutKey(t *testing.T) {
	d := NewDirections("", nil, nil)
	d.baseURL = "http://127.0.0.1:1"

	route, err := d.Route(context.Background(), saoPaulo, santos)
	require.NoError(t, err)
	assert.True(t, route.Fallback)
	assert.Equal(t, []polyline.Point{saoPaulo, santos}, route.Points)
	assert.InDelta(t, 55000, route.DistanceMeters, 5000)
	assert.Contains(t, route.Distance, "km")
	assert.NotEmpty(t, route.Duration)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850 m", FormatDistance(849.6))
	assert.Equal(t, "3.4 km", FormatDistance(3420))
}

type mapGeocoder map[string][2]float64

func (m mapGeocoder) Geocode(_ context.Context, address string) (float64, float64, error) {
	c, ok := m[address]
	if !ok {
		return 0, 0, ErrNotFound
	}
	return c[0], c[1], nil
}

func TestGeocodeRecords(t *testing.T) {
	lat, lng := 1.0, 2.0
	records := []fuel.Record{
		{ID: 1, Station: fuel.StationInfo{Address: "Rua A, 1"}},
		{ID: 2, Station: fuel.StationInfo{Address: "Rua B, 2"}},
		{ID: 3, Station: fuel.StationInfo{Address: "Rua A, 1"}, Latitude: &lat, Longitude: &lng},
		{ID: 4},
	}
	g := mapGeocoder{"Rua A, 1": {-23.5, -46.6}}

	out := GeocodeRecords(context.Background(), g, records, nil)
	require.Len(t, out, 4)

	require.True(t, out[0].HasCoordinates())
	assert.Equal(t, -23.5, *out[0].Latitude)
	assert.False(t, out[1].HasCoordinates())
	assert.Equal(t, 1.0, *out[2].Latitude)
	assert.False(t, out[3].HasCoordinates())

	assert.False(t, records[0].HasCoordinates(), "input must not be modified")
}
