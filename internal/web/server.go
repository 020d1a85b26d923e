// Package web serves the gasprice screens as a small local JSON API.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/rubiojr/gasprice/internal/app"
	"github.com/rubiojr/gasprice/pkg/fuel"
)

const (
	DefaultRadius            = 5.0 // km
	DefaultRequestsPerMinute = 20
)

// Options tunes the server.
type Options struct {
	// RadiusKm is the default /nearby radius.
	RadiusKm float64
	// RequestsPerMinute is the per IP rate limit.
	RequestsPerMinute int
}

type server struct {
	app    *app.App
	logger *httplog.Logger
	radius float64
}

// NewHandler returns the router serving a.
func NewHandler(a *app.App, logger *httplog.Logger, opts Options) http.Handler {
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = DefaultRadius
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	s := &server{app: a, logger: logger, radius: opts.RadiusKm}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Handle("/metrics", a.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(opts.RequestsPerMinute, time.Minute))

		r.Get("/prices", s.prices)
		r.Get("/prices/cheapest", s.cheapest)
		r.Get("/prices/recent", s.recent)
		r.Get("/stations", s.stations)
		r.Get("/search", s.search)
		r.Get("/calc", s.calc)
		r.Get("/nearby", s.nearby)
		r.Post("/refresh", s.refresh)
	})

	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"records":       s.app.Store.Len(),
		"authenticated": s.app.Session.State().Authenticated,
		"refresh":       s.app.RefreshSeq(),
	})
}

func (s *server) prices(w http.ResponseWriter, r *http.Request) {
	records := s.app.Store.Records()
	if station := r.URL.Query().Get("station"); station != "" {
		records = fuel.RecordsForStation(records, station)
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (s *server) cheapest(w http.ResponseWriter, r *http.Request) {
	records := s.app.Store.Records()
	if ft := r.URL.Query().Get("fuel"); ft != "" {
		records = filterFuelType(records, ft)
	}
	record, ok := fuel.Cheapest(records)
	if !ok {
		writeError(w, http.StatusNotFound, "no prices available")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *server) recent(w http.ResponseWriter, r *http.Request) {
	record, ok := fuel.MostRecent(s.app.Store.Records())
	if !ok {
		writeError(w, http.StatusNotFound, "no prices available")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *server) stations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(fuel.CanonicalStations(s.app.Store.Records())))
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := fuel.SearchMode(q.Get("by"))
	if mode == "" {
		mode = fuel.SearchByFuelType
	}
	writeJSON(w, http.StatusOK, nonNil(fuel.Search(s.app.Store.Records(), mode, q.Get("q"))))
}

func (s *server) calc(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	record, ok := fuel.FindFuel(s.app.Store.Records(), q.Get("station"), q.Get("fuel"))
	if !ok {
		writeError(w, http.StatusNotFound, "fuel not found for station")
		return
	}

	amount, err := fuel.ParseAmount(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := fuel.CalcMode(q.Get("mode"))
	if mode == "" {
		mode = fuel.ByVolume
	}
	calc, err := fuel.ComputeTotal(mode, record, amount)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, fuel.ErrInvalidPrice) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *server) nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid latitude value")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid longitude value")
		return
	}

	radius := s.radius
	if v := q.Get("radius"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	writeJSON(w, http.StatusOK, nonNil(fuel.Nearby(s.app.Store.Records(), lat, lng, radius*1000)))
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	ev := s.app.Refresh()
	s.logger.Logger.Debug("refresh requested", "seq", ev.Seq)
	writeJSON(w, http.StatusAccepted, ev)
}

func filterFuelType(records []fuel.Record, code string) []fuel.Record {
	var out []fuel.Record
	for _, r := range records {
		if r.FuelType == code {
			out = append(out, r)
		}
	}
	return out
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
