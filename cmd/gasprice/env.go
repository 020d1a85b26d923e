package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rubiojr/gasprice/internal/app"
	"github.com/rubiojr/gasprice/internal/config"
	"github.com/rubiojr/gasprice/internal/gasdb"
	"github.com/rubiojr/gasprice/internal/geo"
	"github.com/rubiojr/gasprice/internal/metrics"
	"github.com/rubiojr/gasprice/internal/notify"
	"github.com/rubiojr/gasprice/internal/session"
	"github.com/rubiojr/gasprice/internal/translations"
	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/urfave/cli/v2"
)

// env is everything a command needs, built once per invocation.
type env struct {
	app      *app.App
	cfg      *config.Config
	storage  *gasdb.Storage
	geocoder *geo.Nominatim
	router   *geo.Directions
	log      *slog.Logger
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("lang") {
		cfg.Language = c.String("lang")
	}
	if c.IsSet("lat") || c.IsSet("lng") {
		lat, lng := c.Float64("lat"), c.Float64("lng")
		cfg.Latitude, cfg.Longitude = &lat, &lng
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newEnv wires the application. A nil logger selects the one implied by
// the --debug flag.
func newEnv(c *cli.Context, logger *slog.Logger) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = newLogger(c.Bool("debug"))
	}

	storage, err := gasdb.NewStorage(c.Context, cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing storage: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	collector := metrics.NewCollector()
	client := api.NewFuelPriceAPI(cfg.APIURL,
		api.WithHTTPClient(httpClient),
		api.WithLogger(logger),
		api.WithObserver(collector),
	)

	tr := translations.GetTranslations(cfg.Language)
	notifier := notify.NewConsole(os.Stderr)
	geocoder := geo.NewNominatim(cfg.NominatimServer, logger, collector)

	gateway := session.New(session.Config{
		Store:        storage,
		Auth:         client,
		Locator:      &geo.StaticLocator{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
		Geocoder:     geocoder,
		LocationLog:  storage,
		Notifier:     notifier,
		Translations: tr,
		Logger:       logger,
		SearchRadius: cfg.RadiusKm * metersPerKm,
	})

	a := app.New(app.Config{
		Session:      gateway,
		API:          client,
		Snapshots:    storage,
		Notifier:     notifier,
		Translations: tr,
		Metrics:      collector,
		Logger:       logger,
		Closer:       storage,
	})

	return &env{
		app:      a,
		cfg:      cfg,
		storage:  storage,
		geocoder: geocoder,
		router:   geo.NewDirections(cfg.GoogleAPIKey, httpClient, logger),
		log:      logger,
	}, nil
}

func (e *env) Close() error {
	return e.app.Close()
}

// requireSession restores the persisted session and fails when there is
// no valid one.
func (e *env) requireSession(c *cli.Context) error {
	if !e.app.Session.Restore(c.Context).Authenticated {
		return fmt.Errorf("%w: run 'gasprice login' first", api.ErrAuthenticationMissing)
	}
	return nil
}

// loadPrices fetches the price list. A failed fetch is only an error when
// there is nothing to show.
func (e *env) loadPrices(c *cli.Context, filters api.Filters) error {
	err := e.app.FetchFuelPrices(c.Context, filters)
	if err != nil && e.app.Store.Len() == 0 {
		return err
	}
	return nil
}
