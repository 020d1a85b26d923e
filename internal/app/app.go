// Package app is the application context shared by every gasprice screen:
// the price store, the session gateway and the refresh signal.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/gasprice/internal/metrics"
	"github.com/rubiojr/gasprice/internal/notify"
	"github.com/rubiojr/gasprice/internal/session"
	"github.com/rubiojr/gasprice/internal/translations"
	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
)

const (
	stationsCacheExpiry  = 5 * time.Minute
	stationsCacheCleanup = 10 * time.Minute
)

// ErrMissingFields is returned when a price form is incomplete.
var ErrMissingFields = errors.New("all fields are required")

// API is the remote API as used by the application.
type API interface {
	FuelPrices(ctx context.Context, token string, filters api.Filters) ([]fuel.Record, error)
	GasStations(ctx context.Context, token string) ([]fuel.GasStation, error)
	Profile(ctx context.Context, token string) (*api.User, error)
	DeleteUser(ctx context.Context, token string) error
	SubmitFuelPrice(ctx context.Context, token string, s api.Submission) error
}

// Snapshots persists the fetched price lists.
type Snapshots interface {
	SavePrices(ctx context.Context, date time.Time, records []fuel.Record) error
	GetLastPrices(ctx context.Context) ([]fuel.Record, error)
	GetLastUpdateDate(ctx context.Context) (*time.Time, error)
	DeleteOldRecords(ctx context.Context, daysOld int) (int, error)
	VacuumDatabase(ctx context.Context) error
}

// Config wires an App. Session and API are required.
type Config struct {
	Session      *session.Gateway
	API          API
	Snapshots    Snapshots
	Notifier     notify.Notifier
	Translations translations.Translations
	Metrics      *metrics.Collector
	Logger       *slog.Logger
	// Closer is closed by Close, typically the storage.
	Closer interface{ Close() error }
}

// App owns all shared client state. It is created once and handed to
// every command and handler.
type App struct {
	Session *session.Gateway
	Store   *fuel.Store
	Metrics *metrics.Collector

	api       API
	snapshots Snapshots
	notifier  notify.Notifier
	tr        translations.Translations
	log       *slog.Logger
	stations  *cache.Cache
	closer    interface{ Close() error }
	now       func() time.Time

	mu         sync.Mutex
	refreshSeq uint64
	subs       map[int]chan RefreshEvent
	nextSub    int
	closed     bool
}

// New returns an App.
func New(cfg Config) *App {
	a := &App{
		Session:   cfg.Session,
		Store:     fuel.NewStore(),
		Metrics:   cfg.Metrics,
		api:       cfg.API,
		snapshots: cfg.Snapshots,
		notifier:  cfg.Notifier,
		tr:        cfg.Translations,
		log:       cfg.Logger,
		stations:  cache.New(stationsCacheExpiry, stationsCacheCleanup),
		closer:    cfg.Closer,
		now:       time.Now,
		subs:      map[int]chan RefreshEvent{},
	}
	if a.Metrics == nil {
		a.Metrics = metrics.NewCollector()
	}
	if a.notifier == nil {
		a.notifier = notify.Discard{}
	}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}
	if a.tr == (translations.Translations{}) {
		a.tr = translations.GetTranslations("")
	}
	return a
}

// Translations returns the notice texts in use.
func (a *App) Translations() translations.Translations {
	return a.tr
}

// Login authenticates and notifies the outcome.
func (a *App) Login(ctx context.Context, email, password string) error {
	if _, err := a.Session.Login(ctx, email, password); err != nil {
		a.report("login", err)
		return err
	}
	notify.Success(a.notifier, a.tr.SuccessTitle, a.tr.LoggedIn)
	return nil
}

// Register creates an account and notifies the outcome.
func (a *App) Register(ctx context.Context, name, email, password string) error {
	if _, err := a.Session.Register(ctx, name, email, password); err != nil {
		a.report("register", err)
		return err
	}
	notify.Success(a.notifier, a.tr.SuccessTitle, a.tr.SignedUp)
	return nil
}

// Logout discards the token and every piece of state tied to it.
func (a *App) Logout(ctx context.Context) error {
	if err := a.reset(ctx); err != nil {
		a.log.Error("error logging out", "error", err)
		notify.Error(a.notifier, a.tr.ErrorTitle, a.tr.ServerFailure)
		return err
	}
	notify.Success(a.notifier, a.tr.SuccessTitle, a.tr.LoggedOut)
	return nil
}

// FetchFuelPrices replaces the store with the remote price list. Responses
// older than one already applied are discarded. When the server cannot be
// reached the current records are kept, and an empty store is filled from
// the last saved snapshot.
func (a *App) FetchFuelPrices(ctx context.Context, filters api.Filters) error {
	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	seq := a.Store.Begin()
	records, err := a.api.FuelPrices(ctx, token, filters)
	if err != nil {
		a.report("fetching fuel prices", err)
		if errors.Is(err, api.ErrNetwork) && a.Store.Len() == 0 {
			a.loadSnapshot(ctx, seq)
		}
		return err
	}

	if !a.Store.Apply(seq, records) {
		a.Metrics.StaleDiscards.Inc()
		a.log.Debug("discarding stale price list", "seq", seq)
		return nil
	}
	a.Metrics.Records.Set(float64(len(records)))
	a.log.Debug("price list updated", "seq", seq, "records", len(records))

	if filters == (api.Filters{}) && a.snapshots != nil {
		if err := a.snapshots.SavePrices(ctx, a.now(), records); err != nil {
			a.log.Warn("error saving price snapshot", "error", err)
		}
	}
	return nil
}

func (a *App) loadSnapshot(ctx context.Context, seq uint64) {
	if a.snapshots == nil {
		return
	}
	records, err := a.snapshots.GetLastPrices(ctx)
	if err != nil {
		a.log.Debug("no snapshot to fall back to", "error", err)
		return
	}
	if a.Store.Apply(seq, records) {
		a.Metrics.Records.Set(float64(len(records)))
		notify.Info(a.notifier, a.tr.AttentionTitle, a.tr.ShowingCached)
	}
}

// LastUpdate returns the day of the last saved snapshot, nil if none.
func (a *App) LastUpdate(ctx context.Context) (*time.Time, error) {
	if a.snapshots == nil {
		return nil, nil
	}
	return a.snapshots.GetLastUpdateDate(ctx)
}

// PriceForm is the add-price screen input, as typed.
type PriceForm struct {
	FuelType       string
	Price          string
	GasStationName string
	Address        string
}

// SubmitFuelPrice validates form and reports the price. A successful
// submission triggers a refresh.
func (a *App) SubmitFuelPrice(ctx context.Context, form PriceForm) error {
	for _, v := range []string{form.FuelType, form.Price, form.GasStationName, form.Address} {
		if strings.TrimSpace(v) == "" {
			notify.Error(a.notifier, a.tr.AttentionTitle, a.tr.MissingFields)
			return ErrMissingFields
		}
	}

	price, err := fuel.ParsePrice(form.Price)
	if err != nil {
		notify.Error(a.notifier, a.tr.ErrorTitle, a.tr.InvalidPrice)
		return err
	}

	token, err := a.token(ctx)
	if err != nil {
		return err
	}

	err = a.api.SubmitFuelPrice(ctx, token, api.Submission{
		FuelType:       strings.TrimSpace(form.FuelType),
		Price:          price,
		GasStationName: strings.TrimSpace(form.GasStationName),
		Address:        strings.TrimSpace(form.Address),
	})
	if err != nil {
		a.report("submitting fuel price", err)
		return err
	}

	notify.Success(a.notifier, a.tr.SuccessTitle, a.tr.PriceAdded)
	a.Refresh()
	return nil
}

// UserProfile returns the authenticated user.
func (a *App) UserProfile(ctx context.Context) (*api.User, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	user, err := a.api.Profile(ctx, token)
	if err != nil {
		a.report("fetching profile", err)
		return nil, err
	}
	return user, nil
}

// DeleteAccount deletes the user and then logs out.
func (a *App) DeleteAccount(ctx context.Context) error {
	token, err := a.token(ctx)
	if err != nil {
		return err
	}
	if err := a.api.DeleteUser(ctx, token); err != nil {
		if errors.Is(err, api.ErrAuthenticationRejected) || errors.Is(err, api.ErrNetwork) {
			a.report("deleting account", err)
		} else {
			a.log.Error("error deleting account", "error", err)
			notify.Error(a.notifier, a.tr.ErrorTitle, a.tr.AccountDeleteError)
		}
		return err
	}

	if err := a.reset(ctx); err != nil {
		a.log.Error("error clearing session after account deletion", "error", err)
	}
	notify.Success(a.notifier, a.tr.SuccessTitle, a.tr.AccountDeleted)
	return nil
}

// GasStations lists the known stations, deduplicated by name and address.
// Results are cached per token for a few minutes.
func (a *App) GasStations(ctx context.Context) ([]fuel.GasStation, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := a.stations.Get(token); ok {
		a.Metrics.RecordHit("stations")
		return append([]fuel.GasStation(nil), cached.([]fuel.GasStation)...), nil
	}
	a.Metrics.RecordMiss("stations")

	stations, err := a.api.GasStations(ctx, token)
	if err != nil {
		a.report("fetching gas stations", err)
		return nil, err
	}

	stations = fuel.DedupeGasStations(stations)
	a.stations.Set(token, stations, cache.DefaultExpiration)
	return append([]fuel.GasStation(nil), stations...), nil
}

// Prune deletes snapshots older than days and reclaims the space.
func (a *App) Prune(ctx context.Context, days int) (int, error) {
	if a.snapshots == nil {
		return 0, nil
	}
	deleted, err := a.snapshots.DeleteOldRecords(ctx, days)
	if err != nil {
		return deleted, fmt.Errorf("error deleting old snapshots: %w", err)
	}
	if err := a.snapshots.VacuumDatabase(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Close stops every subscription and closes the configured closer.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.mu.Unlock()

	a.stations.Flush()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// token returns the session token, notifying the user when there is none.
func (a *App) token(ctx context.Context) (string, error) {
	token, err := a.Session.Token(ctx)
	if err != nil {
		a.log.Error("error reading token", "error", err)
		notify.Error(a.notifier, a.tr.ErrorTitle, a.tr.ServerFailure)
		return "", err
	}
	if token == "" {
		a.report("reading token", api.ErrAuthenticationMissing)
		return "", api.ErrAuthenticationMissing
	}
	return token, nil
}

func (a *App) reset(ctx context.Context) error {
	a.Store.Reset()
	a.Metrics.Records.Set(0)
	a.Session.ClearLocation()
	a.stations.Flush()
	return a.Session.Logout(ctx)
}

// report logs err and shows the matching notice. A rejected token also
// clears the session.
func (a *App) report(op string, err error) {
	a.log.Error("error "+op, "error", err)

	var verr *api.ValidationError
	switch {
	case errors.Is(err, api.ErrAuthenticationMissing):
		notify.Error(a.notifier, a.tr.AuthErrorTitle, a.tr.TokenNotFound)
	case errors.Is(err, api.ErrInvalidCredentials):
		notify.Error(a.notifier, a.tr.AuthErrorTitle, a.tr.InvalidCredentials)
	case errors.Is(err, api.ErrAuthenticationRejected):
		if lerr := a.Session.Logout(context.Background()); lerr != nil {
			a.log.Error("error clearing rejected token", "error", lerr)
		}
		notify.Error(a.notifier, a.tr.SessionExpired, a.tr.TokenNotFound)
	case errors.Is(err, api.ErrNetwork):
		notify.Error(a.notifier, a.tr.NetworkTitle, a.tr.ServerNotFound)
	case errors.As(err, &verr):
		notify.Error(a.notifier, a.tr.AttentionTitle, a.tr.MissingFields)
	default:
		notify.Error(a.notifier, a.tr.ErrorTitle, a.tr.ServerFailure)
	}
}
