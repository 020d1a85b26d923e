// Package session holds the authentication token and the device location
// shared by every gasprice screen.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rubiojr/gasprice/internal/geo"
	"github.com/rubiojr/gasprice/internal/notify"
	"github.com/rubiojr/gasprice/internal/translations"
	"github.com/rubiojr/gasprice/pkg/api"
)

var (
	// ErrGeolocationDenied means the device refused to share its location.
	ErrGeolocationDenied = errors.New("geolocation permission denied")
	// ErrGeolocationFailure means the device position could not be read.
	ErrGeolocationFailure = errors.New("geolocation failure")
)

// CredentialStore persists the session token. An empty token means none.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Authenticator is the part of the remote API the gateway needs.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (string, error)
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}

// LocationLogger records the positions prices were looked up around.
type LocationLogger interface {
	LogSearchLocation(ctx context.Context, lat, lng, distance float64) error
}

// State is a snapshot of the authentication state.
type State struct {
	Token         string
	Authenticated bool
}

// Location is a snapshot of the device location. Coordinates are nil until
// the first successful fetch.
type Location struct {
	Latitude  *float64
	Longitude *float64
	Address   string
}

// HasCoordinates reports whether the location was fetched at least once.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Config wires a Gateway to its collaborators. Store, Auth and Locator are
// required.
type Config struct {
	Store        CredentialStore
	Auth         Authenticator
	Locator      geo.Locator
	Geocoder     geo.ReverseGeocoder
	LocationLog  LocationLogger
	Notifier     notify.Notifier
	Translations translations.Translations
	Logger       *slog.Logger
	// SearchRadius is logged with every fetched location, in meters.
	SearchRadius float64
}

// Gateway is the single owner of session and location state.
type Gateway struct {
	store    CredentialStore
	auth     Authenticator
	locator  geo.Locator
	geocoder geo.ReverseGeocoder
	locLog   LocationLogger
	notifier notify.Notifier
	tr       translations.Translations
	log      *slog.Logger
	radius   float64
	now      func() time.Time

	mu       sync.RWMutex
	state    State
	location Location
}

// New returns a Gateway.
func New(cfg Config) *Gateway {
	g := &Gateway{
		store:    cfg.Store,
		auth:     cfg.Auth,
		locator:  cfg.Locator,
		geocoder: cfg.Geocoder,
		locLog:   cfg.LocationLog,
		notifier: cfg.Notifier,
		tr:       cfg.Translations,
		log:      cfg.Logger,
		radius:   cfg.SearchRadius,
		now:      time.Now,
	}
	if g.notifier == nil {
		g.notifier = notify.Discard{}
	}
	if g.log == nil {
		g.log = slog.New(slog.DiscardHandler)
	}
	if g.tr == (translations.Translations{}) {
		g.tr = translations.GetTranslations("")
	}
	return g
}

// Token returns the persisted token, "" when unauthenticated.
func (g *Gateway) Token(ctx context.Context) (string, error) {
	token, err := g.store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("error reading token: %w", err)
	}

	g.mu.Lock()
	if token != g.state.Token {
		g.state = State{Token: token, Authenticated: token != ""}
	}
	g.mu.Unlock()
	return token, nil
}

// Validate reports whether token is still accepted. Tokens whose JWT exp
// claim is in the past are rejected without asking the server. When the
// token is rejected, or the server cannot be reached, the session is
// cleared.
func (g *Gateway) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	if expired(token, g.now()) {
		g.log.Info("session token expired")
		g.clear(ctx)
		return false
	}

	valid, err := g.auth.ValidateToken(ctx, token)
	if err != nil {
		g.log.Error("error validating token", "error", err)
		g.clear(ctx)
		return false
	}
	if !valid {
		g.log.Info("session token rejected")
		g.clear(ctx)
		return false
	}

	g.setToken(token)
	return true
}

// Restore loads the persisted token and validates it. It is the first
// thing the application does on start.
func (g *Gateway) Restore(ctx context.Context) State {
	token, err := g.Token(ctx)
	if err != nil {
		g.log.Error("error restoring session", "error", err)
		return g.State()
	}
	if token == "" {
		return g.State()
	}
	if !g.Validate(ctx, token) {
		notify.Info(g.notifier, g.tr.SessionExpired, g.tr.TokenNotFound)
	}
	return g.State()
}

// Login exchanges credentials for a token and persists it.
func (g *Gateway) Login(ctx context.Context, email, password string) (string, error) {
	token, err := g.auth.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	if err := g.persist(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// Register creates an account and persists its token.
func (g *Gateway) Register(ctx context.Context, name, email, password string) (string, error) {
	token, err := g.auth.Register(ctx, api.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return "", err
	}
	if err := g.persist(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// Logout discards the token. Clearing prices and location is up to the
// caller.
func (g *Gateway) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.state = State{}
	g.mu.Unlock()

	if err := g.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("error clearing token: %w", err)
	}
	return nil
}

// ClearLocation forgets the device location.
func (g *Gateway) ClearLocation() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.location = Location{}
}

// FetchLocation reads the device position and reverse geocodes it. A
// denied permission returns ErrGeolocationDenied and a failed position
// read ErrGeolocationFailure, both after notifying the user and without
// touching the current location. A failed reverse geocode still updates
// the coordinates and keeps the previous address.
func (g *Gateway) FetchLocation(ctx context.Context) (Location, error) {
	lat, lng, err := g.locator.Locate(ctx)
	if errors.Is(err, geo.ErrPermissionDenied) {
		notify.Info(g.notifier, g.tr.AttentionTitle, g.tr.LocationPermission)
		return g.Location(), ErrGeolocationDenied
	}
	if err != nil {
		g.log.Error("error getting location", "error", err)
		notify.Error(g.notifier, g.tr.ErrorTitle, g.tr.LocationFailure)
		return g.Location(), fmt.Errorf("%w: %w", ErrGeolocationFailure, err)
	}

	address, addrErr := g.reverseGeocode(ctx, lat, lng)

	g.mu.Lock()
	g.location.Latitude = &lat
	g.location.Longitude = &lng
	if addrErr == nil {
		g.location.Address = address
	}
	loc := g.location
	g.mu.Unlock()

	if addrErr != nil {
		g.log.Error("error reverse geocoding location", "error", addrErr)
		notify.Error(g.notifier, g.tr.ErrorTitle, g.tr.AddressFailure)
	}

	if g.locLog != nil {
		if err := g.locLog.LogSearchLocation(ctx, lat, lng, g.radius); err != nil {
			g.log.Warn("error logging search location", "error", err)
		}
	}
	return loc, nil
}

// Location returns the current location snapshot.
func (g *Gateway) Location() Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.location
}

// State returns the current authentication snapshot.
func (g *Gateway) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gateway) reverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if g.geocoder == nil {
		return "", errors.New("no reverse geocoder configured")
	}
	addr, err := g.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

func (g *Gateway) persist(ctx context.Context, token string) error {
	if err := g.store.SetToken(ctx, token); err != nil {
		return fmt.Errorf("error saving token: %w", err)
	}
	g.setToken(token)
	return nil
}

func (g *Gateway) setToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = State{Token: token, Authenticated: true}
}

func (g *Gateway) clear(ctx context.Context) {
	g.mu.Lock()
	g.state = State{}
	g.mu.Unlock()

	if err := g.store.ClearToken(ctx); err != nil {
		g.log.Error("error clearing token", "error", err)
	}
}

// expired reports whether token is a JWT whose exp claim is before now.
// Tokens that are not JWTs, or carry no exp, are left to the server.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now)
}
