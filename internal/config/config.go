// Package config loads gasprice settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. GASPRICE_API_URL.
const Prefix = "GASPRICE"

// Config holds every tunable of the client.
type Config struct {
	APIURL          string        `envconfig:"API_URL" default:"https://gas-price-api.vercel.app"`
	DBPath          string        `envconfig:"DB" default:"gasprice.db"`
	GoogleAPIKey    string        `envconfig:"GOOGLE_API_KEY"`
	NominatimServer string        `envconfig:"NOMINATIM_SERVER" default:"https://nominatim.openstreetmap.org/"`
	Language        string        `envconfig:"LANG" default:"pt"`
	Latitude        *float64      `envconfig:"LAT"`
	Longitude       *float64      `envconfig:"LNG"`
	RadiusKm        float64       `envconfig:"RADIUS_KM" default:"5"`
	RetentionDays   int           `envconfig:"RETENTION_DAYS" default:"30"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
}

// Load reads the optional env file (".env" when envFile is empty) and then
// the environment. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", c.APIURL)
	}
	if c.DBPath == "" {
		return errors.New("database path cannot be empty")
	}
	if c.RadiusKm <= 0 {
		return fmt.Errorf("radius must be positive, got %g", c.RadiusKm)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention must be at least one day, got %d", c.RetentionDays)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got %s", c.HTTPTimeout)
	}
	if (c.Latitude == nil) != (c.Longitude == nil) {
		return errors.New("latitude and longitude must be set together")
	}
	if c.Latitude != nil && (*c.Latitude < -90 || *c.Latitude > 90) {
		return fmt.Errorf("latitude out of range: %g", *c.Latitude)
	}
	if c.Longitude != nil && (*c.Longitude < -180 || *c.Longitude > 180) {
		return fmt.Errorf("longitude out of range: %g", *c.Longitude)
	}
	return nil
}

// HasLocation reports whether a fixed device location is configured.
func (c *Config) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}
