package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://gas-price-api.vercel.app", cfg.APIURL)
	assert.Equal(t, "gasprice.db", cfg.DBPath)
	assert.Equal(t, "pt", cfg.Language)
	assert.Equal(t, 5.0, cfg.RadiusKm)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.HasLocation())
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"GASPRICE_API_URL=http://localhost:3000\n"+
			"GASPRICE_LAT=-23.55\n"+
			"GASPRICE_LNG=-46.63\n"+
			"GASPRICE_HTTP_TIMEOUT=5s\n",
	), 0o600))

	// godotenv never overrides variables already set
	t.Setenv("GASPRICE_HTTP_TIMEOUT", "10s")
	t.Cleanup(func() {
		os.Unsetenv("GASPRICE_API_URL")
		os.Unsetenv("GASPRICE_LAT")
		os.Unsetenv("GASPRICE_LNG")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.APIURL)
	require.True(t, cfg.HasLocation())
	assert.Equal(t, -23.55, *cfg.Latitude)
	assert.Equal(t, -46.63, *cfg.Longitude)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}

func TestValidate(t *testing.T) {
	lat := 10.0
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.APIURL = "not a url" }},
		{"empty db", func(c *Config) { c.DBPath = "" }},
		{"zero radius", func(c *Config) { c.RadiusKm = 0 }},
		{"zero retention", func(c *Config) { c.RetentionDays = 0 }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"lat without lng", func(c *Config) { c.Latitude = &lat }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				APIURL:        "https://example.com",
				DBPath:        "x.db",
				RadiusKm:      1,
				RetentionDays: 1,
				HTTPTimeout:   time.Second,
			}
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
