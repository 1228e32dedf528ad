package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("SHEETCHART_JWT_SECRET", "secret")
	t.Setenv("SHEETCHART_DATABASE_URL", "postgres://localhost/sheetchart")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTPAddress())
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, 100, cfg.AdminRateLimit)
	require.Equal(t, 15*time.Minute, cfg.AdminRateWindow)
	require.Equal(t, time.Local, cfg.StatsLocation)
	require.Equal(t, 30*time.Second, cfg.Client.PollInterval)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("SHEETCHART_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("SHEETCHART_JWT_SECRET", "secret")
	t.Setenv("SHEETCHART_STATS_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadLocationNamedZone(t *testing.T) {
	location, err := LoadLocation("UTC")
	require.NoError(t, err)
	require.Equal(t, time.UTC, location)
}

func TestIsProductionIgnoresCase(t *testing.T) {
	require.True(t, Config{AppEnv: "Production"}.IsProduction())
	require.False(t, Config{AppEnv: "development"}.IsProduction())
}
