package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 50, cfg.Server.RateLimitPerMinute)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "readzone-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)

	require.Equal(t, 45, cfg.Maintenance.NotificationRetentionDays)
	require.Equal(t, 14, cfg.Maintenance.ContentRetentionDays)
	require.Equal(t, "@hourly", cfg.Maintenance.NotificationSchedule)
	// unset keys keep their defaults
	require.Equal(t, "@daily", cfg.Maintenance.ContentSchedule)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, 100, cfg.Server.RateLimitPerMinute)
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/readzone.sqlite", cfg.Database.Path)

	require.Equal(t, "readzone", cfg.Auth.JWT.Issuer)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Empty(t, cfg.Auth.JWT.Secret)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, 90, cfg.Maintenance.NotificationRetentionDays)
	require.Equal(t, 30, cfg.Maintenance.ContentRetentionDays)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("READZONE_SERVER_PORT", "7070")
	t.Setenv("READZONE_DATABASE_DRIVER", "mysql")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "mysql", cfg.Database.Driver)
}

func TestDatabaseSettings(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "readzone"

	settings := cfg.DatabaseSettings()
	require.Equal(t, "postgres", settings.Driver)
	require.Equal(t, "localhost", settings.Host)
	require.Equal(t, 5432, settings.Port)
	require.Equal(t, "readzone", settings.Name)
}
