package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, DriverNeo4j, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Graph.MaxConnections)
	assert.True(t, cfg.Graph.EnsureSchema)
	assert.Equal(t, 15*time.Second, cfg.Graph.MaxRetryTime)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2500, cfg.Reporting.ScopeLimit)
	assert.Equal(t, 62, cfg.Reporting.TrendCap)
	assert.Equal(t, "this_month", cfg.Reporting.DefaultPreset)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("STORE_DRIVER", " Postgres ")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/agency")
	t.Setenv("REPORT_TIMEZONE", "America/Chicago")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/agency", cfg.Postgres.DSN)
	assert.Equal(t, "json", cfg.Logging.Format)

	loc, err := cfg.Reporting.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port out of range", key: "SERVER_PORT", val: "70000"},
		{name: "port not a number", key: "SERVER_PORT", val: "http"},
		{name: "unknown driver", key: "STORE_DRIVER", val: "mongo"},
		{name: "bad timezone", key: "REPORT_TIMEZONE", val: "Mars/Olympus"},
		{name: "zero scope limit", key: "REPORT_SCOPE_LIMIT", val: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", "")
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
http:
  port: 7070
store:
  driver: memory
  dataset_dir: ./seed
reporting:
  timezone: Europe/Berlin
  trend_cap: 31
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "./seed", cfg.Store.DatasetDir)
	assert.Equal(t, 31, cfg.Reporting.TrendCap)
	assert.Equal(t, 2500, cfg.Reporting.ScopeLimit, "defaults still apply to missing keys")
}

func TestReportingLocation_BlankIsUTC(t *testing.T) {
	loc, err := ReportingConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
