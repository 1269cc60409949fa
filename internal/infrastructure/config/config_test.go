package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "logging:\n  level: info\n"))
	require.NoError(t, err)

	params, err := cfg.Labeling.Params()
	require.NoError(t, err)

	assert.Equal(t, raster.DefaultParams(), params)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, ".tif", cfg.Batch.FileExtension)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "/tmp/floodfill-daemon.sock", cfg.Daemon.SocketPath)

	window, err := cfg.Labeling.BurnWindow()
	require.NoError(t, err)
	assert.Equal(t, raster.DefaultBurnWindow(), window)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
labeling:
  adjacency: 4
  cut_off: 0
  temporal_mode: seed
batch:
  workers: 6
  file_extension: .tiff
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	params, err := cfg.Labeling.Params()
	require.NoError(t, err)
	assert.Equal(t, raster.Adjacency4, params.Adjacency)
	assert.Equal(t, 0, params.Window)
	assert.Equal(t, raster.TemporalSeed, params.Mode)
	assert.Equal(t, 6, cfg.Batch.Workers)
	assert.Equal(t, ".tiff", cfg.Batch.FileExtension)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "batch:\n  workers: 2\n")
	t.Setenv("FF_BATCH_WORKERS", "5")
	t.Setenv("FF_LABELING_SPATIAL_ONLY", "true")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Batch.Workers)
	assert.True(t, cfg.Labeling.SpatialOnly)
}

func TestLoadConfig_InvalidValuesAreConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown adjacency", "labeling:\n  adjacency: 6\n"},
		{"negative cut-off", "labeling:\n  cut_off: -3\n"},
		{"negative workers", "batch:\n  workers: -1\n"},
		{"inverted burn window", "labeling:\n  lower_value: 200\n  upper_value: 100\n"},
		{"unionfind with seed mode", "labeling:\n  strategy: unionfind\n  temporal_mode: seed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))

			require.Error(t, err)
			assert.True(t, shared.IsConfigError(err), "expected ConfigError, got %v", err)
		})
	}
}

func TestLoadConfigOrDefault_FallsBack(t *testing.T) {
	cfg := config.LoadConfigOrDefault(writeConfig(t, "batch:\n  workers: -4\n"))

	assert.Equal(t, 1, cfg.Batch.Workers)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		want     string
		inMemory bool
	}{
		{"sqlite file", config.DatabaseConfig{Type: "sqlite", Path: "runs.db"}, "runs.db", false},
		{"sqlite memory", config.DatabaseConfig{Type: "sqlite"}, ":memory:", true},
		{"postgres url", config.DatabaseConfig{Type: "postgres", URL: "postgresql://u:p@db/ff"}, "postgresql://u:p@db/ff", false},
		{
			"postgres fields",
			config.DatabaseConfig{Type: "postgres", Host: "db", Port: 5432, User: "ff", Password: "pw", Name: "runs", SSLMode: "disable"},
			"host=db port=5432 user=ff password=pw dbname=runs sslmode=disable",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
			assert.Equal(t, tt.inMemory, tt.cfg.InMemory())
		})
	}
}

func TestMetricsConfig_Endpoint(t *testing.T) {
	cfg := config.MetricsConfig{Host: "localhost", Port: 9464, Path: "/metrics"}

	assert.Equal(t, "localhost:9464", cfg.Address())
	assert.Equal(t, "http://localhost:9464/metrics", cfg.Endpoint())
}

func TestValidator_NamesConfigKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Batch.Workers = 0

	err := config.ValidateConfig(cfg)

	var configErr *shared.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "batch.workers", configErr.Field)
	assert.Contains(t, err.Error(), "min=1")
}
