package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/marketcast/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Resample.Stride)
	assert.Equal(t, []int{2, 1, 1}, []int{cfg.ARIMA.P, cfg.ARIMA.D, cfg.ARIMA.Q})
	assert.Equal(t, 2, cfg.VAR.Lags)
	assert.Equal(t, 20, cfg.Forecast.Horizon)
	assert.Equal(t, 60, cfg.Forecast.History)
	assert.Equal(t, 0.95, cfg.Forecast.Level)
	assert.Equal(t, 24, cfg.Diagnostics.MaxLag)
	assert.Equal(t, 7, cfg.Diagnostics.MaxAR)
	assert.Equal(t, 13, cfg.Diagnostics.MaxMA)
	assert.Equal(t, 5, cfg.ARIMA.Auto.MaxP)
	assert.Equal(t, 2, cfg.ARIMA.Auto.MaxD)
	assert.Equal(t, "aic", cfg.ARIMA.Auto.Criterion)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "png", cfg.Output.PlotFormat)
	assert.True(t, cfg.Output.ExportCSV)
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
data:
  dir: /srv/market
  vix:
    file: vix_daily.csv
resample:
  stride: 10
arima:
  p: 0
  d: 1
  q: 2
forecast:
  horizon: 12
output:
  plot_format: svg
  export_csv: false
log:
  level: debug
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Resample.Stride)
	assert.Equal(t, 0, cfg.ARIMA.P)
	assert.Equal(t, 2, cfg.ARIMA.Q)
	assert.Equal(t, 12, cfg.Forecast.Horizon)
	assert.Equal(t, 60, cfg.Forecast.History)
	assert.Equal(t, "svg", cfg.Output.PlotFormat)
	assert.False(t, cfg.Output.ExportCSV)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	src := cfg.Sources()
	assert.Equal(t, filepath.Join("/srv/market", "vix_daily.csv"), src.VIX.Path)
	assert.Equal(t, "Date", src.VIX.DateColumn)
	assert.Equal(t, []string{"Close", "Volume"}, src.Gold.Columns)
	assert.Equal(t, "date", src.Sentiment.DateColumn)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "resample: [1, 2")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARKETCAST_DATA_DIR", "/data/in")
	t.Setenv("MARKETCAST_OUTPUT_DIR", "/data/out")
	t.Setenv("MARKETCAST_STRIDE", "3")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.Data.Dir)
	assert.Equal(t, "/data/out", cfg.Output.Dir)
	assert.Equal(t, 3, cfg.Resample.Stride)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, filepath.Join("/data/in", "usdjpy.csv"), cfg.Sources().Exchange.Path)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "MARKETCAST_OUTPUT_DIR"
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})

	env := writeFile(t, ".env", key+"=/from/dotenv\n")
	require.NoError(t, config.LoadEnv(env))

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Output.Dir)

	assert.Error(t, config.LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadEnvDefaultFile(t *testing.T) {
	t.Run("absent file is ignored", func(t *testing.T) {
		chdir(t, t.TempDir())
		assert.NoError(t, config.LoadEnv())
	})

	t.Run("malformed file is reported", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MARKETCAST_BROKEN=\"unterminated\n"), 0o600))
		chdir(t, dir)

		err := config.LoadEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config.LoadEnv")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero stride", func(c *config.Config) { c.Resample.Stride = 0 }},
		{"negative order", func(c *config.Config) { c.ARIMA.D = -1 }},
		{"zero var lags", func(c *config.Config) { c.VAR.Lags = 0 }},
		{"single var series", func(c *config.Config) { c.VAR.Series = []string{"VIX.Close"} }},
		{"no arima series", func(c *config.Config) { c.ARIMA.Series = nil }},
		{"unknown series", func(c *config.Config) { c.ARIMA.Series = []string{"Oil.Price"} }},
		{"day is not a series", func(c *config.Config) { c.Diagnostics.Series = []string{"Day"} }},
		{"level out of range", func(c *config.Config) { c.Forecast.Level = 1.2 }},
		{"compare not in var", func(c *config.Config) { c.Forecast.Compare = "Gold.Price" }},
		{"bad plot format", func(c *config.Config) { c.Output.PlotFormat = "gif" }},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, config.Default().Validate())
}
