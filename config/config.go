// Package config loads the run configuration from a YAML file, an optional
// .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/marketcast/dataset"
)

// Config is the complete run configuration.
type Config struct {
	Data        DataConfig        `yaml:"data"`
	Resample    ResampleConfig    `yaml:"resample"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	ARIMA       ARIMAConfig       `yaml:"arima"`
	VAR         VARConfig         `yaml:"var"`
	Forecast    ForecastConfig    `yaml:"forecast"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
}

// DataConfig locates the four input files.
type DataConfig struct {
	Dir       string       `yaml:"dir"`
	Exchange  SourceConfig `yaml:"exchange"`
	Gold      SourceConfig `yaml:"gold"`
	VIX       SourceConfig `yaml:"vix"`
	Sentiment SourceConfig `yaml:"sentiment"`
}

// SourceConfig names one CSV file and its columns. File is relative to
// DataConfig.Dir unless absolute.
type SourceConfig struct {
	File       string   `yaml:"file"`
	DateColumn string   `yaml:"date_column"`
	Columns    []string `yaml:"columns"`
}

// ResampleConfig controls downsampling of the merged table.
type ResampleConfig struct {
	Stride int `yaml:"stride"` // keep every Kth trading day
}

// DiagnosticsConfig sizes the identification summaries.
type DiagnosticsConfig struct {
	Series     []string `yaml:"series"`
	MaxLag     int      `yaml:"max_lag"`
	MaxAR      int      `yaml:"max_ar"`
	MaxMA      int      `yaml:"max_ma"`
	Difference bool     `yaml:"difference"`
}

// ARIMAConfig is the hand-picked order and the bounds of the automatic
// comparison search.
type ARIMAConfig struct {
	Series []string   `yaml:"series"`
	P      int        `yaml:"p"`
	D      int        `yaml:"d"`
	Q      int        `yaml:"q"`
	Auto   AutoConfig `yaml:"auto"`
}

// AutoConfig controls the automatic order search.
type AutoConfig struct {
	Enabled   bool   `yaml:"enabled"`
	MaxP      int    `yaml:"max_p"`
	MaxD      int    `yaml:"max_d"`
	MaxQ      int    `yaml:"max_q"`
	Stepwise  bool   `yaml:"stepwise"`
	Criterion string `yaml:"criterion"` // aic | aicc | bic
	Test      string `yaml:"test"`      // kpss | adf
}

// VARConfig is the jointly modelled series and the lag order.
type VARConfig struct {
	Series  []string `yaml:"series"`
	Lags    int      `yaml:"lags"`
	MaxLags int      `yaml:"max_lags"` // lag selection table, 0 disables it
	Granger bool     `yaml:"granger"`
}

// ForecastConfig controls the forecast horizon and plotting window.
type ForecastConfig struct {
	Horizon int     `yaml:"horizon"`
	Level   float64 `yaml:"level"`
	History int     `yaml:"history"` // observed rows drawn before the forecast
	Compare string  `yaml:"compare"` // series whose ARIMA and VAR intervals are compared
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	PlotFormat string `yaml:"plot_format"` // png | svg
	ExportCSV  bool   `yaml:"export_csv"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir:       "data",
			Exchange:  SourceConfig{File: "usdjpy.csv", DateColumn: "Date", Columns: []string{"Close"}},
			Gold:      SourceConfig{File: "gold.csv", DateColumn: "Date", Columns: []string{"Close", "Volume"}},
			VIX:       SourceConfig{File: "vix.csv", DateColumn: "Date", Columns: []string{"Close"}},
			Sentiment: SourceConfig{File: "news_sentiment.csv", DateColumn: "date", Columns: []string{"News.Sentiment"}},
		},
		Resample: ResampleConfig{Stride: 5},
		Diagnostics: DiagnosticsConfig{
			Series:     []string{dataset.ColVIXClose, dataset.ColGoldPrice},
			MaxLag:     24,
			MaxAR:      7,
			MaxMA:      13,
			Difference: true,
		},
		ARIMA: ARIMAConfig{
			Series: []string{dataset.ColVIXClose, dataset.ColGoldPrice},
			P:      2,
			D:      1,
			Q:      1,
			Auto: AutoConfig{
				Enabled:   true,
				MaxP:      5,
				MaxD:      2,
				MaxQ:      5,
				Stepwise:  true,
				Criterion: "aic",
				Test:      "kpss",
			},
		},
		VAR: VARConfig{
			Series:  []string{dataset.ColVIXClose, dataset.ColNewsSentiment},
			Lags:    2,
			MaxLags: 8,
			Granger: true,
		},
		Forecast: ForecastConfig{
			Horizon: 20,
			Level:   0.95,
			History: 60,
			Compare: dataset.ColVIXClose,
		},
		Output: OutputConfig{
			Dir:        "out",
			PlotFormat: "png",
			ExportCSV:  true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// LoadEnv loads .env style files into the environment without overriding
// variables that are already set. With no arguments it reads ./.env and
// ignores its absence.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config.LoadEnv: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("config.LoadEnv: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARKETCAST_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("MARKETCAST_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("MARKETCAST_STRIDE"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Resample.Stride = k
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills values that were left empty or set to zero where zero
// has no meaning.
func setDefaults(cfg *Config) {
	def := Default()
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = def.Data.Dir
	}
	fillSource(&cfg.Data.Exchange, def.Data.Exchange)
	fillSource(&cfg.Data.Gold, def.Data.Gold)
	fillSource(&cfg.Data.VIX, def.Data.VIX)
	fillSource(&cfg.Data.Sentiment, def.Data.Sentiment)

	if cfg.Diagnostics.MaxLag <= 0 {
		cfg.Diagnostics.MaxLag = def.Diagnostics.MaxLag
	}
	if cfg.Forecast.Horizon <= 0 {
		cfg.Forecast.Horizon = def.Forecast.Horizon
	}
	if cfg.Forecast.Level == 0 {
		cfg.Forecast.Level = def.Forecast.Level
	}
	if cfg.Forecast.History <= 0 {
		cfg.Forecast.History = def.Forecast.History
	}
	if cfg.ARIMA.Auto.Criterion == "" {
		cfg.ARIMA.Auto.Criterion = def.ARIMA.Auto.Criterion
	}
	if cfg.ARIMA.Auto.Test == "" {
		cfg.ARIMA.Auto.Test = def.ARIMA.Auto.Test
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = def.Output.Dir
	}
	if cfg.Output.PlotFormat == "" {
		cfg.Output.PlotFormat = def.Output.PlotFormat
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

func fillSource(s *SourceConfig, def SourceConfig) {
	if s.File == "" {
		s.File = def.File
	}
	if s.DateColumn == "" {
		s.DateColumn = def.DateColumn
	}
	if len(s.Columns) == 0 {
		s.Columns = def.Columns
	}
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Resample.Stride < 1 {
		return fmt.Errorf("resample.stride must be at least 1, got %d", c.Resample.Stride)
	}
	if c.ARIMA.P < 0 || c.ARIMA.D < 0 || c.ARIMA.Q < 0 {
		return fmt.Errorf("arima order (%d,%d,%d) must be non-negative", c.ARIMA.P, c.ARIMA.D, c.ARIMA.Q)
	}
	if c.VAR.Lags < 1 {
		return fmt.Errorf("var.lags must be at least 1, got %d", c.VAR.Lags)
	}
	if c.VAR.MaxLags < 0 {
		return fmt.Errorf("var.max_lags must not be negative, got %d", c.VAR.MaxLags)
	}
	if len(c.VAR.Series) < 2 {
		return fmt.Errorf("var.series needs at least two columns, got %d", len(c.VAR.Series))
	}
	if len(c.ARIMA.Series) == 0 {
		return errors.New("arima.series is required")
	}
	for _, list := range [][]string{c.Diagnostics.Series, c.ARIMA.Series, c.VAR.Series} {
		for _, name := range list {
			if _, ok := (dataset.Record{}).Value(name); !ok || name == dataset.ColDay {
				return fmt.Errorf("unknown series %q", name)
			}
		}
	}
	if c.Forecast.Level <= 0 || c.Forecast.Level >= 1 {
		return fmt.Errorf("forecast.level must be in (0, 1), got %v", c.Forecast.Level)
	}
	if c.Forecast.Compare != "" {
		if !slices.Contains(c.ARIMA.Series, c.Forecast.Compare) || !slices.Contains(c.VAR.Series, c.Forecast.Compare) {
			return fmt.Errorf("forecast.compare %q must be modelled by both ARIMA and VAR", c.Forecast.Compare)
		}
	}
	switch c.Output.PlotFormat {
	case "png", "svg":
	default:
		return fmt.Errorf("output.plot_format must be png or svg, got %q", c.Output.PlotFormat)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Sources resolves the input files against the data directory.
func (c *Config) Sources() dataset.Sources {
	src := func(s SourceConfig) dataset.Source {
		path := s.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Data.Dir, path)
		}
		return dataset.Source{
			Path:       path,
			DateColumn: s.DateColumn,
			Columns:    append([]string(nil), s.Columns...),
		}
	}
	return dataset.Sources{
		Exchange:  src(c.Data.Exchange),
		Gold:      src(c.Data.Gold),
		VIX:       src(c.Data.VIX),
		Sentiment: src(c.Data.Sentiment),
	}
}
