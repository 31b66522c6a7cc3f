package main

import (
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/sartorproj/marketcast/config"
	"github.com/sartorproj/marketcast/pipeline"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	envFile := flag.String("env", "", "path to a .env file (default: ./.env if present)")
	dataDir := flag.String("data", "", "input data directory (overrides config)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	quiet := flag.Bool("quiet", false, "do not print tables to stdout")
	flag.Parse()

	var envErr error
	if *envFile != "" {
		envErr = config.LoadEnv(*envFile)
	} else {
		envErr = config.LoadEnv()
	}
	if envErr != nil {
		slog.Error("failed to load env file", "err", envErr, "path", *envFile)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	slog.Info("marketcast starting",
		"config", *configPath,
		"data", cfg.Data.Dir,
		"stride", cfg.Resample.Stride,
		"arima", []int{cfg.ARIMA.P, cfg.ARIMA.D, cfg.ARIMA.Q},
		"var_lags", cfg.VAR.Lags,
		"horizon", cfg.Forecast.Horizon,
	)

	var tables io.Writer
	if !*quiet {
		tables = os.Stdout
	}

	res, err := pipeline.New(cfg, slog.Default(), tables).Run()
	if err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
	slog.Info("marketcast finished", "run_id", res.RunID, "output", res.OutputDir, "files", len(res.Files))
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
