package pipeline_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/marketcast/config"
	"github.com/sartorproj/marketcast/dataset"
	"github.com/sartorproj/marketcast/pipeline"
)

type gauss uint64

func (g *gauss) norm() float64 {
	next := func() float64 {
		*g = *g*6364136223846793005 + 1442695040888963407
		return float64(uint64(*g)>>11) / (1 << 53)
	}
	u1, u2 := next(), next()
	return math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)
}

// writeMarket writes n weekdays of synthetic sources into dir. One gold row
// lacks a volume and one trading day has no sentiment score.
func writeMarket(t *testing.T, dir string, n int) {
	t.Helper()
	g := gauss(42)

	var ex, gold, vix, sent strings.Builder
	ex.WriteString("Date,Open,Close\n")
	gold.WriteString("Date,Close,Volume\n")
	vix.WriteString("Date,Close\n")
	sent.WriteString("date,News.Sentiment\n")

	day := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	usdjpy, price, level := 144.0, 400.0, 0.0
	for i := 0; i < n; i++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		usdjpy += 0.5 * g.norm()
		price += 2 * g.norm()
		level = 0.9*level + g.norm()
		score := 0.05*level/3 + 0.05*g.norm()

		m := day.Format(dataset.MarketDateLayout)
		fmt.Fprintf(&ex, "%s,%.3f,%.3f\n", m, usdjpy, usdjpy)
		if i == 10 {
			fmt.Fprintf(&gold, "%s,%.2f,\n", m, price)
		} else {
			fmt.Fprintf(&gold, "%s,%.2f,%d\n", m, price, 1000+i)
		}
		fmt.Fprintf(&vix, "%s,%.2f\n", m, 20+level)
		if i != 20 {
			fmt.Fprintf(&sent, "%s,%.4f\n", day.Format(dataset.SentimentDateLayout), score)
		}
		day = day.AddDate(0, 0, 1)
	}

	files := map[string]string{
		"usdjpy.csv":         ex.String(),
		"gold.csv":           gold.String(),
		"vix.csv":            vix.String(),
		"news_sentiment.csv": sent.String(),
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.PlotFormat = "svg"
	cfg.ARIMA.Auto.MaxP = 2
	cfg.ARIMA.Auto.MaxQ = 2
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	writeMarket(t, cfg.Data.Dir, 400)

	var logs, tables bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := pipeline.New(cfg, logger, &tables).Run()
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, res.RunID), res.OutputDir)
	assert.Contains(t, logs.String(), `"run_id":"`+res.RunID+`"`)

	assert.Equal(t, 398, res.Merged.Len())
	assert.Equal(t, 1, res.MergeStats.DroppedMarket)
	assert.Equal(t, 1, res.MergeStats.DroppedSentiment)
	assert.Equal(t, 80, res.Resampled.Len())
	for i, d := range res.Resampled.Days() {
		assert.Equal(t, 1+5*i, d)
	}

	require.Contains(t, res.Diagnostics, dataset.ColVIXClose)
	require.Contains(t, res.Diagnostics, dataset.ColGoldPrice)
	assert.NotNil(t, res.Diagnostics[dataset.ColVIXClose].Difference)

	require.Contains(t, res.ARIMA, dataset.ColVIXClose)
	assert.Equal(t, "ARIMA(2,1,1)", res.ARIMA[dataset.ColGoldPrice].Order.String())
	assert.Contains(t, res.Auto, dataset.ColGoldPrice)

	require.NotNil(t, res.VAR)
	assert.Equal(t, []string{dataset.ColVIXClose, dataset.ColNewsSentiment}, res.VAR.Names)
	require.NotNil(t, res.LagSel)
	assert.Len(t, res.LagSel.Lags, cfg.VAR.MaxLags)
	assert.Len(t, res.Granger, 2)

	assert.Len(t, res.Forecasts, 4)
	f := res.Forecast("ARIMA", dataset.ColVIXClose)
	require.NotNil(t, f)
	require.Equal(t, 20, f.Len())
	assert.Equal(t, res.Resampled.LastDay()+5, f.Points[0].Day)
	assert.Equal(t, res.Resampled.LastDay()+100, f.Points[19].Day)
	hw := f.HalfWidths()
	for i := 1; i < len(hw); i++ {
		assert.GreaterOrEqual(t, hw[i], hw[i-1]-1e-9)
	}

	require.Len(t, res.HalfWidths, 20)
	assert.Equal(t, f.Points[0].Day, res.HalfWidths[0].Day)

	for _, name := range []string{"report.txt", "merged.csv", "resampled.csv", "vix_close_series.svg",
		"diff_vix_close_acf.svg", "gold_price_qq.svg", "vix_close_forecast_arima.svg", "news_sentiment_forecast_var.svg"} {
		assert.FileExists(t, filepath.Join(res.OutputDir, name))
	}
	assert.Contains(t, res.Files, filepath.Join(res.OutputDir, "report.txt"))

	written, err := os.ReadFile(filepath.Join(res.OutputDir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, tables.String(), string(written))
	assert.Contains(t, tables.String(), "Interval half-widths")
	assert.Contains(t, tables.String(), "Granger causality")
}

func TestRunWithoutExtras(t *testing.T) {
	cfg := testConfig(t)
	cfg.ARIMA.Auto.Enabled = false
	cfg.VAR.MaxLags = 0
	cfg.VAR.Granger = false
	cfg.Output.ExportCSV = false
	cfg.Diagnostics.Series = nil
	cfg.Forecast.Compare = ""
	writeMarket(t, cfg.Data.Dir, 200)

	res, err := pipeline.New(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil).Run()
	require.NoError(t, err)

	assert.Empty(t, res.Auto)
	assert.Nil(t, res.LagSel)
	assert.Nil(t, res.Granger)
	assert.Nil(t, res.HalfWidths)
	assert.NoFileExists(t, filepath.Join(res.OutputDir, "merged.csv"))
}

func TestRunDefaultConfigShortSample(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	cfg.Output.Dir = t.TempDir()
	// 102 weekdays leave 100 merged rows and 20 after resampling, fewer than
	// the default lag search of 8 needs.
	writeMarket(t, cfg.Data.Dir, 102)

	res, err := pipeline.New(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil).Run()
	require.NoError(t, err)

	assert.Equal(t, 20, res.Resampled.Len())
	require.NotNil(t, res.LagSel)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, res.LagSel.Lags)
	assert.Len(t, res.HalfWidths, cfg.Forecast.Horizon)
}

func TestRunErrors(t *testing.T) {
	t.Run("missing data", func(t *testing.T) {
		cfg := testConfig(t)
		_, err := pipeline.New(cfg, nil, nil).Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Resample.Stride = 0
		_, err := pipeline.New(cfg, nil, nil).Run()
		assert.Error(t, err)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := pipeline.New(nil, nil, nil).Run()
		assert.Error(t, err)
	})

	t.Run("too little data for the model", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Diagnostics.Series = nil
		writeMarket(t, cfg.Data.Dir, 30)
		_, err := pipeline.New(cfg, nil, nil).Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "arima")
	})
}
