// Package pipeline runs one batch analysis: load, merge, resample, diagnose,
// fit, forecast and report. Any error stops the run.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/plot"

	"github.com/sartorproj/marketcast/arima"
	"github.com/sartorproj/marketcast/autoarima"
	"github.com/sartorproj/marketcast/config"
	"github.com/sartorproj/marketcast/dataset"
	"github.com/sartorproj/marketcast/diagnostics"
	"github.com/sartorproj/marketcast/forecast"
	"github.com/sartorproj/marketcast/report"
	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/timeseries"
	"github.com/sartorproj/marketcast/varmodel"
)

// Result collects everything one run produced.
type Result struct {
	RunID     string
	OutputDir string

	MergeStats dataset.MergeStats
	Merged     *dataset.Table
	Resampled  *dataset.Table

	Diagnostics map[string]*diagnostics.Report
	ARIMA       map[string]*arima.Model
	Auto        map[string]*autoarima.Result
	VAR         *varmodel.Model
	LagSel      *varmodel.LagSelection
	Granger     []*varmodel.GrangerResult

	Forecasts  []*forecast.Result
	HalfWidths []report.HalfWidthRow

	// Files lists every file written, in order.
	Files []string
}

// Forecast returns the forecast of series by the model whose label starts
// with prefix ("ARIMA" or "VAR").
func (r *Result) Forecast(prefix, series string) *forecast.Result {
	for _, f := range r.Forecasts {
		if f.Series == series && strings.HasPrefix(f.Model, prefix) {
			return f
		}
	}
	return nil
}

// Pipeline runs the analysis described by a configuration.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// New creates a pipeline. Tables are copied to out when it is not nil;
// a nil logger uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger, out io.Writer) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger, out: out}
}

// run carries the state of one execution.
type run struct {
	cfg    *config.Config
	log    *slog.Logger
	res    *Result
	tables io.Writer
	plots  report.PlotOptions
	days   []int
}

// Run executes every step in order and returns the collected results.
func (p *Pipeline) Run() (*Result, error) {
	if p.cfg == nil {
		return nil, errors.New("pipeline.Run: nil config")
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline.Run: invalid config: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(p.cfg.Output.Dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline.Run: create output dir: %w", err)
	}

	reportPath := filepath.Join(dir, "report.txt")
	file, err := os.Create(reportPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	defer file.Close()

	var tables io.Writer = file
	if p.out != nil {
		tables = io.MultiWriter(file, p.out)
	}

	plots := report.DefaultPlotOptions()
	plots.Format = p.cfg.Output.PlotFormat

	r := &run{
		cfg:    p.cfg,
		log:    p.logger.With("run_id", id),
		tables: tables,
		plots:  plots,
		res: &Result{
			RunID:       id,
			OutputDir:   dir,
			Diagnostics: make(map[string]*diagnostics.Report),
			ARIMA:       make(map[string]*arima.Model),
			Auto:        make(map[string]*autoarima.Result),
			Files:       []string{reportPath},
		},
	}
	r.log.Info("pipeline: run started", "output", dir)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"load", r.load},
		{"diagnostics", r.diagnose},
		{"arima", r.fitARIMA},
		{"var", r.fitVAR},
		{"forecast", r.predict},
		{"compare", r.compare},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			r.log.Error("pipeline: step failed", "step", s.name, "err", err)
			return nil, fmt.Errorf("pipeline.Run: %s: %w", s.name, err)
		}
	}

	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	r.log.Info("pipeline: run finished", "files", len(r.res.Files))
	return r.res, nil
}

func (r *run) load() error {
	raw, err := dataset.Load(r.cfg.Sources())
	if err != nil {
		return err
	}
	r.log.Info("pipeline: loaded sources",
		"exchange", raw.Exchange.Len(),
		"gold", raw.Gold.Len(),
		"vix", raw.VIX.Len(),
		"sentiment", raw.Sentiment.Len(),
	)

	merged, counts, err := dataset.Merge(raw)
	if err != nil {
		return err
	}
	r.res.Merged, r.res.MergeStats = merged, counts
	r.log.Info("pipeline: merged",
		"joined", counts.Joined,
		"dropped_market", counts.DroppedMarket,
		"dropped_sentiment", counts.DroppedSentiment,
		"rows", counts.Kept,
	)
	if merged.Len() == 0 {
		return errors.New("no complete rows after merging")
	}

	resampled, err := dataset.Resample(merged, r.cfg.Resample.Stride)
	if err != nil {
		return err
	}
	r.res.Resampled = resampled
	r.days = resampled.Days()
	r.log.Info("pipeline: resampled", "stride", r.cfg.Resample.Stride, "rows", resampled.Len(), "last_day", resampled.LastDay())

	if !r.cfg.Output.ExportCSV {
		return nil
	}
	for _, out := range []struct {
		name  string
		table *dataset.Table
	}{{"merged.csv", merged}, {"resampled.csv", resampled}} {
		path := filepath.Join(r.res.OutputDir, out.name)
		if err := dataset.SaveCSV(path, out.table); err != nil {
			return err
		}
		r.res.Files = append(r.res.Files, path)
	}
	r.log.Debug("pipeline: exported csv")
	return nil
}

func (r *run) column(name string) (*timeseries.Series, error) {
	return r.res.Resampled.Column(name)
}

func (r *run) save(p *plot.Plot, name string) error {
	path, err := report.Save(p, r.res.OutputDir, name, r.plots)
	if err != nil {
		return err
	}
	r.res.Files = append(r.res.Files, path)
	return nil
}

func (r *run) diagnose() error {
	opts := diagnostics.Options{
		MaxLag:      r.cfg.Diagnostics.MaxLag,
		MaxAR:       r.cfg.Diagnostics.MaxAR,
		MaxMA:       r.cfg.Diagnostics.MaxMA,
		LjungBoxLag: diagnostics.DefaultOptions().LjungBoxLag,
		Difference:  r.cfg.Diagnostics.Difference,
	}
	for _, name := range r.cfg.Diagnostics.Series {
		s, err := r.column(name)
		if err != nil {
			return err
		}
		d, err := diagnostics.Analyze(s, opts)
		if err != nil {
			return err
		}
		r.res.Diagnostics[name] = d

		slug := fileSlug(name)
		line, err := report.SeriesPlot(s, r.days)
		if err != nil {
			return err
		}
		if err := r.save(line, slug+"_series"); err != nil {
			return err
		}

		for _, sum := range []*diagnostics.Summary{d.Level, d.Difference} {
			if sum == nil {
				continue
			}
			if err := r.diagnosticPlots(sum, fileSlug(sum.Series)); err != nil {
				return err
			}
			if err := report.WriteDiagnostics(r.tables, sum); err != nil {
				return err
			}
			if sum.EACF != nil {
				fmt.Fprintf(r.tables, "\nEACF of %s\n", sum.Series)
				if err := report.WriteEACF(r.tables, sum.EACF); err != nil {
					return err
				}
			}
			r.log.Info("pipeline: diagnostics",
				"series", sum.Series,
				"n", sum.N,
				"stationary", sum.Stationary(),
				"acf_significant", len(sum.ACF.Significant()),
				"eacf_orders", sum.SuggestedOrders,
			)
		}
	}
	return nil
}

func (r *run) diagnosticPlots(s *diagnostics.Summary, slug string) error {
	qq, err := report.QQPlot(s.QQ, "Normal Q-Q: "+s.Series)
	if err != nil {
		return err
	}
	if err := r.save(qq, slug+"_qq"); err != nil {
		return err
	}
	acf, err := report.CorrelogramPlot(s.ACF, "ACF: "+s.Series)
	if err != nil {
		return err
	}
	if err := r.save(acf, slug+"_acf"); err != nil {
		return err
	}
	if s.PACF == nil {
		return nil
	}
	pacf, err := report.CorrelogramPlot(s.PACF, "PACF: "+s.Series)
	if err != nil {
		return err
	}
	return r.save(pacf, slug+"_pacf")
}

func (r *run) fitARIMA() error {
	c := r.cfg.ARIMA
	for _, name := range c.Series {
		s, err := r.column(name)
		if err != nil {
			return err
		}
		m := arima.New(c.P, c.D, c.Q)
		if err := m.Fit(s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.res.ARIMA[name] = m

		sum := m.Summary()
		r.log.Info("pipeline: fitted arima",
			"series", name,
			"order", m.Order.String(),
			"ar", m.ARCoeffs,
			"ma", m.MACoeffs,
			"sigma2", m.Variance,
			"aic", m.AIC,
		)
		if sum.RootsErr != nil {
			r.log.Warn("pipeline: arima stability check failed", "series", name, "err", sum.RootsErr)
		} else if !sum.Stable {
			r.log.Warn("pipeline: arima roots inside the unit circle", "series", name, "ar_roots", fmt.Sprint(sum.ARRoots), "ma_roots", fmt.Sprint(sum.MARoots))
		}
		if sum.LjungBox != nil && !sum.LjungBox.WhiteNoise(0.05) {
			r.log.Warn("pipeline: arima residuals autocorrelated", "series", name, "q", sum.LjungBox.Statistic, "p", sum.LjungBox.PValue)
		}
		if err := report.WriteARIMASummary(r.tables, name, sum); err != nil {
			return err
		}

		if !c.Auto.Enabled {
			continue
		}
		auto, err := autoarima.AutoARIMA(s, &autoarima.Config{
			MaxP:        c.Auto.MaxP,
			MaxD:        c.Auto.MaxD,
			MaxQ:        c.Auto.MaxQ,
			Stepwise:    c.Auto.Stepwise,
			Criterion:   c.Auto.Criterion,
			StationTest: c.Auto.Test,
			D:           -1,
			Logger:      r.log,
		})
		if err != nil {
			return fmt.Errorf("%s: automatic search: %w", name, err)
		}
		r.res.Auto[name] = auto
		r.log.Info("pipeline: automatic arima",
			"series", name,
			"selected", auto.Order.String(),
			"manual", m.Order.String(),
			"criterion", c.Auto.Criterion,
			"value", auto.Criterion,
			"models", auto.ModelsEvaluated,
		)
		if err := report.WriteCandidates(r.tables, name, auto, 10); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) fitVAR() error {
	c := r.cfg.VAR
	columns := make([][]float64, len(c.Series))
	for i, name := range c.Series {
		s, err := r.column(name)
		if err != nil {
			return err
		}
		columns[i] = s.Values
	}

	m, err := varmodel.Fit(c.Series, columns, c.Lags)
	if err != nil {
		return err
	}
	r.res.VAR = m
	r.log.Info("pipeline: fitted var", "series", c.Series, "lags", c.Lags, "n", m.NObs, "aic", m.AIC, "bic", m.BIC)
	if roots, err := m.Roots(); err != nil {
		r.log.Warn("pipeline: var stability check failed", "err", err)
	} else if !stats.OutsideUnitCircle(roots) {
		r.log.Warn("pipeline: var roots inside the unit circle", "roots", fmt.Sprint(roots))
	}
	if err := report.WriteVARSummary(r.tables, m); err != nil {
		return err
	}

	if c.MaxLags > 0 {
		if err := r.selectLag(columns); err != nil {
			return err
		}
	}

	if c.Granger {
		g, err := m.GrangerMatrix()
		if err != nil {
			return err
		}
		r.res.Granger = g
		for _, t := range g {
			r.log.Debug("pipeline: granger", "cause", t.Cause, "effect", t.Effect, "f", t.FStatistic, "p", t.PValue)
		}
		if err := report.WriteGranger(r.tables, g); err != nil {
			return err
		}
	}
	return nil
}

// selectLag tabulates the lag order criteria, capping the largest order at
// what the sample supports. Too short a sample skips the table.
func (r *run) selectLag(columns [][]float64) error {
	c := r.cfg.VAR
	maxLags := c.MaxLags
	if feasible := varmodel.MaxLag(len(columns[0]), len(columns)); feasible < maxLags {
		if feasible < 1 {
			r.log.Warn("pipeline: var lag selection skipped, sample too short", "n", len(columns[0]), "max_lags", c.MaxLags)
			return nil
		}
		r.log.Info("pipeline: var lag selection capped", "max_lags", c.MaxLags, "capped", feasible)
		maxLags = feasible
	}

	sel, err := varmodel.SelectLag(c.Series, columns, maxLags)
	if err != nil {
		return err
	}
	r.res.LagSel = sel
	r.log.Info("pipeline: var lag selection", "aic", sel.BestAIC, "bic", sel.BestBIC, "hq", sel.BestHQ, "used", c.Lags)
	return report.WriteLagSelection(r.tables, sel)
}

func (r *run) predict() error {
	c := r.cfg.Forecast
	origin := forecast.Origin{LastDay: r.res.Resampled.LastDay(), Stride: r.cfg.Resample.Stride}

	for _, name := range r.cfg.ARIMA.Series {
		f, err := forecast.FromARIMA(r.res.ARIMA[name], name, c.Horizon, c.Level, origin)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := r.addForecast(f, "arima"); err != nil {
			return err
		}
	}
	for _, name := range r.cfg.VAR.Series {
		f, err := forecast.FromVAR(r.res.VAR, name, c.Horizon, c.Level, origin)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := r.addForecast(f, "var"); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) addForecast(f *forecast.Result, kind string) error {
	r.res.Forecasts = append(r.res.Forecasts, f)
	last := f.Points[f.Len()-1]
	r.log.Info("pipeline: forecast",
		"model", f.Model,
		"series", f.Series,
		"horizon", f.Len(),
		"last_day", last.Day,
		"last_mean", last.Mean,
		"last_half_width", last.HalfWidth(),
	)

	s, err := r.column(f.Series)
	if err != nil {
		return err
	}
	p, err := report.ForecastPlot(s, r.days, f, r.cfg.Forecast.History)
	if err != nil {
		return err
	}
	return r.save(p, fileSlug(f.Series)+"_forecast_"+kind)
}

func (r *run) compare() error {
	name := r.cfg.Forecast.Compare
	if name == "" {
		return nil
	}
	a := r.res.Forecast("ARIMA", name)
	v := r.res.Forecast("VAR", name)
	rows, err := report.CompareHalfWidths(a, v)
	if err != nil {
		return err
	}
	r.res.HalfWidths = rows
	r.log.Info("pipeline: compared intervals",
		"series", name,
		"steps", len(rows),
		"first_ratio", rows[0].Ratio,
		"last_ratio", rows[len(rows)-1].Ratio,
	)
	return report.WriteHalfWidths(r.tables, a.Model+" "+name, v.Model+" "+name, rows)
}

// fileSlug turns a column name such as "diff(VIX.Close)" into "diff_vix_close".
func fileSlug(name string) string {
	var b strings.Builder
	sep := false
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c)
			sep = false
			continue
		}
		sep = true
	}
	return b.String()
}
