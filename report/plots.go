package report

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/marketcast/forecast"
	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/timeseries"
)

// Plot file formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var (
	seriesColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	forecastColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	bandColor     = color.RGBA{R: 214, G: 39, B: 40, A: 60}
	boundColor    = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// PlotOptions sets the size and format of saved plots.
type PlotOptions struct {
	Width  vg.Length
	Height vg.Length
	Format string
}

// DefaultPlotOptions returns 8x4 inch PNG output.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 8 * vg.Inch, Height: 4 * vg.Inch, Format: FormatPNG}
}

// Validate checks the format.
func (o PlotOptions) Validate() error {
	switch o.Format {
	case FormatPNG, FormatSVG:
	default:
		return fmt.Errorf("report: unsupported plot format %q", o.Format)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New("report: plot size must be positive")
	}
	return nil
}

// Save writes p to dir/name.<format> and returns the path.
func Save(p *plot.Plot, dir, name string, opts PlotOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+"."+opts.Format)
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return "", fmt.Errorf("report.Save: %s: %w", path, err)
	}
	return path, nil
}

func dayXYs(days []int, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(days[i])
		pts[i].Y = v
	}
	return pts
}

// SeriesPlot draws a series against its Day index.
func SeriesPlot(s *timeseries.Series, days []int) (*plot.Plot, error) {
	if len(days) != s.Len() {
		return nil, fmt.Errorf("report.SeriesPlot: %d days for %d values", len(days), s.Len())
	}
	p := plot.New()
	p.Title.Text = s.Name
	p.X.Label.Text = "Day"
	p.Y.Label.Text = s.Name

	line, err := plotter.NewLine(dayXYs(days, s.Values))
	if err != nil {
		return nil, fmt.Errorf("report.SeriesPlot: %w", err)
	}
	line.Color = seriesColor
	p.Add(plotter.NewGrid(), line)
	return p, nil
}

// QQPlot draws normal Q-Q points with the quartile reference line.
func QQPlot(q *stats.QQPoints, title string) (*plot.Plot, error) {
	if q == nil || len(q.Sample) == 0 {
		return nil, errors.New("report.QQPlot: no points")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Theoretical quantiles"
	p.Y.Label.Text = "Sample quantiles"

	pts := make(plotter.XYs, len(q.Sample))
	for i := range pts {
		pts[i].X = q.Theoretical[i]
		pts[i].Y = q.Sample[i]
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("report.QQPlot: %w", err)
	}
	sc.Color = seriesColor
	sc.Radius = vg.Points(2)

	ref := plotter.NewFunction(func(x float64) float64 { return q.Intercept + q.Slope*x })
	ref.Color = forecastColor
	ref.XMin = q.Theoretical[0]
	ref.XMax = q.Theoretical[len(q.Theoretical)-1]

	p.Add(plotter.NewGrid(), sc, ref)
	return p, nil
}

// CorrelogramPlot draws ACF or PACF values as stems with dashed
// significance bounds.
func CorrelogramPlot(c *stats.Correlogram, title string) (*plot.Plot, error) {
	if c == nil || len(c.Values) == 0 {
		return nil, errors.New("report.CorrelogramPlot: no values")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Lag"
	p.Y.Min, p.Y.Max = -1, 1

	tips := make(plotter.XYs, len(c.Values))
	for i, v := range c.Values {
		x := float64(c.Lags[i])
		tips[i].X, tips[i].Y = x, v
		stem, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: v}})
		if err != nil {
			return nil, fmt.Errorf("report.CorrelogramPlot: %w", err)
		}
		stem.Color = seriesColor
		p.Add(stem)
	}
	sc, err := plotter.NewScatter(tips)
	if err != nil {
		return nil, fmt.Errorf("report.CorrelogramPlot: %w", err)
	}
	sc.Color = seriesColor
	sc.Radius = vg.Points(2)

	lo := float64(c.Lags[0])
	hi := float64(c.Lags[len(c.Lags)-1])
	p.Add(sc, hline(0, lo, hi, nil))
	for _, b := range []float64{c.ConfBounds, -c.ConfBounds} {
		p.Add(hline(b, lo, hi, []vg.Length{vg.Points(4), vg.Points(3)}))
	}
	return p, nil
}

func hline(y, xmin, xmax float64, dashes []vg.Length) *plotter.Function {
	f := plotter.NewFunction(func(float64) float64 { return y })
	f.XMin, f.XMax = xmin, xmax
	f.Samples = 2
	f.Color = boundColor
	f.Dashes = dashes
	return f
}

// ForecastPlot draws the last window observations, the forecast path and
// the shaded interval band.
func ForecastPlot(history *timeseries.Series, days []int, f *forecast.Result, window int) (*plot.Plot, error) {
	if len(days) != history.Len() {
		return nil, fmt.Errorf("report.ForecastPlot: %d days for %d values", len(days), history.Len())
	}
	if f == nil || f.Len() == 0 {
		return nil, errors.New("report.ForecastPlot: empty forecast")
	}
	if window <= 0 || window > history.Len() {
		window = history.Len()
	}
	start := history.Len() - window

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s forecast (%.0f%% interval)", f.Series, f.Model, f.Level*100)
	p.X.Label.Text = "Day"
	p.Y.Label.Text = f.Series

	band := make(plotter.XYs, 0, 2*f.Len())
	for _, pt := range f.Points {
		band = append(band, plotter.XY{X: float64(pt.Day), Y: pt.Upper})
	}
	for i := f.Len() - 1; i >= 0; i-- {
		pt := f.Points[i]
		band = append(band, plotter.XY{X: float64(pt.Day), Y: pt.Lower})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, fmt.Errorf("report.ForecastPlot: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0

	hist, err := plotter.NewLine(dayXYs(days[start:], history.Values[start:]))
	if err != nil {
		return nil, fmt.Errorf("report.ForecastPlot: %w", err)
	}
	hist.Color = seriesColor

	// The forecast path starts at the last observation so the two lines join.
	path := plotter.XYs{{X: float64(days[len(days)-1]), Y: history.Values[history.Len()-1]}}
	path = append(path, dayXYs(f.Days(), f.Means())...)
	mean, err := plotter.NewLine(path)
	if err != nil {
		return nil, fmt.Errorf("report.ForecastPlot: %w", err)
	}
	mean.Color = forecastColor
	mean.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}

	p.Add(plotter.NewGrid(), poly, hist, mean)
	p.Legend.Add("observed", hist)
	p.Legend.Add("forecast", mean)
	p.Legend.Add(fmt.Sprintf("%.0f%% interval", f.Level*100), poly)
	p.Legend.Top = true
	return p, nil
}
