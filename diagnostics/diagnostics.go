// Package diagnostics computes the identification summaries used to pick
// ARIMA orders by hand: correlograms, the EACF table, unit root tests and
// normal Q-Q points. Nothing downstream depends on them except reports.
package diagnostics

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/timeseries"
)

// ErrTooShort is returned for series with fewer than MinObservations values.
var ErrTooShort = errors.New("diagnostics: series too short")

// MinObservations is the shortest series Analyze accepts.
const MinObservations = 10

// Options controls the size of the summaries.
type Options struct {
	MaxLag      int  // correlogram lags
	MaxAR       int  // EACF rows 0..MaxAR
	MaxMA       int  // EACF columns 0..MaxMA
	LjungBoxLag int  // portmanteau lag
	Difference  bool // also summarise the first difference
}

// DefaultOptions returns 24 correlogram lags and a 7x13 EACF table.
func DefaultOptions() Options {
	return Options{
		MaxLag:      24,
		MaxAR:       7,
		MaxMA:       13,
		LjungBoxLag: 10,
		Difference:  true,
	}
}

// Summary is the diagnostic view of one series.
type Summary struct {
	Series string
	N      int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64

	ACF      *stats.Correlogram
	PACF     *stats.Correlogram
	EACF     *stats.EACFResult // nil when the series is too short for the table
	ADF      *stats.ADFResult
	KPSS     *stats.KPSSResult
	LjungBox *stats.LjungBoxResult
	QQ       *stats.QQPoints

	// SuggestedOrders are (p, q) vertices of 'o' triangles in the EACF table.
	SuggestedOrders [][2]int
}

// Stationary reports whether ADF rejects a unit root and KPSS does not
// reject stationarity.
func (s *Summary) Stationary() bool {
	return s.ADF != nil && s.KPSS != nil && s.ADF.IsStationary && s.KPSS.IsStationary
}

// Report holds the summary of a series and optionally of its first difference.
type Report struct {
	Level      *Summary
	Difference *Summary
}

// Analyze summarises series.
func Analyze(series *timeseries.Series, opts Options) (*Report, error) {
	level, err := summarize(series, opts)
	if err != nil {
		return nil, fmt.Errorf("diagnostics.Analyze: %s: %w", series.Name, err)
	}
	r := &Report{Level: level}
	if !opts.Difference {
		return r, nil
	}

	diff := series.Diff()
	diff.Name = "diff(" + series.Name + ")"
	r.Difference, err = summarize(diff, opts)
	if err != nil {
		return nil, fmt.Errorf("diagnostics.Analyze: %s: %w", diff.Name, err)
	}
	return r, nil
}

func summarize(series *timeseries.Series, opts Options) (*Summary, error) {
	n := series.Len()
	if n < MinObservations {
		return nil, fmt.Errorf("%d observations: %w", n, ErrTooShort)
	}
	if series.HasNaN() {
		return nil, errors.New("series contains missing values")
	}

	maxLag := opts.MaxLag
	if maxLag < 1 {
		maxLag = DefaultOptions().MaxLag
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	s := &Summary{
		Series: series.Name,
		N:      n,
		Mean:   series.Mean(),
		Std:    series.Std(),
		Min:    series.Min(),
		Max:    series.Max(),
		ACF:    stats.ACFWithConfidence(series, maxLag),
		PACF:   stats.PACFWithConfidence(series, maxLag),
		ADF:    stats.ADF(series, 0),
		KPSS:   stats.KPSS(series, stats.RegressionConstant, 0),
		QQ:     stats.QQNormal(series.Values),
	}
	if s.ACF == nil {
		return nil, errors.New("constant series")
	}

	lb := opts.LjungBoxLag
	if lb < 1 || lb >= n {
		lb = min(10, n-1)
	}
	s.LjungBox = stats.LjungBox(series, lb, 0)

	maxAR, maxMA := opts.MaxAR, opts.MaxMA
	for maxAR+maxMA+3 > n && (maxAR > 0 || maxMA > 0) {
		if maxMA >= maxAR {
			maxMA--
		} else {
			maxAR--
		}
	}
	if s.EACF = stats.EACF(series, maxAR, maxMA); s.EACF != nil {
		s.SuggestedOrders = s.EACF.SuggestedOrders()
	}
	return s, nil
}

// Symbols renders the EACF table as rows of 'x' and 'o'.
func (s *Summary) Symbols() []string {
	if s.EACF == nil {
		return nil
	}
	out := make([]string, len(s.EACF.Symbols))
	for i, row := range s.EACF.Symbols {
		out[i] = string(row)
	}
	return out
}

// Bound returns the EACF significance bound 2/sqrt(n-k-j-1) for row k,
// column j, or NaN when undefined.
func (s *Summary) Bound(k, j int) float64 {
	d := s.N - k - j - 1
	if d <= 0 {
		return math.NaN()
	}
	return 2 / math.Sqrt(float64(d))
}
