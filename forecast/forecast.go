// Package forecast attaches future Day indices to model forecasts so that
// ARIMA and VAR paths can be compared step by step.
package forecast

import (
	"errors"
	"fmt"

	"github.com/sartorproj/marketcast/arima"
	"github.com/sartorproj/marketcast/varmodel"
)

// Point is one forecast step.
type Point struct {
	Step  int // 1-based
	Day   int // lastDay + Step*stride
	Mean  float64
	Lower float64
	Upper float64
}

// HalfWidth returns Mean - Lower.
func (p Point) HalfWidth() float64 {
	return p.Mean - p.Lower
}

// Result is the forecast of one series by one model.
type Result struct {
	Model  string
	Series string
	Level  float64
	Points []Point
}

// Len returns the horizon.
func (r *Result) Len() int {
	return len(r.Points)
}

// Days returns the future Day of every step.
func (r *Result) Days() []int {
	out := make([]int, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Day
	}
	return out
}

// Means returns the point forecasts.
func (r *Result) Means() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Mean
	}
	return out
}

// HalfWidths returns the interval half-width of every step.
func (r *Result) HalfWidths() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.HalfWidth()
	}
	return out
}

// Origin locates a forecast on the Day axis of a resampled table.
type Origin struct {
	LastDay int
	Stride  int
}

func (o Origin) validate() error {
	if o.Stride < 1 {
		return fmt.Errorf("stride must be at least 1, got %d", o.Stride)
	}
	if o.LastDay < 0 {
		return fmt.Errorf("negative last day %d", o.LastDay)
	}
	return nil
}

func build(model, series string, level float64, origin Origin, mean, lower, upper []float64) *Result {
	r := &Result{
		Model:  model,
		Series: series,
		Level:  level,
		Points: make([]Point, len(mean)),
	}
	for i := range mean {
		step := i + 1
		r.Points[i] = Point{
			Step:  step,
			Day:   origin.LastDay + step*origin.Stride,
			Mean:  mean[i],
			Lower: lower[i],
			Upper: upper[i],
		}
	}
	return r
}

// FromARIMA forecasts horizon steps of a fitted ARIMA model at the given
// confidence level.
func FromARIMA(m *arima.Model, series string, horizon int, level float64, origin Origin) (*Result, error) {
	if m == nil {
		return nil, errors.New("forecast.FromARIMA: nil model")
	}
	if err := origin.validate(); err != nil {
		return nil, fmt.Errorf("forecast.FromARIMA: %w", err)
	}
	mean, lower, upper, err := m.PredictInterval(horizon, level)
	if err != nil {
		return nil, fmt.Errorf("forecast.FromARIMA: %w", err)
	}
	return build(m.Order.String(), series, level, origin, mean, lower, upper), nil
}

// FromVAR extracts one series from a joint VAR forecast.
func FromVAR(m *varmodel.Model, series string, horizon int, level float64, origin Origin) (*Result, error) {
	if m == nil {
		return nil, errors.New("forecast.FromVAR: nil model")
	}
	if err := origin.validate(); err != nil {
		return nil, fmt.Errorf("forecast.FromVAR: %w", err)
	}
	f, err := m.ForecastInterval(horizon, level)
	if err != nil {
		return nil, fmt.Errorf("forecast.FromVAR: %w", err)
	}
	mean, lower, upper, err := f.Series(series)
	if err != nil {
		return nil, fmt.Errorf("forecast.FromVAR: %w", err)
	}
	return build(fmt.Sprintf("VAR(%d)", m.Lags), series, level, origin, mean, lower, upper), nil
}
