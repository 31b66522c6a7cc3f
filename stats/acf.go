package stats

import (
	"math"

	"github.com/sartorproj/marketcast/timeseries"
)

// ACF calculates the sample autocorrelation function for lags 0 to maxLag.
// It returns nil for a constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	return acf(series.Values, maxLag)
}

func acf(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	denom := 0.0
	for _, v := range values {
		denom += (v - mean) * (v - mean)
	}
	if denom == 0 {
		return nil
	}

	out := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		out[k] = sum / denom
	}
	return out
}

// PACF calculates the partial autocorrelation function with the
// Durbin-Levinson recursion. Index 0 holds 1 so that index k is lag k.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	r := ACF(series, maxLag)
	if r == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1

	prev := make([]float64, maxLag+1)
	cur := make([]float64, maxLag+1)
	prev[1] = r[1]
	pacf[1] = r[1]

	for k := 2; k <= maxLag; k++ {
		num := r[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * r[k-j]
			den -= prev[j] * r[j]
		}
		if den == 0 {
			break
		}

		cur[k] = num / den
		for j := 1; j < k; j++ {
			cur[j] = prev[j] - cur[k]*prev[k-j]
		}
		pacf[k] = cur[k]
		copy(prev, cur)
	}

	return pacf
}

// Correlogram holds ACF or PACF values with their 95% white-noise bounds.
type Correlogram struct {
	Lags       []int
	Values     []float64
	ConfBounds float64 // ±1.96/sqrt(n)
	N          int
}

// Significant returns the non-zero lags outside the confidence bounds.
func (c *Correlogram) Significant() []int {
	var lags []int
	for i, v := range c.Values {
		if c.Lags[i] > 0 && math.Abs(v) > c.ConfBounds {
			lags = append(lags, c.Lags[i])
		}
	}
	return lags
}

// ACFWithConfidence calculates ACF for lags 0..maxLag with confidence bounds.
func ACFWithConfidence(series *timeseries.Series, maxLag int) *Correlogram {
	values := ACF(series, maxLag)
	if values == nil {
		return nil
	}
	return newCorrelogram(values, 0, series.Len())
}

// PACFWithConfidence calculates PACF for lags 1..maxLag with confidence bounds.
func PACFWithConfidence(series *timeseries.Series, maxLag int) *Correlogram {
	values := PACF(series, maxLag)
	if values == nil {
		return nil
	}
	return newCorrelogram(values[1:], 1, series.Len())
}

func newCorrelogram(values []float64, firstLag, n int) *Correlogram {
	lags := make([]int, len(values))
	for i := range lags {
		lags[i] = firstLag + i
	}
	return &Correlogram{
		Lags:       lags,
		Values:     values,
		ConfBounds: 1.96 / math.Sqrt(float64(n)),
		N:          n,
	}
}
