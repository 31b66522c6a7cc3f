package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// QQPoints pairs sorted sample values with standard normal quantiles.
type QQPoints struct {
	Theoretical []float64
	Sample      []float64
	// Reference line through the first and third quartiles.
	Intercept float64
	Slope     float64
}

// QQNormal computes normal Q-Q points for values. NaN values are ignored.
// Plotting positions are (i - a) / (n + 1 - 2a) with a = 3/8 when n <= 10
// and a = 1/2 otherwise.
func QQNormal(values []float64) *QQPoints {
	sample := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sample = append(sample, v)
		}
	}
	n := len(sample)
	if n == 0 {
		return nil
	}
	sort.Float64s(sample)

	a := 0.5
	if n <= 10 {
		a = 3.0 / 8.0
	}
	theo := make([]float64, n)
	for i := range theo {
		p := (float64(i+1) - a) / (float64(n) + 1 - 2*a)
		theo[i] = distuv.UnitNormal.Quantile(p)
	}

	q := &QQPoints{Theoretical: theo, Sample: sample, Slope: 1}
	z1 := distuv.UnitNormal.Quantile(0.25)
	z3 := distuv.UnitNormal.Quantile(0.75)
	y1 := stat.Quantile(0.25, stat.LinInterp, sample, nil)
	y3 := stat.Quantile(0.75, stat.LinInterp, sample, nil)
	if z3 != z1 {
		q.Slope = (y3 - y1) / (z3 - z1)
	}
	q.Intercept = y1 - q.Slope*z1
	return q
}

// NormalQuantile returns the two-sided critical value for a confidence
// level, e.g. 1.96 for 0.95.
func NormalQuantile(level float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-level)/2)
}
