package arima

import (
	"fmt"
	"math"

	"github.com/sartorproj/marketcast/stats"
)

// Predict returns point forecasts for the next steps observations.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, fmt.Errorf("arima.Predict: steps must be at least 1, got %d", steps)
	}

	p, q := m.Order.P, m.Order.Q
	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extResid := make([]float64, n+steps)
	copy(extResid[p:], m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		for j := 0; j < q && t-j-1 >= 0; j++ {
			pred += m.MACoeffs[j] * extResid[t-j-1]
		}
		extY[t] = pred
	}

	return m.integrate(extY[n:]), nil
}

// PredictInterval returns point forecasts with lower and upper bounds at the
// given confidence level. The forecast standard error at horizon h is
// sigma * sqrt(psi_0^2 + ... + psi_{h-1}^2), so interval widths never shrink
// with the horizon.
func (m *Model) PredictInterval(steps int, level float64) (forecasts, lower, upper []float64, err error) {
	if level <= 0 || level >= 1 {
		return nil, nil, nil, fmt.Errorf("arima.PredictInterval: level %v outside (0, 1)", level)
	}
	forecasts, err = m.Predict(steps)
	if err != nil {
		return nil, nil, nil, err
	}

	se := m.ForecastStdErrors(steps)
	z := stats.NormalQuantile(level)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	for h := range forecasts {
		lower[h] = forecasts[h] - z*se[h]
		upper[h] = forecasts[h] + z*se[h]
	}
	return forecasts, lower, upper, nil
}

// ForecastStdErrors returns the standard error of the 1..steps ahead
// forecasts on the original scale.
func (m *Model) ForecastStdErrors(steps int) []float64 {
	psi := m.PsiWeights(steps)
	sigma := math.Sqrt(m.Variance)
	se := make([]float64, steps)
	acc := 0.0
	for h := 0; h < steps; h++ {
		acc += psi[h] * psi[h]
		se[h] = sigma * math.Sqrt(acc)
	}
	return se
}

// PsiWeights returns psi_0..psi_{n-1} of the MA(infinity) form of the
// integrated model phi(B)(1-B)^d y_t = theta(B) e_t.
func (m *Model) PsiWeights(n int) []float64 {
	// a holds phi(B)(1-B)^d written as 1 - a_1 B - a_2 B^2 ...
	poly := make([]float64, len(m.ARCoeffs)+1)
	poly[0] = 1
	for i, phi := range m.ARCoeffs {
		poly[i+1] = -phi
	}
	for i := 0; i < m.Order.D; i++ {
		poly = polyMul(poly, []float64{1, -1})
	}
	a := make([]float64, len(poly))
	for i := 1; i < len(poly); i++ {
		a[i] = -poly[i]
	}

	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		if j == 0 {
			psi[0] = 1
			continue
		}
		v := 0.0
		if j <= len(m.MACoeffs) {
			v = m.MACoeffs[j-1]
		}
		for i := 1; i < len(a) && i <= j; i++ {
			v += a[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// integrate undoes differencing one level at a time, anchoring each level at
// the last observed value of the series differenced one order less.
func (m *Model) integrate(forecasts []float64) []float64 {
	out := make([]float64, len(forecasts))
	copy(out, forecasts)

	for level := m.Order.D - 1; level >= 0; level-- {
		prev := m.data.DiffN(level)
		acc := prev.Values[prev.Len()-1]
		for i := range out {
			acc += out[i]
			out[i] = acc
		}
	}
	return out
}
