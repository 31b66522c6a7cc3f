package arima

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/timeseries"
)

// gauss draws standard normals from a 64-bit LCG with Box-Muller.
type gauss uint64

func (g *gauss) uniform() float64 {
	*g = *g*6364136223846793005 + 1442695040888963407
	return float64(uint64(*g)>>11) / (1 << 53)
}

func (g *gauss) norm() float64 {
	u1, u2 := g.uniform(), g.uniform()
	return math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)
}

// integratedAR2 simulates n levels whose first difference is AR(2).
func integratedAR2(n int, phi1, phi2 float64, seed uint64) *timeseries.Series {
	g := gauss(seed)
	w := []float64{0, 0}
	for i := 0; i < n+50; i++ {
		w = append(w, phi1*w[len(w)-1]+phi2*w[len(w)-2]+g.norm())
	}
	w = w[52:]

	y := make([]float64, n)
	y[0] = 100
	for i := 1; i < n; i++ {
		y[i] = y[i-1] + w[i-1]
	}
	return timeseries.New("y", y)
}

func ar1WithMean(n int, phi, mu float64, seed uint64) *timeseries.Series {
	g := gauss(seed)
	w := 0.0
	values := make([]float64, 0, n)
	for i := 0; i < n+50; i++ {
		w = phi*w + g.norm()
		if i >= 50 {
			values = append(values, mu+w)
		}
	}
	return timeseries.New("ar1", values)
}

func TestFitIntegratedAR2(t *testing.T) {
	series := integratedAR2(100, 1.2, -0.5, 2)

	m := New(2, 1, 1)
	require.NoError(t, m.Fit(series))

	assert.InDelta(t, 1.2, m.ARCoeffs[0], 0.15)
	assert.InDelta(t, -0.5, m.ARCoeffs[1], 0.15)
	assert.False(t, m.IncludeMean)
	assert.Equal(t, 0.0, m.Intercept)
	assert.Equal(t, 97, m.NObs)
	assert.Len(t, m.Residuals(), 97)
	assert.Len(t, m.FittedValues(), 97)
	assert.Greater(t, m.Variance, 0.0)
	assert.True(t, m.Stable())

	coeffs, err := m.Coefficients()
	require.NoError(t, err)
	require.Len(t, coeffs, 3)
	assert.Equal(t, "ar1", coeffs[0].Name)
	assert.Equal(t, "ar2", coeffs[1].Name)
	assert.Equal(t, "ma1", coeffs[2].Name)
	for _, c := range coeffs {
		assert.False(t, math.IsNaN(c.StdErr), c.Name)
		assert.Greater(t, c.StdErr, 0.0, c.Name)
	}
	assert.Less(t, coeffs[0].PValue, 0.01)
}

func TestFitWithMean(t *testing.T) {
	m := New(1, 0, 0)
	require.NoError(t, m.Fit(ar1WithMean(200, 0.6, 10, 1)))

	assert.True(t, m.IncludeMean)
	assert.InDelta(t, 0.6, m.ARCoeffs[0], 0.1)
	assert.InDelta(t, 10, m.Intercept, 0.5)

	coeffs, err := m.Coefficients()
	require.NoError(t, err)
	require.Len(t, coeffs, 2)
	assert.Equal(t, "intercept", coeffs[1].Name)
	assert.InDelta(t, 0.057, coeffs[0].StdErr, 0.02)
	assert.InDelta(t, 0.17, coeffs[1].StdErr, 0.05)
	assert.InDelta(t, coeffs[0].Estimate/coeffs[0].StdErr, coeffs[0].Z, 1e-12)
}

func TestInformationCriteria(t *testing.T) {
	m := New(1, 0, 0)
	require.NoError(t, m.Fit(ar1WithMean(200, 0.6, 10, 1)))

	n := float64(m.NObs)
	assert.InDelta(t, -0.5*n*(math.Log(2*math.Pi*m.Variance)+1), m.LogLik, 1e-9)
	assert.InDelta(t, -2*m.LogLik+6, m.AIC, 1e-9)
	assert.InDelta(t, -2*m.LogLik+3*math.Log(n), m.BIC, 1e-9)
	assert.Greater(t, m.AICc, m.AIC)
}

func TestFitErrors(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		err := New(2, 1, 1).Fit(timeseries.New("y", []float64{1, 2, 3, 4, 5}))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("missing values", func(t *testing.T) {
		values := make([]float64, 30)
		for i := range values {
			values[i] = float64(i%7 - 3)
		}
		values[10] = math.NaN()
		assert.Error(t, New(1, 0, 0).Fit(timeseries.New("y", values)))
	})

	t.Run("use before fit", func(t *testing.T) {
		m := New(1, 0, 0)
		_, err := m.Predict(3)
		assert.ErrorIs(t, err, ErrNotFitted)
		_, err = m.Coefficients()
		assert.ErrorIs(t, err, ErrNotFitted)
		_, _, _, err = m.PredictInterval(3, 0.95)
		assert.ErrorIs(t, err, ErrNotFitted)
		assert.Nil(t, m.Summary())
		assert.Nil(t, m.Residuals())
	})
}

func TestPredictIntegration(t *testing.T) {
	t.Run("random walk repeats the last value", func(t *testing.T) {
		series := integratedAR2(50, 0, 0, 5)
		m := New(0, 1, 0)
		require.NoError(t, m.Fit(series))

		fc, err := m.Predict(4)
		require.NoError(t, err)
		last := series.Values[series.Len()-1]
		for _, v := range fc {
			assert.InDelta(t, last, v, 1e-12)
		}
	})

	t.Run("second differences extrapolate linearly", func(t *testing.T) {
		values := make([]float64, 20)
		for i := range values {
			values[i] = float64(i * i)
		}
		m := New(0, 2, 0)
		require.NoError(t, m.Fit(timeseries.New("sq", values)))

		fc, err := m.Predict(3)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{398, 435, 472}, fc, 1e-9)
	})

	t.Run("steps must be positive", func(t *testing.T) {
		m := New(0, 1, 0)
		require.NoError(t, m.Fit(integratedAR2(50, 0, 0, 5)))
		_, err := m.Predict(0)
		assert.Error(t, err)
	})
}

func TestPredictInterval(t *testing.T) {
	m := New(2, 1, 1)
	require.NoError(t, m.Fit(integratedAR2(100, 1.2, -0.5, 2)))

	fc, lower, upper, err := m.PredictInterval(20, 0.95)
	require.NoError(t, err)
	require.Len(t, fc, 20)

	prev := 0.0
	for h := range fc {
		assert.Less(t, lower[h], fc[h])
		assert.Greater(t, upper[h], fc[h])
		assert.InDelta(t, fc[h]-lower[h], upper[h]-fc[h], 1e-9)

		half := upper[h] - fc[h]
		assert.GreaterOrEqual(t, half, prev, "step %d", h+1)
		prev = half
	}
	assert.InDelta(t, 1.959964*math.Sqrt(m.Variance), upper[0]-fc[0], 1e-5)

	_, _, _, err = m.PredictInterval(5, 1.5)
	assert.Error(t, err)
}

func TestPsiWeights(t *testing.T) {
	t.Run("random walk", func(t *testing.T) {
		m := New(0, 1, 0)
		assert.Equal(t, []float64{1, 1, 1, 1}, m.PsiWeights(4))
	})

	t.Run("AR(1)", func(t *testing.T) {
		m := New(1, 0, 0)
		m.ARCoeffs = []float64{0.5}
		assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, m.PsiWeights(4), 1e-12)
	})

	t.Run("ARIMA(1,1,1)", func(t *testing.T) {
		// (1 - 0.5B)(1 - B) = 1 - 1.5B + 0.5B^2
		m := New(1, 1, 1)
		m.ARCoeffs = []float64{0.5}
		m.MACoeffs = []float64{0.3}
		psi := m.PsiWeights(4)
		assert.InDelta(t, 1.0, psi[0], 1e-12)
		assert.InDelta(t, 0.3+1.5, psi[1], 1e-12)
		assert.InDelta(t, 1.5*1.8-0.5, psi[2], 1e-12)
		assert.InDelta(t, 1.5*psi[2]-0.5*psi[1], psi[3], 1e-12)
	})
}

func TestRoots(t *testing.T) {
	m := New(2, 0, 1)
	m.ARCoeffs = []float64{1.5, -0.56}
	m.MACoeffs = []float64{0.5}

	ar, err := m.ARRoots()
	require.NoError(t, err)
	require.Len(t, ar, 2)
	assert.InDelta(t, 1.25, real(ar[0]), 1e-9)

	ma, err := m.MARoots()
	require.NoError(t, err)
	require.Len(t, ma, 1)
	assert.InDelta(t, -2.0, real(ma[0]), 1e-9)
	assert.True(t, m.Stable())

	m.MACoeffs = []float64{-1.5}
	assert.False(t, m.Stable())

	t.Run("non-finite coefficients are not stable", func(t *testing.T) {
		m := New(1, 0, 0)
		m.ARCoeffs = []float64{math.NaN()}
		_, err := m.ARRoots()
		assert.ErrorIs(t, err, stats.ErrNoEigenvalues)
		assert.False(t, m.Stable())
	})
}

func TestSummary(t *testing.T) {
	m := New(2, 1, 1)
	require.NoError(t, m.Fit(integratedAR2(100, 1.2, -0.5, 2)))

	s := m.Summary()
	require.NotNil(t, s)
	assert.Equal(t, "ARIMA(2,1,1)", s.Order.String())
	assert.Len(t, s.Coefficients, 3)
	require.NotNil(t, s.LjungBox)
	assert.Equal(t, 7, s.LjungBox.DOF)
	assert.NoError(t, s.RootsErr)
	assert.Len(t, s.ARRoots, 2)
	assert.Len(t, s.MARoots, 1)
	assert.Equal(t, m.Stable(), s.Stable)
}

func TestYuleWalker(t *testing.T) {
	// AR(1) with phi = 0.6 has rho_k = 0.6^k.
	phi := yuleWalker([]float64{1, 0.6, 0.36}, 2)
	require.Len(t, phi, 2)
	assert.InDelta(t, 0.6, phi[0], 1e-12)
	assert.InDelta(t, 0.0, phi[1], 1e-12)

	assert.Nil(t, yuleWalker([]float64{1}, 2))
}
