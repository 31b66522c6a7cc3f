package diagnostics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/marketcast/diagnostics"
	"github.com/sartorproj/marketcast/timeseries"
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

func ar1(n int, phi float64, seed uint64) *timeseries.Series {
	g := gauss(seed)
	values := make([]float64, n)
	prev := 0.0
	for i := 0; i < n+50; i++ {
		prev = phi*prev + g.norm()
		if i >= 50 {
			values[i-50] = prev
		}
	}
	return timeseries.New("ar1", values)
}

func TestAnalyzeLevelAndDifference(t *testing.T) {
	s := ar1(300, 0.8, 1)
	r, err := diagnostics.Analyze(s, diagnostics.DefaultOptions())
	require.NoError(t, err)

	lvl := r.Level
	assert.Equal(t, "ar1", lvl.Series)
	assert.Equal(t, 300, lvl.N)
	assert.Len(t, lvl.ACF.Values, 25)
	assert.Len(t, lvl.PACF.Values, 24)
	assert.InDelta(t, 1.96/math.Sqrt(300), lvl.ACF.ConfBounds, 1e-12)
	assert.Contains(t, lvl.ACF.Significant(), 1)
	assert.Contains(t, lvl.PACF.Significant(), 1)
	assert.InDelta(t, 0.8, lvl.PACF.Values[0], 0.1)

	require.NotNil(t, lvl.EACF)
	assert.Len(t, lvl.EACF.Symbols, 8)
	assert.Len(t, lvl.EACF.Symbols[0], 14)
	assert.Len(t, lvl.Symbols(), 8)
	assert.Equal(t, byte('x'), lvl.EACF.Symbols[0][0])

	require.NotNil(t, lvl.ADF)
	require.NotNil(t, lvl.KPSS)
	require.NotNil(t, lvl.LjungBox)
	assert.False(t, lvl.LjungBox.WhiteNoise(0.05))
	assert.Len(t, lvl.QQ.Sample, 300)

	require.NotNil(t, r.Difference)
	assert.Equal(t, "diff(ar1)", r.Difference.Series)
	assert.Equal(t, 299, r.Difference.N)
}

func TestAnalyzeRandomWalkDifference(t *testing.T) {
	g := gauss(4)
	values := make([]float64, 200)
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + g.norm()
	}

	r, err := diagnostics.Analyze(timeseries.New("walk", values), diagnostics.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, r.Level.Stationary())
	assert.True(t, r.Difference.ADF.IsStationary)
}

func TestAnalyzeWithoutDifference(t *testing.T) {
	opts := diagnostics.DefaultOptions()
	opts.Difference = false
	r, err := diagnostics.Analyze(ar1(100, 0.5, 2), opts)
	require.NoError(t, err)
	assert.Nil(t, r.Difference)
}

func TestAnalyzeShrinksTables(t *testing.T) {
	opts := diagnostics.DefaultOptions()
	opts.Difference = false
	r, err := diagnostics.Analyze(ar1(15, 0.5, 3), opts)
	require.NoError(t, err)

	assert.Len(t, r.Level.ACF.Values, 15)
	require.NotNil(t, r.Level.EACF)
	assert.LessOrEqual(t, r.Level.EACF.MaxAR+r.Level.EACF.MaxMA+3, 15)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := diagnostics.Analyze(timeseries.New("short", []float64{1, 2, 3}), diagnostics.DefaultOptions())
	assert.ErrorIs(t, err, diagnostics.ErrTooShort)

	values := ar1(50, 0.5, 5).Values
	values[10] = math.NaN()
	_, err = diagnostics.Analyze(timeseries.New("gap", values), diagnostics.DefaultOptions())
	assert.Error(t, err)

	flat := make([]float64, 30)
	_, err = diagnostics.Analyze(timeseries.New("flat", flat), diagnostics.DefaultOptions())
	assert.Error(t, err)
}

func TestBound(t *testing.T) {
	s := &diagnostics.Summary{N: 101}
	assert.InDelta(t, 0.2, s.Bound(0, 0), 1e-12)
	assert.True(t, math.IsNaN(s.Bound(60, 40)))
}
