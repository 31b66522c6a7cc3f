package forecast_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/marketcast/arima"
	"github.com/sartorproj/marketcast/forecast"
	"github.com/sartorproj/marketcast/timeseries"
	"github.com/sartorproj/marketcast/varmodel"
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

func randomWalk(n int, seed uint64) []float64 {
	g := gauss(seed)
	out := make([]float64, n)
	level := 20.0
	for i := range out {
		level += g.norm()
		out[i] = level
	}
	return out
}

func TestFromARIMA(t *testing.T) {
	m := arima.New(1, 1, 0)
	require.NoError(t, m.Fit(timeseries.New("vix", randomWalk(120, 3))))

	res, err := forecast.FromARIMA(m, "VIX.Close", 20, 0.95, forecast.Origin{LastDay: 596, Stride: 5})
	require.NoError(t, err)

	assert.Equal(t, "ARIMA(1,1,0)", res.Model)
	assert.Equal(t, "VIX.Close", res.Series)
	assert.Equal(t, 0.95, res.Level)
	require.Equal(t, 20, res.Len())

	days := res.Days()
	assert.Equal(t, 601, days[0])
	assert.Equal(t, 606, days[1])
	assert.Equal(t, 696, days[19])

	hw := res.HalfWidths()
	for i := 1; i < len(hw); i++ {
		assert.GreaterOrEqual(t, hw[i], hw[i-1]-1e-12, "step %d", i+1)
	}
	for _, p := range res.Points {
		assert.InDelta(t, p.Upper-p.Mean, p.Mean-p.Lower, 1e-9)
	}

	means, err := m.Predict(20)
	require.NoError(t, err)
	assert.InDeltaSlice(t, means, res.Means(), 1e-12)
}

func TestFromVAR(t *testing.T) {
	g := gauss(5)
	a := make([]float64, 150)
	b := make([]float64, 150)
	for i := range a {
		a[i] = g.norm()
		b[i] = g.norm()
	}
	m, err := varmodel.Fit([]string{"VIX.Close", "News.Sentiment"}, [][]float64{a, b}, 2)
	require.NoError(t, err)

	res, err := forecast.FromVAR(m, "VIX.Close", 10, 0.95, forecast.Origin{LastDay: 746, Stride: 5})
	require.NoError(t, err)

	assert.Equal(t, "VAR(2)", res.Model)
	require.Equal(t, 10, res.Len())
	assert.Equal(t, []int{751, 756, 761, 766, 771, 776, 781, 786, 791, 796}, res.Days())

	joint, err := m.ForecastInterval(10, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, joint.Mean[0][0], res.Points[0].Mean, 1e-12)
	assert.InDelta(t, 1.959963984540054*joint.StdErr[3][0], res.Points[3].HalfWidth(), 1e-9)

	_, err = forecast.FromVAR(m, "Gold.Price", 10, 0.95, forecast.Origin{LastDay: 1, Stride: 5})
	assert.Error(t, err)
}

func TestFromErrors(t *testing.T) {
	_, err := forecast.FromARIMA(nil, "x", 5, 0.95, forecast.Origin{Stride: 5})
	assert.Error(t, err)

	_, err = forecast.FromARIMA(arima.New(1, 0, 0), "x", 5, 0.95, forecast.Origin{Stride: 5})
	assert.ErrorIs(t, err, arima.ErrNotFitted)

	m := arima.New(1, 1, 0)
	require.NoError(t, m.Fit(timeseries.New("vix", randomWalk(60, 8))))
	_, err = forecast.FromARIMA(m, "x", 5, 0.95, forecast.Origin{Stride: 0})
	assert.Error(t, err)
	_, err = forecast.FromARIMA(m, "x", 5, 1.5, forecast.Origin{Stride: 5})
	assert.Error(t, err)

	_, err = forecast.FromVAR(nil, "x", 5, 0.95, forecast.Origin{Stride: 5})
	assert.Error(t, err)
}

func TestPointHalfWidth(t *testing.T) {
	p := forecast.Point{Mean: 10, Lower: 7.5, Upper: 12.5}
	assert.Equal(t, 2.5, p.HalfWidth())
}
