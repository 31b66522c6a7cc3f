package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/marketcast/timeseries"
)

// Regression terms for unit root tests.
const (
	RegressionConstant = "c"
	RegressionTrend    = "ct"
)

// ADFResult is the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64
	IsStationary bool
}

// adfCritical holds asymptotic critical values for the constant-only case.
var adfCritical = []struct {
	stat, p float64
}{
	{-3.96, 0.001},
	{-3.43, 0.01},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-1.94, 0.25},
	{-1.62, 0.50},
	{-0.44, 0.90},
	{0.23, 0.99},
}

// ADF tests for a unit root. H0: the series has a unit root.
// When maxLag <= 0 the lag order is floor((n-1)^(1/3)).
func ADF(series *timeseries.Series, maxLag int) *ADFResult {
	n := series.Len()
	if n < 10 {
		return nil
	}
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := series.Diff()
	nObs := n - maxLag - 1
	if nObs < maxLag+5 {
		return nil
	}

	// dy_t = a + b*y_{t-1} + sum g_i dy_{t-i}
	x := mat.NewDense(nObs, 2+maxLag, nil)
	y := mat.NewDense(nObs, 1, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.Set(i, 0, diff.Values[t])
		x.Set(i, 0, 1)
		x.Set(i, 1, series.Values[t])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff.Values[t-j])
		}
	}

	fit, err := OLS(x, y)
	if err != nil {
		return nil
	}
	se := fit.StdErrors()
	if se == nil || se.At(1, 0) == 0 {
		return nil
	}
	tStat := fit.B.At(1, 0) / se.At(1, 0)
	pValue := adfPValue(tStat)

	return &ADFResult{
		Statistic: tStat,
		PValue:    pValue,
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: pValue < 0.05,
	}
}

func adfPValue(stat float64) float64 {
	if stat <= adfCritical[0].stat {
		return adfCritical[0].p
	}
	last := adfCritical[len(adfCritical)-1]
	if stat >= last.stat {
		return last.p
	}
	for i := 1; i < len(adfCritical); i++ {
		lo, hi := adfCritical[i-1], adfCritical[i]
		if stat <= hi.stat {
			w := (stat - lo.stat) / (hi.stat - lo.stat)
			return lo.p + w*(hi.p-lo.p)
		}
	}
	return last.p
}

// KPSSResult is the outcome of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS tests for stationarity. H0: the series is level (or trend) stationary.
// regression is RegressionConstant or RegressionTrend. When nlags <= 0 the
// bandwidth is ceil(12*(n/100)^(1/4)).
func KPSS(series *timeseries.Series, regression string, nlags int) *KPSSResult {
	n := series.Len()
	if n < 10 {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == RegressionTrend {
		t := make([]float64, n)
		floats.Span(t, 0, float64(n-1))
		a, b := stat.LinearRegression(t, series.Values, nil, false)
		for i, v := range series.Values {
			residuals[i] = v - a - b*t[i]
		}
	} else {
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	cumSum := make([]float64, n)
	floats.CumSum(cumSum, residuals)

	// Newey-West long-run variance with Bartlett weights.
	s2 := floats.Dot(residuals, residuals) / float64(n)
	for l := 1; l <= nlags; l++ {
		cov := floats.Dot(residuals[l:], residuals[:n-l]) / float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	eta := floats.Dot(cumSum, cumSum) / (float64(n) * float64(n) * s2)

	crit := map[string]float64{"10%": 0.347, "5%": 0.463, "2.5%": 0.574, "1%": 0.739}
	if regression == RegressionTrend {
		crit = map[string]float64{"10%": 0.119, "5%": 0.146, "2.5%": 0.176, "1%": 0.216}
	}
	pValue := kpssPValue(eta, crit)

	return &KPSSResult{
		Statistic:    eta,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: crit,
		IsStationary: pValue >= 0.05,
	}
}

// kpssPValue interpolates between the tabulated critical values. Results are
// clamped to [0.01, 0.10] as the table does not extend further.
func kpssPValue(eta float64, crit map[string]float64) float64 {
	points := []struct {
		stat, p float64
	}{
		{crit["10%"], 0.10},
		{crit["5%"], 0.05},
		{crit["2.5%"], 0.025},
		{crit["1%"], 0.01},
	}
	if eta <= points[0].stat {
		return 0.10
	}
	for i := 1; i < len(points); i++ {
		lo, hi := points[i-1], points[i]
		if eta <= hi.stat {
			w := (eta - lo.stat) / (hi.stat - lo.stat)
			return lo.p + w*(hi.p-lo.p)
		}
	}
	return 0.01
}
