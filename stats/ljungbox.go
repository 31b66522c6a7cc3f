package stats

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/marketcast/timeseries"
)

// LjungBoxResult is the outcome of a portmanteau test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// WhiteNoise reports whether H0 (no autocorrelation) survives at level alpha.
func (r *LjungBoxResult) WhiteNoise(alpha float64) bool {
	return r.PValue > alpha
}

// LjungBox tests for autocorrelation up to lag h. fitdf is the number of
// estimated ARMA parameters and is subtracted from the degrees of freedom.
func LjungBox(series *timeseries.Series, lags, fitdf int) *LjungBoxResult {
	return portmanteau(series, lags, fitdf, true)
}

// BoxPierce is the unweighted variant of LjungBox.
func BoxPierce(series *timeseries.Series, lags, fitdf int) *LjungBoxResult {
	return portmanteau(series, lags, fitdf, false)
}

func portmanteau(series *timeseries.Series, lags, fitdf int, weighted bool) *LjungBoxResult {
	n := series.Len()
	if n < 10 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	r := ACF(series, lags)
	if r == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		if weighted {
			q += r[k] * r[k] / float64(n-k)
		} else {
			q += r[k] * r[k]
		}
	}
	if weighted {
		q *= float64(n * (n + 2))
	} else {
		q *= float64(n)
	}

	dof := max(lags-fitdf, 1)
	chi := distuv.ChiSquared{K: float64(dof)}

	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}
