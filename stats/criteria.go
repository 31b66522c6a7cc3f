package stats

import (
	"math"

	"github.com/sartorproj/marketcast/timeseries"
)

// Unit root tests accepted by NDiffs.
const (
	UnitRootKPSS = "kpss"
	UnitRootADF  = "adf"
)

// NDiffs returns the number of first differences, at most maxD, after which
// the chosen test accepts stationarity. testType is UnitRootKPSS (default) or
// UnitRootADF.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		if stationary(current, testType) {
			return d
		}
		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return maxD
}

func stationary(s *timeseries.Series, testType string) bool {
	if testType == UnitRootADF {
		r := ADF(s, 0)
		return r != nil && r.IsStationary
	}
	r := KPSS(s, RegressionConstant, 0)
	return r != nil && r.IsStationary
}

// InformationCriteria bundles the usual likelihood-based criteria.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	HQIC   float64
	LogLik float64
}

// CalculateIC computes the criteria for a model with nParams estimated
// parameters fit to nObs observations.
func CalculateIC(logLik float64, nObs, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	return &InformationCriteria{
		AIC:    aic,
		AICc:   AICc(aic, nObs, nParams),
		BIC:    -2*logLik + k*math.Log(n),
		HQIC:   -2*logLik + 2*k*math.Log(math.Log(n)),
		LogLik: logLik,
	}
}

// AICc applies the small-sample correction 2k(k+1)/(n-k-1) to aic.
func AICc(aic float64, nObs, nParams int) float64 {
	k := float64(nParams)
	n := float64(nObs)
	if n-k-1 <= 0 {
		return math.Inf(1)
	}
	return aic + 2*k*(k+1)/(n-k-1)
}
