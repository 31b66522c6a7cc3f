// Package stats provides the statistical building blocks used to identify and
// check time series models.
//
// # Correlation
//
//	acf := stats.ACFWithConfidence(series, 24)
//	pacf := stats.PACFWithConfidence(series, 24)
//	eacf := stats.EACF(series, 7, 13)
//	orders := eacf.SuggestedOrders()
//
// # Stationarity
//
// ADF has a unit root as its null hypothesis, KPSS has stationarity:
//
//	adf := stats.ADF(series, 0)
//	kpss := stats.KPSS(series, stats.RegressionConstant, 0)
//	d := stats.NDiffs(series, 2, stats.UnitRootKPSS)
//
// # Residual checks
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	qq := stats.QQNormal(residuals.Values)
//
// # Regression and roots
//
// OLS fits multivariate least squares with gonum and backs the ADF test and
// the VAR estimator. LagPolyRoots finds the roots of AR and MA polynomials
// through the companion matrix; a polynomial is stable when every root lies
// outside the unit circle.
package stats
