// Package report renders the run's output: PNG or SVG charts drawn with
// gonum/plot and plain-text tables drawn with tablewriter.
//
// Charts cover the raw series, normal Q-Q points, ACF and PACF correlograms
// and forecast ribbons. Tables cover the EACF grid, unit root tests, model
// summaries, the automatic order search, VAR lag selection, Granger tests
// and the ARIMA versus VAR interval half-width comparison.
package report
