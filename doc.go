// Package marketcast forecasts market indicators (USD/JPY, gold futures,
// the VIX and a daily news sentiment score) with ARIMA and VAR models.
//
// A run is one linear batch: load the four CSV sources, merge them on the
// trading date, keep every Kth trading day, compute identification
// diagnostics, fit the models, forecast with interval bounds and render the
// plots and tables. The cmd/marketcast binary drives it from a YAML
// configuration.
//
// # Quick Start
//
//	cfg, _ := config.Load("config/config.yaml")
//	res, err := pipeline.New(cfg, slog.Default(), os.Stdout).Run()
//
// The model packages can also be used directly:
//
//	model := arima.New(2, 1, 1)
//	_ = model.Fit(series)
//	mean, lower, upper, _ := model.PredictInterval(20, 0.95)
//
//	v, _ := varmodel.Fit([]string{"VIX.Close", "News.Sentiment"}, columns, 2)
//	joint, _ := v.ForecastInterval(20, 0.95)
//
// # Packages
//
//   - timeseries: series values and the CSV frame reader
//   - dataset: loading, merging, resampling and CSV export
//   - stats: correlograms, EACF, unit root and portmanteau tests, OLS, roots
//   - arima: conditional least squares ARIMA fitting and forecasting
//   - autoarima: information criterion order search
//   - varmodel: vector autoregression, lag selection and Granger tests
//   - diagnostics: per-series identification summaries
//   - forecast: Day-indexed forecast paths and interval half-widths
//   - report: gonum/plot charts and tablewriter tables
//   - pipeline: one end-to-end run
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Tsay, R.S., & Tiao, G.C. (1984). Consistent estimates of autoregressive
//     parameters and extended sample autocorrelation function for stationary
//     and nonstationary ARMA models
//   - Lütkepohl, H. (2005). New Introduction to Multiple Time Series Analysis
package marketcast
