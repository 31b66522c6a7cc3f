// Package varmodel fits vector autoregressions with a constant by ordinary
// least squares.
//
//	model, err := varmodel.Fit([]string{"usdjpy", "gold"}, columns, 2)
//	if err != nil {
//	    return err
//	}
//	coeffs, _ := model.Coefficients()
//	fc, _ := model.ForecastInterval(20, 0.95)
//
// Forecast bounds come from the MSE matrices of the moving average
// representation. SelectLag compares lag orders on a common sample and
// Granger runs the F-test for excluding one series from another's equation.
// Stability is reported through the companion matrix eigenvalues.
package varmodel
