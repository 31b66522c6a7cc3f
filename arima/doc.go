// Package arima implements non-seasonal ARIMA(p,d,q) models.
//
// The series is differenced d times and an ARMA(p,q) model, with a mean
// when d == 0, is fit to the result by conditional sum of squares. Standard
// errors come from a numerical Hessian of the concentrated likelihood.
//
// # Basic Usage
//
//	model := arima.New(2, 1, 1)
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//
//	coeffs, _ := model.Coefficients()
//	for _, c := range coeffs {
//	    fmt.Printf("%s %.4f (se %.4f)\n", c.Name, c.Estimate, c.StdErr)
//	}
//
//	mean, lower, upper, _ := model.PredictInterval(20, 0.95)
//
// # Stability
//
// ARRoots and MARoots return the roots of the AR and MA polynomials. The
// model is stationary and invertible when all of them lie outside the unit
// circle; Stable reports this but Fit never enforces it.
//
// For automatic order selection, use the autoarima package.
package arima
