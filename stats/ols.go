package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OLSResult holds a multivariate least squares fit Y = X B + U.
type OLSResult struct {
	B         *mat.Dense // m x k coefficients, one column per response
	Residuals *mat.Dense // n x k
	XtXInv    *mat.Dense // m x m, nil when X'X is singular
	Sigma     *mat.Dense // k x k residual covariance, U'U / (n - m)
	DF        int        // residual degrees of freedom n - m
}

// StdErrors returns the standard error of every coefficient, shaped like B.
// It returns nil when X'X could not be inverted.
func (r *OLSResult) StdErrors() *mat.Dense {
	if r.XtXInv == nil {
		return nil
	}
	m, k := r.B.Dims()
	se := mat.NewDense(m, k, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			se.Set(i, j, math.Sqrt(r.Sigma.At(j, j)*r.XtXInv.At(i, i)))
		}
	}
	return se
}

// OLS regresses every column of y on x. The normal equations are used when
// X'X is invertible; otherwise the minimum-norm SVD solution is returned
// without standard errors.
func OLS(x, y *mat.Dense) (*OLSResult, error) {
	n, m := x.Dims()
	ny, k := y.Dims()
	if n != ny {
		return nil, fmt.Errorf("stats.OLS: x has %d rows, y has %d", n, ny)
	}
	if n == 0 || m == 0 {
		return nil, errors.New("stats.OLS: empty design matrix")
	}

	var b mat.Dense
	var xtxInv *mat.Dense

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err == nil {
		var xty mat.Dense
		xty.Mul(x.T(), y)
		b.Mul(&inv, &xty)
		xtxInv = &inv
	} else {
		var svd mat.SVD
		if !svd.Factorize(x, mat.SVDThin) {
			return nil, fmt.Errorf("stats.OLS: X'X singular and SVD failed: %w", err)
		}
		rank := svd.Rank(1e-12)
		if rank == 0 {
			b.ReuseAs(m, k)
		} else {
			svd.SolveTo(&b, y, rank)
		}
	}

	var fitted, resid mat.Dense
	fitted.Mul(x, &b)
	resid.Sub(y, &fitted)

	df := n - m
	denom := float64(df)
	if df <= 0 {
		denom = float64(n)
	}
	var utu mat.Dense
	utu.Mul(resid.T(), &resid)
	utu.Scale(1/denom, &utu)

	return &OLSResult{
		B:         &b,
		Residuals: &resid,
		XtXInv:    xtxInv,
		Sigma:     &utu,
		DF:        df,
	}, nil
}
