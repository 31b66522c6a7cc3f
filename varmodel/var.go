package varmodel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/marketcast/stats"
)

var (
	// ErrNotFitted is returned when a zero Model is used.
	ErrNotFitted = errors.New("varmodel: model not fitted")
	// ErrInsufficientData is returned when there are too few observations
	// for the number of regressors.
	ErrInsufficientData = errors.New("varmodel: insufficient data")
)

// Model is a VAR(p) with a constant, estimated equation by equation with OLS:
//
//	y_t = c + A_1 y_{t-1} + ... + A_p y_{t-p} + u_t
type Model struct {
	Names []string
	Lags  int

	A      []*mat.Dense // K x K per lag; A[l].At(i, j) is lag l+1 of series j in equation i
	Const  []float64
	SigmaU *mat.Dense // residual covariance, U'U / (T - Kp - 1)

	NObs   int // T, observations used in estimation
	LogLik float64
	AIC    float64
	BIC    float64
	HQ     float64

	data   [][]float64 // columns
	b      *mat.Dense  // (1 + Kp) x K, one column per equation
	se     *mat.Dense  // same shape as b, nil when X'X is singular
	resid  *mat.Dense  // T x K
	df     int
	fitted bool
}

// Fit estimates a VAR(lags) on the given columns, which must have equal
// lengths and no missing values.
func Fit(names []string, columns [][]float64, lags int) (*Model, error) {
	k := len(columns)
	if k == 0 {
		return nil, errors.New("varmodel.Fit: no series")
	}
	if len(names) != k {
		return nil, fmt.Errorf("varmodel.Fit: %d names for %d series", len(names), k)
	}
	if lags < 1 {
		return nil, fmt.Errorf("varmodel.Fit: lags must be at least 1, got %d", lags)
	}
	n := len(columns[0])
	for i, c := range columns {
		if len(c) != n {
			return nil, fmt.Errorf("varmodel.Fit: series %q has %d observations, want %d", names[i], len(c), n)
		}
		for _, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("varmodel.Fit: series %q contains missing values", names[i])
			}
		}
	}

	m := 1 + k*lags
	t := n - lags
	if t <= m {
		return nil, fmt.Errorf("varmodel.Fit: %d observations for %d regressors: %w", t, m, ErrInsufficientData)
	}

	x, y := design(columns, lags, 0)
	fit, err := stats.OLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("varmodel.Fit: %w", err)
	}

	model := &Model{
		Names:  append([]string(nil), names...),
		Lags:   lags,
		A:      make([]*mat.Dense, lags),
		Const:  make([]float64, k),
		SigmaU: fit.Sigma,
		NObs:   t,
		data:   columns,
		b:      fit.B,
		se:     fit.StdErrors(),
		resid:  fit.Residuals,
		df:     fit.DF,
		fitted: true,
	}
	for i := 0; i < k; i++ {
		model.Const[i] = fit.B.At(0, i)
	}
	for l := 0; l < lags; l++ {
		a := mat.NewDense(k, k, nil)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				a.Set(i, j, fit.B.At(1+l*k+j, i))
			}
		}
		model.A[l] = a
	}

	model.LogLik, model.AIC, model.BIC, model.HQ = criteria(fit.Residuals, m)
	return model, nil
}

// design builds the regressor matrix [1, y_{t-1}, ..., y_{t-p}] and the
// response matrix for t = skip+p .. n-1.
func design(columns [][]float64, lags, skip int) (*mat.Dense, *mat.Dense) {
	k := len(columns)
	n := len(columns[0])
	t := n - lags - skip
	x := mat.NewDense(t, 1+k*lags, nil)
	y := mat.NewDense(t, k, nil)
	for r := 0; r < t; r++ {
		row := r + skip + lags
		x.Set(r, 0, 1)
		for l := 1; l <= lags; l++ {
			for j := 0; j < k; j++ {
				x.Set(r, 1+(l-1)*k+j, columns[j][row-l])
			}
		}
		for j := 0; j < k; j++ {
			y.Set(r, j, columns[j][row])
		}
	}
	return x, y
}

// criteria returns the Gaussian log-likelihood and the per-observation
// AIC, BIC and Hannan-Quinn criteria from the ML residual covariance.
func criteria(resid *mat.Dense, regressors int) (logLik, aic, bic, hq float64) {
	t, k := resid.Dims()
	var sigma mat.Dense
	sigma.Mul(resid.T(), resid)
	sigma.Scale(1/float64(t), &sigma)

	logDet, sign := mat.LogDet(&sigma)
	if sign <= 0 {
		logDet = math.Inf(-1)
	}
	tf, kf := float64(t), float64(k)
	free := kf * float64(regressors)

	logLik = -tf*kf/2*math.Log(2*math.Pi) - tf/2*logDet - tf*kf/2
	aic = logDet + 2*free/tf
	bic = logDet + math.Log(tf)*free/tf
	hq = logDet + 2*math.Log(math.Log(tf))*free/tf
	return logLik, aic, bic, hq
}

// K returns the number of series.
func (m *Model) K() int {
	return len(m.Names)
}

// Residuals returns the T x K residual matrix.
func (m *Model) Residuals() *mat.Dense {
	if m == nil || !m.fitted {
		return nil
	}
	return mat.DenseCopyOf(m.resid)
}

// Coefficient is one regression coefficient of one equation.
type Coefficient struct {
	Equation string
	Name     string // "const" or "L<lag>.<series>"
	Estimate float64
	StdErr   float64
	T        float64
	PValue   float64
}

// Coefficients lists every coefficient with its t statistic and two-sided
// Student-t p-value, equation by equation.
func (m *Model) Coefficients() ([]Coefficient, error) {
	if m == nil || !m.fitted {
		return nil, ErrNotFitted
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(m.df)}
	rows, k := m.b.Dims()
	out := make([]Coefficient, 0, rows*k)
	for eq := 0; eq < k; eq++ {
		for r := 0; r < rows; r++ {
			c := Coefficient{
				Equation: m.Names[eq],
				Name:     m.regressorName(r),
				Estimate: m.b.At(r, eq),
				StdErr:   math.NaN(),
				T:        math.NaN(),
				PValue:   math.NaN(),
			}
			if m.se != nil && m.se.At(r, eq) > 0 {
				c.StdErr = m.se.At(r, eq)
				c.T = c.Estimate / c.StdErr
				c.PValue = 2 * tdist.Survival(math.Abs(c.T))
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Model) regressorName(r int) string {
	if r == 0 {
		return "const"
	}
	k := m.K()
	lag := (r-1)/k + 1
	return fmt.Sprintf("L%d.%s", lag, m.Names[(r-1)%k])
}

// Companion returns the Kp x Kp companion matrix of the lag polynomial.
func (m *Model) Companion() *mat.Dense {
	k, p := m.K(), m.Lags
	c := mat.NewDense(k*p, k*p, nil)
	for l, a := range m.A {
		c.Slice(0, k, l*k, (l+1)*k).(*mat.Dense).Copy(a)
	}
	for i := k; i < k*p; i++ {
		c.Set(i, i-k, 1)
	}
	return c
}

// Eigenvalues returns the eigenvalues of the companion matrix.
func (m *Model) Eigenvalues() ([]complex128, error) {
	eig, err := stats.Eigenvalues(m.Companion())
	if err != nil {
		return nil, fmt.Errorf("varmodel.Eigenvalues: %w", err)
	}
	return eig, nil
}

// Roots returns the roots of det(I - A_1 z - ... - A_p z^p), the
// reciprocals of the non-zero companion eigenvalues.
func (m *Model) Roots() ([]complex128, error) {
	eig, err := m.Eigenvalues()
	if err != nil {
		return nil, err
	}
	var roots []complex128
	for _, l := range eig {
		if cmplx.Abs(l) > 0 {
			roots = append(roots, 1/l)
		}
	}
	return roots, nil
}

// Stable reports whether every root lies outside the unit circle. It is
// false when the roots cannot be computed.
func (m *Model) Stable() bool {
	roots, err := m.Roots()
	return err == nil && stats.OutsideUnitCircle(roots)
}
