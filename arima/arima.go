package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/timeseries"
)

var (
	// ErrNotFitted is returned when a model is used before Fit succeeds.
	ErrNotFitted = errors.New("arima: model not fitted")
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("arima: insufficient data")
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order
	D int // differencing order
	Q int // MA order
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model is an ARIMA model fit by conditional sum of squares.
//
// The differenced series w_t follows
//
//	w_t - mu = sum_i phi_i (w_{t-i} - mu) + e_t + sum_j theta_j e_{t-j}
//
// where mu is estimated only when D == 0.
type Model struct {
	Order       Order
	ARCoeffs    []float64
	MACoeffs    []float64
	Intercept   float64
	IncludeMean bool
	Variance    float64 // sigma^2 = SSE / NObs
	AIC         float64
	AICc        float64
	BIC         float64
	LogLik      float64
	NObs        int // observations entering the conditional likelihood

	fitted     bool
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
	cov        *mat.SymDense
}

// New creates an unfitted model of the given order.
func New(p, d, q int) *Model {
	return &Model{
		Order:       Order{P: p, D: d, Q: q},
		ARCoeffs:    make([]float64, p),
		MACoeffs:    make([]float64, q),
		IncludeMean: d == 0,
	}
}

// Fit estimates the model on series.
func (m *Model) Fit(series *timeseries.Series) error {
	o := m.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("arima.Fit: invalid order %s", o)
	}
	if series.Len() < o.P+o.Q+o.D+10 {
		return fmt.Errorf("arima.Fit: %d observations for %s: %w", series.Len(), o, ErrInsufficientData)
	}
	if series.HasNaN() {
		return fmt.Errorf("arima.Fit: series %q contains missing values", series.Name)
	}

	m.fitted = false
	m.data = series
	m.diffData = series.DiffN(o.D)
	m.NObs = m.diffData.Len() - o.P
	if m.NObs <= o.P+o.Q+1 {
		return fmt.Errorf("arima.Fit: %d usable observations for %s: %w", m.NObs, o, ErrInsufficientData)
	}

	y := m.diffData.Values
	start := m.initialParams(y)
	resid := make([]float64, len(y))
	objective := func(x []float64) float64 {
		return m.negLogLik(x, y, resid)
	}

	x := start
	if len(start) > 0 {
		res, err := optimize.Minimize(optimize.Problem{Func: objective}, start, &optimize.Settings{
			FuncEvaluations: 20000,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-10,
				Iterations: 200,
			},
		}, &optimize.NelderMead{})
		if res == nil || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
			return fmt.Errorf("arima.Fit: %s: optimization failed: %v", o, err)
		}
		x = res.X
	}

	m.setParams(x)
	sse := m.css(x, y, resid)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return fmt.Errorf("arima.Fit: %s: non-finite sum of squares", o)
	}

	m.residuals = make([]float64, m.NObs)
	m.fittedVals = make([]float64, m.NObs)
	for t := o.P; t < len(y); t++ {
		m.residuals[t-o.P] = resid[t]
		m.fittedVals[t-o.P] = y[t] - resid[t]
	}

	n := float64(m.NObs)
	m.Variance = sse / n
	m.LogLik = -0.5 * n * (math.Log(2*math.Pi*m.Variance) + 1)
	ic := stats.CalculateIC(m.LogLik, m.NObs, len(x)+1)
	m.AIC, m.AICc, m.BIC = ic.AIC, ic.AICc, ic.BIC

	m.cov = nil
	if len(x) > 0 {
		var h mat.SymDense
		fd.Hessian(&h, objective, x, nil)
		var chol mat.Cholesky
		if chol.Factorize(&h) {
			var cov mat.SymDense
			if err := chol.InverseTo(&cov); err == nil {
				m.cov = &cov
			}
		}
	}

	m.fitted = true
	return nil
}

func (m *Model) initialParams(y []float64) []float64 {
	p, q := m.Order.P, m.Order.Q
	x := make([]float64, 0, p+q+1)

	ar := make([]float64, p)
	if p > 0 {
		if r := stats.ACF(m.diffData, p); r != nil {
			if phi := yuleWalker(r, p); phi != nil {
				if roots, err := stats.LagPolyRoots(phi); err == nil && stats.OutsideUnitCircle(roots) {
					ar = phi
				}
			}
		}
	}
	x = append(x, ar...)
	x = append(x, make([]float64, q)...)
	if m.IncludeMean {
		x = append(x, m.diffData.Mean())
	}
	return x
}

func (m *Model) setParams(x []float64) {
	p, q := m.Order.P, m.Order.Q
	m.ARCoeffs = append(m.ARCoeffs[:0], x[:p]...)
	m.MACoeffs = append(m.MACoeffs[:0], x[p:p+q]...)
	m.Intercept = 0
	if m.IncludeMean {
		m.Intercept = x[p+q]
	}
}

// css fills resid and returns the conditional sum of squares for x.
// Residuals before index P are zero.
func (m *Model) css(x, y, resid []float64) float64 {
	p, q := m.Order.P, m.Order.Q
	ar, ma := x[:p], x[p:p+q]
	mu := 0.0
	if m.IncludeMean {
		mu = x[p+q]
	}

	sse := 0.0
	for t := range y {
		if t < p {
			resid[t] = 0
			continue
		}
		pred := mu
		for i, phi := range ar {
			pred += phi * (y[t-i-1] - mu)
		}
		for j, theta := range ma {
			if t-j-1 >= 0 {
				pred += theta * resid[t-j-1]
			}
		}
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse
}

// negLogLik is the conditional negative log-likelihood with sigma^2
// concentrated out, up to a constant.
func (m *Model) negLogLik(x, y, resid []float64) float64 {
	sse := m.css(x, y, resid)
	if math.IsNaN(sse) || math.IsInf(sse, 0) || sse > 1e200 {
		return 1e100
	}
	n := float64(m.NObs)
	return 0.5 * n * math.Log(math.Max(sse, 1e-300)/n)
}

// Coefficient is one estimated parameter.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	Z        float64
	PValue   float64
}

// Coefficients returns the AR, MA and intercept estimates with standard
// errors from the inverse Hessian. Standard errors are NaN when the Hessian
// is not positive definite.
func (m *Model) Coefficients() ([]Coefficient, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	var out []Coefficient
	add := func(name string, est float64) {
		c := Coefficient{Name: name, Estimate: est, StdErr: math.NaN(), Z: math.NaN(), PValue: math.NaN()}
		if m.cov != nil {
			if v := m.cov.At(len(out), len(out)); v > 0 {
				c.StdErr = math.Sqrt(v)
				c.Z = est / c.StdErr
				c.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(c.Z))
			}
		}
		out = append(out, c)
	}
	for i, v := range m.ARCoeffs {
		add(fmt.Sprintf("ar%d", i+1), v)
	}
	for i, v := range m.MACoeffs {
		add(fmt.Sprintf("ma%d", i+1), v)
	}
	if m.IncludeMean {
		add("intercept", m.Intercept)
	}
	return out, nil
}

// ARRoots returns the roots of 1 - phi_1 z - ... - phi_p z^p.
func (m *Model) ARRoots() ([]complex128, error) {
	roots, err := stats.LagPolyRoots(m.ARCoeffs)
	if err != nil {
		return nil, fmt.Errorf("arima.ARRoots: %w", err)
	}
	return roots, nil
}

// MARoots returns the roots of 1 + theta_1 z + ... + theta_q z^q.
func (m *Model) MARoots() ([]complex128, error) {
	neg := make([]float64, len(m.MACoeffs))
	for i, v := range m.MACoeffs {
		neg[i] = -v
	}
	roots, err := stats.LagPolyRoots(neg)
	if err != nil {
		return nil, fmt.Errorf("arima.MARoots: %w", err)
	}
	return roots, nil
}

// Stable reports whether the AR part is stationary and the MA part
// invertible. It is false when either set of roots cannot be computed.
func (m *Model) Stable() bool {
	ar, err := m.ARRoots()
	if err != nil {
		return false
	}
	ma, err := m.MARoots()
	if err != nil {
		return false
	}
	return stats.OutsideUnitCircle(ar) && stats.OutsideUnitCircle(ma)
}

// Residuals returns the conditional residuals, one per usable observation.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// FittedValues returns one-step fitted values of the differenced series,
// aligned with Residuals.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	copy(out, m.fittedVals)
	return out
}

// Summary describes a fitted model.
type Summary struct {
	Order        Order
	Coefficients []Coefficient
	Variance     float64
	AIC          float64
	AICc         float64
	BIC          float64
	LogLik       float64
	NObs         int
	LjungBox     *stats.LjungBoxResult
	ARRoots      []complex128
	MARoots      []complex128
	RootsErr     error // set when the roots could not be computed
	Stable       bool
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}
	coeffs, _ := m.Coefficients()
	resid := timeseries.New("residuals", m.residuals)
	ar, arErr := m.ARRoots()
	ma, maErr := m.MARoots()

	return &Summary{
		Order:        m.Order,
		Coefficients: coeffs,
		Variance:     m.Variance,
		AIC:          m.AIC,
		AICc:         m.AICc,
		BIC:          m.BIC,
		LogLik:       m.LogLik,
		NObs:         m.NObs,
		LjungBox:     stats.LjungBox(resid, 10, m.Order.P+m.Order.Q),
		ARRoots:      ar,
		MARoots:      ma,
		RootsErr:     errors.Join(arErr, maErr),
		Stable:       arErr == nil && maErr == nil && stats.OutsideUnitCircle(ar) && stats.OutsideUnitCircle(ma),
	}
}

// yuleWalker solves the Yule-Walker equations R phi = r for the AR(order)
// coefficients given autocorrelations r[0..order].
func yuleWalker(r []float64, order int) []float64 {
	if order <= 0 || len(r) <= order {
		return nil
	}
	a := mat.NewDense(order, order, nil)
	b := mat.NewVecDense(order, r[1:order+1])
	for i := 0; i < order; i++ {
		for j := 0; j < order; j++ {
			k := i - j
			if k < 0 {
				k = -k
			}
			a.Set(i, j, r[k])
		}
	}
	var phi mat.VecDense
	if err := phi.SolveVec(a, b); err != nil {
		return nil
	}
	return phi.RawVector().Data
}
