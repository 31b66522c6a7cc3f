package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/marketcast/timeseries"
)

// EACFResult is the extended sample autocorrelation table. Row k is the AR
// order, column j the MA order. For an ARMA(p,q) process the symbols form a
// triangle of 'o' with its vertex at row p, column q.
type EACFResult struct {
	MaxAR   int
	MaxMA   int
	Values  [][]float64 // Values[k][j]
	Symbols [][]byte    // 'x' significant, 'o' not, '.' undefined
	N       int
}

// EACF computes the extended autocorrelation table up to maxAR and maxMA.
//
// For each (k, j) the AR(k) coefficients of an ARMA(k, j) process are found
// from the generalized Yule-Walker equations at shift j, the series is
// filtered with them, and the lag j+1 autocorrelation of the filtered series
// is reported. Values beyond 2/sqrt(n-k-j-1) are marked significant.
func EACF(series *timeseries.Series, maxAR, maxMA int) *EACFResult {
	n := series.Len()
	if maxAR < 0 || maxMA < 0 || n < maxAR+maxMA+3 {
		return nil
	}

	z := make([]float64, n)
	mean := series.Mean()
	for i, v := range series.Values {
		z[i] = v - mean
	}

	rho := acf(z, maxAR+maxMA+1)
	if rho == nil {
		return nil
	}
	at := func(lag int) float64 {
		if lag < 0 {
			lag = -lag
		}
		return rho[lag]
	}

	res := &EACFResult{
		MaxAR:   maxAR,
		MaxMA:   maxMA,
		Values:  make([][]float64, maxAR+1),
		Symbols: make([][]byte, maxAR+1),
		N:       n,
	}

	for k := 0; k <= maxAR; k++ {
		res.Values[k] = make([]float64, maxMA+1)
		res.Symbols[k] = make([]byte, maxMA+1)
		for j := 0; j <= maxMA; j++ {
			phi, ok := extendedYuleWalker(at, k, j)
			if !ok {
				res.Values[k][j] = math.NaN()
				res.Symbols[k][j] = '.'
				continue
			}

			w := filterAR(z, phi)
			r := acf(w, j+1)
			if r == nil || len(r) <= j+1 {
				res.Values[k][j] = math.NaN()
				res.Symbols[k][j] = '.'
				continue
			}
			v := r[j+1]
			res.Values[k][j] = v

			bound := 2 / math.Sqrt(float64(n-k-j-1))
			if math.Abs(v) > bound {
				res.Symbols[k][j] = 'x'
			} else {
				res.Symbols[k][j] = 'o'
			}
		}
	}

	return res
}

// SuggestedOrders returns (p, q) pairs whose cell starts a triangle of 'o':
// the cell itself, the cell to its right and the cell below-right are all
// insignificant. Pairs are ordered by p+q, then p.
func (e *EACFResult) SuggestedOrders() [][2]int {
	var out [][2]int
	for total := 0; total <= e.MaxAR+e.MaxMA; total++ {
		for p := 0; p <= min(total, e.MaxAR); p++ {
			q := total - p
			if q > e.MaxMA {
				continue
			}
			if e.vertex(p, q) {
				out = append(out, [2]int{p, q})
			}
		}
	}
	return out
}

func (e *EACFResult) vertex(p, q int) bool {
	if e.Symbols[p][q] != 'o' {
		return false
	}
	if q+1 <= e.MaxMA && e.Symbols[p][q+1] != 'o' {
		return false
	}
	if p+1 <= e.MaxAR && q+1 <= e.MaxMA && e.Symbols[p+1][q+1] != 'o' {
		return false
	}
	return true
}

// extendedYuleWalker solves rho(j+l) = sum_i phi_i rho(j+l-i), l = 1..k.
func extendedYuleWalker(rho func(int) float64, k, j int) ([]float64, bool) {
	if k == 0 {
		return nil, true
	}

	a := mat.NewDense(k, k, nil)
	b := mat.NewVecDense(k, nil)
	for l := 1; l <= k; l++ {
		b.SetVec(l-1, rho(j+l))
		for i := 1; i <= k; i++ {
			a.Set(l-1, i-1, rho(j+l-i))
		}
	}

	var phi mat.VecDense
	if err := phi.SolveVec(a, b); err != nil {
		return nil, false
	}
	out := make([]float64, k)
	for i := range out {
		out[i] = phi.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, false
		}
	}
	return out, true
}

// filterAR returns w_t = z_t - sum_i phi_i z_{t-i} for t >= len(phi).
func filterAR(z, phi []float64) []float64 {
	k := len(phi)
	w := make([]float64, 0, len(z)-k)
	for t := k; t < len(z); t++ {
		v := z[t]
		for i, c := range phi {
			v -= c * z[t-i-1]
		}
		w = append(w, v)
	}
	return w
}
