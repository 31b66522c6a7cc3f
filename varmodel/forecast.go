package varmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/marketcast/stats"
)

// Forecast holds a joint forecast. Rows are steps ahead, columns series.
type Forecast struct {
	Names []string
	Mean  [][]float64
	Lower [][]float64
	Upper [][]float64
	// StdErr[h][k] is sqrt of the k-th diagonal of the h+1 step MSE matrix.
	StdErr [][]float64
}

// Series returns the mean, lower and upper paths of one series.
func (f *Forecast) Series(name string) (mean, lower, upper []float64, err error) {
	idx := -1
	for i, n := range f.Names {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, nil, fmt.Errorf("varmodel: no series %q in forecast", name)
	}
	for h := range f.Mean {
		mean = append(mean, f.Mean[h][idx])
		lower = append(lower, f.Lower[h][idx])
		upper = append(upper, f.Upper[h][idx])
	}
	return mean, lower, upper, nil
}

// Predict returns the recursive point forecast for steps ahead.
func (m *Model) Predict(steps int) ([][]float64, error) {
	if m == nil || !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, fmt.Errorf("varmodel.Predict: steps must be at least 1, got %d", steps)
	}

	k, p := m.K(), m.Lags
	n := len(m.data[0])

	// hist[i] is the observation i steps before the forecast origin.
	hist := make([][]float64, 0, p)
	for l := 1; l <= p; l++ {
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			row[j] = m.data[j][n-l]
		}
		hist = append(hist, row)
	}

	out := make([][]float64, steps)
	for h := 0; h < steps; h++ {
		next := make([]float64, k)
		for i := 0; i < k; i++ {
			v := m.Const[i]
			for l := 0; l < p; l++ {
				for j := 0; j < k; j++ {
					v += m.A[l].At(i, j) * hist[l][j]
				}
			}
			next[i] = v
		}
		out[h] = next
		hist = append([][]float64{next}, hist[:p-1]...)
	}
	return out, nil
}

// PsiMatrices returns the MA(infinity) coefficient matrices Psi_0..Psi_{n-1},
// with Psi_0 = I and Psi_i = sum_{j=1}^{min(i,p)} Psi_{i-j} A_j.
func (m *Model) PsiMatrices(n int) []*mat.Dense {
	k := m.K()
	psi := make([]*mat.Dense, n)
	for i := 0; i < n; i++ {
		cur := mat.NewDense(k, k, nil)
		if i == 0 {
			for d := 0; d < k; d++ {
				cur.Set(d, d, 1)
			}
		}
		for j := 1; j <= min(i, m.Lags); j++ {
			var term mat.Dense
			term.Mul(psi[i-j], m.A[j-1])
			cur.Add(cur, &term)
		}
		psi[i] = cur
	}
	return psi
}

// MSE returns the forecast error covariance matrices for 1..steps ahead:
// Sigma(h) = sum_{i<h} Psi_i SigmaU Psi_i'.
func (m *Model) MSE(steps int) []*mat.Dense {
	k := m.K()
	psi := m.PsiMatrices(steps)
	out := make([]*mat.Dense, steps)
	acc := mat.NewDense(k, k, nil)
	for h := 0; h < steps; h++ {
		var tmp, term mat.Dense
		tmp.Mul(psi[h], m.SigmaU)
		term.Mul(&tmp, psi[h].T())
		acc.Add(acc, &term)
		out[h] = mat.DenseCopyOf(acc)
	}
	return out
}

// ForecastInterval returns the joint forecast with per-series bounds
// mean +/- z * sqrt(Sigma(h)_kk) at the given confidence level.
func (m *Model) ForecastInterval(steps int, level float64) (*Forecast, error) {
	if level <= 0 || level >= 1 {
		return nil, fmt.Errorf("varmodel.ForecastInterval: level %v outside (0, 1)", level)
	}
	mean, err := m.Predict(steps)
	if err != nil {
		return nil, err
	}

	z := stats.NormalQuantile(level)
	mse := m.MSE(steps)
	k := m.K()
	f := &Forecast{
		Names:  append([]string(nil), m.Names...),
		Mean:   mean,
		Lower:  make([][]float64, steps),
		Upper:  make([][]float64, steps),
		StdErr: make([][]float64, steps),
	}
	for h := 0; h < steps; h++ {
		f.Lower[h] = make([]float64, k)
		f.Upper[h] = make([]float64, k)
		f.StdErr[h] = make([]float64, k)
		for i := 0; i < k; i++ {
			se := math.Sqrt(math.Max(mse[h].At(i, i), 0))
			f.StdErr[h][i] = se
			f.Lower[h][i] = mean[h][i] - z*se
			f.Upper[h][i] = mean[h][i] + z*se
		}
	}
	return f, nil
}
