package varmodel

import (
	"fmt"
	"math"

	"github.com/sartorproj/marketcast/stats"
)

// LagSelection holds the information criteria of VAR(1)..VAR(max) fit on a
// common sample, so the values are comparable across lags.
type LagSelection struct {
	Lags []int
	AIC  []float64
	BIC  []float64
	HQ   []float64

	BestAIC int
	BestBIC int
	BestHQ  int
}

// MaxLag returns the largest lag order a VAR with k series can be fit to on
// n observations with a constant, or 0 when none can. Each equation of a
// VAR(p) needs more than 1 + k*p of the n - p usable rows.
func MaxLag(n, k int) int {
	if k < 1 || n < 2 {
		return 0
	}
	return (n - 2) / (k + 1)
}

// SelectLag fits every lag order up to maxLag on the observations left
// after dropping the first maxLag rows and reports the criteria.
func SelectLag(names []string, columns [][]float64, maxLag int) (*LagSelection, error) {
	if maxLag < 1 {
		return nil, fmt.Errorf("varmodel.SelectLag: maxLag must be at least 1, got %d", maxLag)
	}
	if len(columns) == 0 || len(names) != len(columns) {
		return nil, fmt.Errorf("varmodel.SelectLag: %d names for %d series", len(names), len(columns))
	}
	k := len(columns)
	n := len(columns[0])
	for i, c := range columns {
		if len(c) != n {
			return nil, fmt.Errorf("varmodel.SelectLag: series %q has %d observations, want %d", names[i], len(c), n)
		}
	}
	if t := n - maxLag; t <= 1+k*maxLag {
		return nil, fmt.Errorf("varmodel.SelectLag: %d observations for VAR(%d): %w", t, maxLag, ErrInsufficientData)
	}

	sel := &LagSelection{}
	best := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	for p := 1; p <= maxLag; p++ {
		x, y := design(columns, p, maxLag-p)
		fit, err := stats.OLS(x, y)
		if err != nil {
			return nil, fmt.Errorf("varmodel.SelectLag: VAR(%d): %w", p, err)
		}
		_, aic, bic, hq := criteria(fit.Residuals, 1+k*p)

		sel.Lags = append(sel.Lags, p)
		sel.AIC = append(sel.AIC, aic)
		sel.BIC = append(sel.BIC, bic)
		sel.HQ = append(sel.HQ, hq)

		if aic < best[0] {
			best[0], sel.BestAIC = aic, p
		}
		if bic < best[1] {
			best[1], sel.BestBIC = bic, p
		}
		if hq < best[2] {
			best[2], sel.BestHQ = hq, p
		}
	}
	return sel, nil
}
