package varmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/marketcast/stats"
)

// GrangerResult is the outcome of an F-test that every lag of Cause has a
// zero coefficient in the equation of Effect.
type GrangerResult struct {
	Cause       string
	Effect      string
	Lags        int
	FStatistic  float64
	DF1, DF2    int
	PValue      float64
	Significant bool // PValue < 0.05
}

func (m *Model) index(name string) (int, error) {
	for i, n := range m.Names {
		if n == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("varmodel: unknown series %q", name)
}

// Granger tests whether cause Granger-causes effect.
func (m *Model) Granger(cause, effect string) (*GrangerResult, error) {
	if m == nil || !m.fitted {
		return nil, ErrNotFitted
	}
	ci, err := m.index(cause)
	if err != nil {
		return nil, err
	}
	ei, err := m.index(effect)
	if err != nil {
		return nil, err
	}
	if ci == ei {
		return nil, fmt.Errorf("varmodel.Granger: cause and effect are both %q", cause)
	}

	k, p := m.K(), m.Lags
	x, y := design(m.data, p, 0)
	t, cols := x.Dims()

	// Restricted regressors drop every lag of the cause series.
	keep := []int{0}
	for l := 0; l < p; l++ {
		for j := 0; j < k; j++ {
			if j != ci {
				keep = append(keep, 1+l*k+j)
			}
		}
	}
	xr := mat.NewDense(t, len(keep), nil)
	for c, src := range keep {
		for r := 0; r < t; r++ {
			xr.Set(r, c, x.At(r, src))
		}
	}
	yr := mat.NewDense(t, 1, nil)
	yr.Copy(y.ColView(ei))

	restricted, err := stats.OLS(xr, yr)
	if err != nil {
		return nil, fmt.Errorf("varmodel.Granger: restricted fit: %w", err)
	}

	rssU := sumSquares(m.resid.ColView(ei))
	rssR := sumSquares(restricted.Residuals.ColView(0))

	res := &GrangerResult{
		Cause:  cause,
		Effect: effect,
		Lags:   p,
		DF1:    p,
		DF2:    t - cols,
		PValue: 1,
	}
	num := math.Max(rssR-rssU, 0)
	den := rssU / float64(res.DF2)
	if num > 0 && den > 0 {
		res.FStatistic = (num / float64(p)) / den
		f := distuv.F{D1: float64(res.DF1), D2: float64(res.DF2)}
		res.PValue = f.Survival(res.FStatistic)
	}
	res.Significant = res.PValue < 0.05
	return res, nil
}

// GrangerMatrix runs Granger for every ordered pair of distinct series.
func (m *Model) GrangerMatrix() ([]*GrangerResult, error) {
	var out []*GrangerResult
	for _, cause := range m.Names {
		for _, effect := range m.Names {
			if cause == effect {
				continue
			}
			r, err := m.Granger(cause, effect)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func sumSquares(v mat.Vector) float64 {
	return mat.Dot(v, v)
}
