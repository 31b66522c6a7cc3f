package autoarima

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/sartorproj/marketcast/arima"
	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/timeseries"
)

// Information criteria accepted by Config.Criterion.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// ErrNoModel is returned when no candidate order could be fit.
var ErrNoModel = errors.New("autoarima: no candidate model could be fit")

// Config holds configuration for the order search.
type Config struct {
	MaxP        int    // maximum AR order
	MaxD        int    // maximum differencing order
	MaxQ        int    // maximum MA order
	Stepwise    bool   // stepwise search instead of the full grid
	Criterion   string // "aic", "aicc" or "bic"
	StationTest string // "kpss" or "adf"
	// D fixes the differencing order when non-negative.
	D int
	// Logger receives one debug line per candidate. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        5,
		MaxD:        2,
		MaxQ:        5,
		Stepwise:    true,
		Criterion:   CriterionAIC,
		StationTest: stats.UnitRootKPSS,
		D:           -1,
	}
}

// Validate checks the search bounds and criterion.
func (c *Config) Validate() error {
	if c.MaxP < 0 || c.MaxQ < 0 || c.MaxD < 0 {
		return fmt.Errorf("autoarima: negative bound in MaxP=%d MaxD=%d MaxQ=%d", c.MaxP, c.MaxD, c.MaxQ)
	}
	switch c.Criterion {
	case CriterionAIC, CriterionAICc, CriterionBIC:
	default:
		return fmt.Errorf("autoarima: unknown criterion %q", c.Criterion)
	}
	switch c.StationTest {
	case stats.UnitRootKPSS, stats.UnitRootADF:
	default:
		return fmt.Errorf("autoarima: unknown stationarity test %q", c.StationTest)
	}
	return nil
}

// Candidate is one evaluated order.
type Candidate struct {
	Order     arima.Order
	AIC       float64
	AICc      float64
	BIC       float64
	Criterion float64
}

// Result is the outcome of the search.
type Result struct {
	Model *arima.Model
	Order arima.Order

	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	Criterion float64

	// Candidates lists every successfully fit order, best first.
	Candidates      []Candidate
	ModelsEvaluated int
}

// AutoARIMA selects the ARIMA order minimising the configured criterion.
func AutoARIMA(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	d := config.D
	if d < 0 {
		d = determineDifferencing(series, config.MaxD, config.StationTest)
	}

	s := &search{series: series, d: d, config: config, seen: make(map[[2]int]bool)}
	if config.Stepwise {
		s.stepwise()
	} else {
		s.grid()
	}

	if s.best == nil {
		return nil, fmt.Errorf("autoarima.AutoARIMA: d=%d: %w", d, ErrNoModel)
	}

	sort.SliceStable(s.candidates, func(i, j int) bool {
		return s.candidates[i].Criterion < s.candidates[j].Criterion
	})

	m := s.best
	return &Result{
		Model:           m,
		Order:           m.Order,
		AIC:             m.AIC,
		AICc:            m.AICc,
		BIC:             m.BIC,
		LogLik:          m.LogLik,
		Criterion:       s.bestCriterion,
		Candidates:      s.candidates,
		ModelsEvaluated: len(s.candidates),
	}, nil
}

// determineDifferencing returns the number of differences after which the
// series looks stationary. With KPSS the ADF test must agree unless KPSS
// is clearly on the stationary side.
func determineDifferencing(series *timeseries.Series, maxD int, testType string) int {
	if testType == stats.UnitRootADF {
		return stats.NDiffs(series, maxD, stats.UnitRootADF)
	}

	current := series
	for d := 0; d < maxD; d++ {
		kpss := stats.KPSS(current, stats.RegressionConstant, 0)
		adf := stats.ADF(current, 0)
		kpssStationary := kpss != nil && kpss.IsStationary
		adfStationary := adf != nil && adf.IsStationary

		if kpssStationary && (adfStationary || kpss.PValue > 0.1) {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return maxD
}

type search struct {
	series *timeseries.Series
	d      int
	config *Config

	seen          map[[2]int]bool
	candidates    []Candidate
	best          *arima.Model
	bestCriterion float64
}

// try fits ARIMA(p,d,q) once and reports whether it improved on the best.
func (s *search) try(p, q int) bool {
	if p < 0 || q < 0 || p > s.config.MaxP || q > s.config.MaxQ {
		return false
	}
	key := [2]int{p, q}
	if s.seen[key] {
		return false
	}
	s.seen[key] = true

	model := arima.New(p, s.d, q)
	if err := model.Fit(s.series); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Debug("candidate failed", "order", model.Order.String(), "error", err)
		}
		return false
	}

	crit := s.criterion(model)
	s.candidates = append(s.candidates, Candidate{
		Order:     model.Order,
		AIC:       model.AIC,
		AICc:      model.AICc,
		BIC:       model.BIC,
		Criterion: crit,
	})
	if s.config.Logger != nil {
		s.config.Logger.Debug("candidate fit", "order", model.Order.String(), s.config.Criterion, crit)
	}

	if s.best == nil || crit < s.bestCriterion {
		s.best = model
		s.bestCriterion = crit
		return true
	}
	return false
}

func (s *search) criterion(m *arima.Model) float64 {
	var v float64
	switch s.config.Criterion {
	case CriterionBIC:
		v = m.BIC
	case CriterionAICc:
		v = m.AICc
	default:
		v = m.AIC
	}
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

func (s *search) grid() {
	for p := 0; p <= s.config.MaxP; p++ {
		for q := 0; q <= s.config.MaxQ; q++ {
			s.try(p, q)
		}
	}
}

// stepwise starts from a few small orders and moves to the best neighbour
// until no neighbour improves the criterion.
func (s *search) stepwise() {
	for _, o := range [][2]int{{2, 2}, {0, 0}, {1, 0}, {0, 1}} {
		s.try(o[0], o[1])
	}
	if s.best == nil {
		return
	}

	for {
		p, q := s.best.Order.P, s.best.Order.Q
		improved := false
		for _, n := range [][2]int{
			{p + 1, q}, {p - 1, q}, {p, q + 1}, {p, q - 1},
			{p + 1, q + 1}, {p - 1, q - 1}, {p + 1, q - 1}, {p - 1, q + 1},
		} {
			if s.try(n[0], n[1]) {
				improved = true
			}
		}
		if !improved {
			return
		}
	}
}

// Predict forecasts with the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	return r.Model.Predict(steps)
}

// Residuals returns the residuals of the selected model.
func (r *Result) Residuals() []float64 {
	return r.Model.Residuals()
}
