package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/sartorproj/marketcast/arima"
	"github.com/sartorproj/marketcast/autoarima"
	"github.com/sartorproj/marketcast/diagnostics"
	"github.com/sartorproj/marketcast/forecast"
	"github.com/sartorproj/marketcast/stats"
	"github.com/sartorproj/marketcast/varmodel"
)

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func render(table *tablewriter.Table, rows [][]string) error {
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteEACF prints the EACF symbol grid, AR order down and MA order across.
func WriteEACF(w io.Writer, e *stats.EACFResult) error {
	if e == nil {
		return errors.New("report.WriteEACF: no table")
	}
	header := []string{"AR/MA"}
	for j := 0; j <= e.MaxMA; j++ {
		header = append(header, strconv.Itoa(j))
	}
	rows := make([][]string, 0, e.MaxAR+1)
	for k, syms := range e.Symbols {
		row := []string{strconv.Itoa(k)}
		for _, s := range syms {
			row = append(row, string(s))
		}
		rows = append(rows, row)
	}

	table := tablewriter.NewWriter(w)
	table.Header(header)
	return render(table, rows)
}

// WriteDiagnostics prints the unit root and portmanteau tests of a summary.
func WriteDiagnostics(w io.Writer, s *diagnostics.Summary) error {
	if s == nil {
		return errors.New("report.WriteDiagnostics: no summary")
	}
	var rows [][]string
	if s.ADF != nil {
		verdict := "unit root"
		if s.ADF.IsStationary {
			verdict = "stationary"
		}
		rows = append(rows, []string{"ADF", num(s.ADF.Statistic, 4), num(s.ADF.PValue, 4), strconv.Itoa(s.ADF.Lags), verdict})
	}
	if s.KPSS != nil {
		verdict := "non-stationary"
		if s.KPSS.IsStationary {
			verdict = "stationary"
		}
		rows = append(rows, []string{"KPSS", num(s.KPSS.Statistic, 4), num(s.KPSS.PValue, 4), strconv.Itoa(s.KPSS.Lags), verdict})
	}
	if s.LjungBox != nil {
		verdict := "autocorrelated"
		if s.LjungBox.WhiteNoise(0.05) {
			verdict = "white noise"
		}
		rows = append(rows, []string{"Ljung-Box", num(s.LjungBox.Statistic, 4), num(s.LjungBox.PValue, 4), strconv.Itoa(s.LjungBox.Lags), verdict})
	}

	fmt.Fprintf(w, "\n%s: n=%d mean=%s sd=%s min=%s max=%s\n",
		s.Series, s.N, num(s.Mean, 4), num(s.Std, 4), num(s.Min, 4), num(s.Max, 4))
	table := tablewriter.NewWriter(w)
	table.Header("Test", "Statistic", "P-value", "Lags", "Verdict")
	if err := render(table, rows); err != nil {
		return err
	}
	if len(s.SuggestedOrders) > 0 {
		fmt.Fprintf(w, "  EACF vertices (p,q): %v\n", s.SuggestedOrders)
	}
	return nil
}

// WriteARIMASummary prints the coefficient table of a fitted ARIMA model
// followed by its fit statistics.
func WriteARIMASummary(w io.Writer, series string, s *arima.Summary) error {
	if s == nil {
		return errors.New("report.WriteARIMASummary: model not fitted")
	}
	rows := make([][]string, 0, len(s.Coefficients))
	for _, c := range s.Coefficients {
		rows = append(rows, []string{c.Name, num(c.Estimate, 4), num(c.StdErr, 4), num(c.Z, 3), num(c.PValue, 4)})
	}

	fmt.Fprintf(w, "\n%s %s  n=%d\n", series, s.Order, s.NObs)
	table := tablewriter.NewWriter(w)
	table.Header("Coef", "Estimate", "Std.Err", "z", "P>|z|")
	if err := render(table, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "  sigma^2=%s  loglik=%s  AIC=%s  AICc=%s  BIC=%s\n",
		num(s.Variance, 4), num(s.LogLik, 2), num(s.AIC, 2), num(s.AICc, 2), num(s.BIC, 2))
	if s.LjungBox != nil {
		fmt.Fprintf(w, "  Ljung-Box Q(%d)=%s p=%s\n", s.LjungBox.Lags, num(s.LjungBox.Statistic, 3), num(s.LjungBox.PValue, 4))
	}
	fmt.Fprintf(w, "  AR roots: %s\n  MA roots: %s\n  stable: %t\n", formatRoots(s.ARRoots), formatRoots(s.MARoots), s.Stable)
	return nil
}

func formatRoots(roots []complex128) string {
	if len(roots) == 0 {
		return "none"
	}
	out := ""
	for i, r := range roots {
		if i > 0 {
			out += ", "
		}
		if imag(r) == 0 {
			out += fmt.Sprintf("%.4f", real(r))
		} else {
			out += fmt.Sprintf("%.4f%+.4fi", real(r), imag(r))
		}
		out += fmt.Sprintf(" (|%.4f|)", cmplx.Abs(r))
	}
	return out
}

// WriteCandidates prints the orders evaluated by the automatic search.
func WriteCandidates(w io.Writer, series string, r *autoarima.Result, limit int) error {
	if r == nil {
		return errors.New("report.WriteCandidates: no result")
	}
	cands := r.Candidates
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	rows := make([][]string, 0, len(cands))
	for i, c := range cands {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Order.String(), num(c.AIC, 2), num(c.AICc, 2), num(c.BIC, 2)})
	}

	fmt.Fprintf(w, "\n%s automatic search: selected %s after %d models\n", series, r.Order, r.ModelsEvaluated)
	table := tablewriter.NewWriter(w)
	table.Header("#", "Order", "AIC", "AICc", "BIC")
	return render(table, rows)
}

// WriteVARSummary prints the VAR coefficients equation by equation.
func WriteVARSummary(w io.Writer, m *varmodel.Model) error {
	coeffs, err := m.Coefficients()
	if err != nil {
		return fmt.Errorf("report.WriteVARSummary: %w", err)
	}
	rows := make([][]string, 0, len(coeffs))
	for _, c := range coeffs {
		rows = append(rows, []string{c.Equation, c.Name, num(c.Estimate, 4), num(c.StdErr, 4), num(c.T, 3), num(c.PValue, 4)})
	}

	fmt.Fprintf(w, "\nVAR(%d) on %v  n=%d\n", m.Lags, m.Names, m.NObs)
	table := tablewriter.NewWriter(w)
	table.Header("Equation", "Coef", "Estimate", "Std.Err", "t", "P>|t|")
	if err := render(table, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "  loglik=%s  AIC=%s  BIC=%s  HQIC=%s  stable: %t\n",
		num(m.LogLik, 2), num(m.AIC, 4), num(m.BIC, 4), num(m.HQ, 4), m.Stable())
	return nil
}

// WriteLagSelection prints the VAR lag order criteria, marking the minimum
// of each column.
func WriteLagSelection(w io.Writer, sel *varmodel.LagSelection) error {
	if sel == nil {
		return errors.New("report.WriteLagSelection: no selection")
	}
	mark := func(v float64, lag, best int) string {
		s := num(v, 4)
		if lag == best {
			s += "*"
		}
		return s
	}
	rows := make([][]string, 0, len(sel.Lags))
	for i, lag := range sel.Lags {
		rows = append(rows, []string{
			strconv.Itoa(lag),
			mark(sel.AIC[i], lag, sel.BestAIC),
			mark(sel.BIC[i], lag, sel.BestBIC),
			mark(sel.HQ[i], lag, sel.BestHQ),
		})
	}

	fmt.Fprintln(w, "\nVAR lag order selection")
	table := tablewriter.NewWriter(w)
	table.Header("Lag", "AIC", "BIC", "HQIC")
	return render(table, rows)
}

// WriteGranger prints Granger causality F-tests.
func WriteGranger(w io.Writer, results []*varmodel.GrangerResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		verdict := "no"
		if r.Significant {
			verdict = "yes"
		}
		rows = append(rows, []string{
			r.Cause, r.Effect,
			num(r.FStatistic, 4),
			fmt.Sprintf("(%d, %d)", r.DF1, r.DF2),
			num(r.PValue, 4),
			verdict,
		})
	}

	fmt.Fprintln(w, "\nGranger causality")
	table := tablewriter.NewWriter(w)
	table.Header("Cause", "Effect", "F", "DF", "P-value", "Significant")
	return render(table, rows)
}

// HalfWidthRow compares the interval half-widths of two forecasts at one step.
type HalfWidthRow struct {
	Step  int
	Day   int
	ARIMA float64
	VAR   float64
	Ratio float64 // VAR / ARIMA, NaN when ARIMA is zero
}

// CompareHalfWidths pairs the half-widths of an ARIMA and a VAR forecast of
// the same series step by step. Both must cover the same future Days.
func CompareHalfWidths(a, v *forecast.Result) ([]HalfWidthRow, error) {
	if a == nil || v == nil {
		return nil, errors.New("report.CompareHalfWidths: missing forecast")
	}
	if a.Len() != v.Len() {
		return nil, fmt.Errorf("report.CompareHalfWidths: horizons differ (%d vs %d)", a.Len(), v.Len())
	}
	rows := make([]HalfWidthRow, a.Len())
	for i := range a.Points {
		pa, pv := a.Points[i], v.Points[i]
		if pa.Day != pv.Day {
			return nil, fmt.Errorf("report.CompareHalfWidths: step %d is Day %d vs Day %d", pa.Step, pa.Day, pv.Day)
		}
		row := HalfWidthRow{
			Step:  pa.Step,
			Day:   pa.Day,
			ARIMA: pa.HalfWidth(),
			VAR:   pv.HalfWidth(),
			Ratio: math.NaN(),
		}
		if row.ARIMA != 0 {
			row.Ratio = row.VAR / row.ARIMA
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteHalfWidths prints the comparison rows under the two model labels.
func WriteHalfWidths(w io.Writer, arimaLabel, varLabel string, rows []HalfWidthRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.Step),
			strconv.Itoa(r.Day),
			num(r.ARIMA, 4),
			num(r.VAR, 4),
			num(r.Ratio, 3),
		})
	}

	fmt.Fprintf(w, "\nInterval half-widths: %s vs %s\n", arimaLabel, varLabel)
	table := tablewriter.NewWriter(w)
	table.Header("Step", "Day", arimaLabel, varLabel, "Ratio")
	return render(table, out)
}
