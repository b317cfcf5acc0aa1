package app

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gograde/domain/core"
	"gograde/domain/dataset"
	"gograde/domain/stage"
	"gograde/domain/stats"

	"github.com/olekukonko/tablewriter"
)

// Printer renders results as plain-text tables. It never computes anything.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w (stdout when nil)
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func num(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func pval(p float64) string {
	if math.IsNaN(p) {
		return "nan"
	}
	if p != 0 && p < 1e-4 {
		return strconv.FormatFloat(p, 'e', 3, 64)
	}
	return strconv.FormatFloat(p, 'f', 4, 64)
}

func dfString(df []float64) string {
	parts := make([]string, len(df))
	for i, d := range df {
		parts[i] = strconv.FormatFloat(d, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) section(title string) {
	fmt.Fprintf(p.w, "\n=== %s ===\n", title)
}

// Print renders every result a run produced, in stage order
func (p *Printer) Print(res *stage.PipelineResult) {
	if res.Clean != nil {
		p.PrintClean(res.Clean)
	}
	if len(res.Summaries) > 0 {
		p.PrintSummaries(res.Summaries)
	}
	if res.Independence != nil {
		p.PrintIndependence(res.Independence)
	}
	if res.ANOVA != nil {
		p.PrintANOVA(res.ANOVA)
	}
	if res.Regression != nil {
		p.PrintRegression(res.Regression)
	}
	if len(res.TargetCorrelations) > 0 && res.Regression != nil {
		p.PrintTargetCorrelations(res.Regression.Target, res.TargetCorrelations)
	}
	p.PrintStages(res)
}

// PrintClean renders the row accounting of the cleaning pass
func (p *Printer) PrintClean(r *dataset.CleanReport) {
	p.section("CLEANING")
	t := newTable(p.w, "input rows", "dropped (missing)", "dropped (out of range)", "kept")
	t.Append([]string{strconv.Itoa(r.InputRows), strconv.Itoa(r.DroppedMissing), strconv.Itoa(r.DroppedRange), strconv.Itoa(r.KeptRows)})
	t.Render()
}

// PrintSummaries renders the descriptive statistics
func (p *Printer) PrintSummaries(summaries []stats.Summary) {
	p.section("DESCRIPTIVE STATISTICS")
	t := newTable(p.w, "column", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
	for _, s := range summaries {
		t.Append([]string{s.Column, strconv.Itoa(s.Count), num(s.Mean), num(s.Std), num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max)})
	}
	t.Render()
}

// PrintIndependence renders the contingency table and the chi-square test
func (p *Printer) PrintIndependence(r *stats.IndependenceResult) {
	p.section(fmt.Sprintf("CHI-SQUARE: %s vs %s", r.Table.RowVariable, r.Table.ColVariable))

	header := append([]string{r.Table.RowVariable + " \\ " + r.Table.ColVariable}, r.Table.ColLabels...)
	t := newTable(p.w, header...)
	for i, label := range r.Table.RowLabels {
		row := []string{label}
		for _, c := range r.Table.Counts[i] {
			row = append(row, strconv.FormatFloat(c, 'f', 0, 64))
		}
		t.Append(row)
	}
	t.Render()

	fmt.Fprintf(p.w, "chi2 = %s, df = %s, p = %s, Cramer's V = %s", num(r.Result.Statistic), dfString(r.Result.DF), pval(r.Result.PValue), num(r.CramersV))
	if r.YatesApplied {
		fmt.Fprint(p.w, " (Yates corrected)")
	}
	fmt.Fprintf(p.w, "\n%s\n", conclusionText(r.Result, "the variables are associated", "no evidence of association"))
}

// PrintANOVA renders group summaries, the F test and any post-hoc contrasts
func (p *Printer) PrintANOVA(r *stats.ANOVAResult) {
	p.section(fmt.Sprintf("ONE-WAY ANOVA: %s by %s", r.Target, r.Group))

	t := newTable(p.w, "group", "n", "mean", "std", "shapiro W", "shapiro p")
	for _, g := range r.Groups {
		w, pv := "-", "-"
		if g.Normality != nil {
			w, pv = num(g.Normality.Statistic), pval(g.Normality.PValue)
		}
		t.Append([]string{g.Label, strconv.Itoa(g.N), num(g.Mean), num(g.Std), w, pv})
	}
	t.Render()

	fmt.Fprintf(p.w, "F = %s, df = (%s), p = %s, eta^2 = %s\n", num(r.Result.Statistic), dfString(r.Result.DF), pval(r.Result.PValue), num(r.EtaSquared))
	fmt.Fprintln(p.w, conclusionText(r.Result, "group means differ", "no evidence that group means differ"))

	if len(r.PostHoc) > 0 {
		fmt.Fprintln(p.w, "\nTukey HSD")
		writeTukeyTable(p.w, r.PostHoc)
	}
}

func writeTukeyTable(w io.Writer, comparisons []stats.TukeyComparison) {
	t := newTable(w, "group1", "group2", "meandiff", "p-adj", "lower", "upper", "reject")
	for _, c := range comparisons {
		t.Append([]string{c.Group1, c.Group2, num(c.MeanDiff), pval(c.PAdj), num(c.Lower), num(c.Upper), strconv.FormatBool(c.Reject)})
	}
	t.Render()
}

// PrintRegression renders the coefficient table, fit statistics and diagnostics
func (p *Printer) PrintRegression(m *stats.RegressionModel) {
	p.section("OLS REGRESSION: " + m.Target)
	fmt.Fprintf(p.w, "n = %d, R^2 = %s, adj. R^2 = %s, F = %s, p(F) = %s\n",
		m.N, num(m.RSquared), num(m.AdjRSquared), num(m.F.Statistic), pval(m.F.PValue))

	t := newTable(p.w, "term", "coef", "std err", "t", "P>|t|", "ci low", "ci high")
	for i, term := range m.Terms {
		t.Append([]string{term, num(m.Coefficients[i]), num(m.StdErrors[i]), num(m.TStats[i]), pval(m.PValues[i]),
			num(m.CILower[i]), num(m.CIUpper[i])})
	}
	t.Render()

	d := m.Diagnostics
	fmt.Fprintln(p.w, "\nDiagnostics")
	dt := newTable(p.w, "check", "statistic", "p", "conclusion")
	dt.Append([]string{"Jarque-Bera", num(d.JarqueBera.Statistic), pval(d.JarqueBera.PValue), string(d.JarqueBera.Conclusion)})
	dt.Append([]string{"Omnibus K2", num(d.Omnibus.Statistic), pval(d.Omnibus.PValue), string(d.Omnibus.Conclusion)})
	dt.Append([]string{"Breusch-Pagan", num(d.BreuschPagan.Statistic), pval(d.BreuschPagan.PValue), string(d.BreuschPagan.Conclusion)})
	dt.Append([]string{"Durbin-Watson", num(d.DurbinWatson), "-", string(d.Autocorrelation)})
	dt.Render()
	fmt.Fprintf(p.w, "skew = %s, kurtosis = %s\n", num(d.Skew), num(d.Kurtosis))

	vt := newTable(p.w, "feature", "VIF")
	for _, v := range d.VIF {
		vt.Append([]string{v.Feature, num(v.VIF)})
	}
	vt.Render()
}

// PrintTargetCorrelations renders Pearson correlations with the target, strongest first
func (p *Printer) PrintTargetCorrelations(target string, corr []stats.VariableCorrelation) {
	p.section("CORRELATION WITH " + target)
	t := newTable(p.w, "variable", "r")
	for _, c := range corr {
		t.Append([]string{c.Variable, num(c.R)})
	}
	t.Render()
}

// PrintStages renders per-stage timing and outcome
func (p *Printer) PrintStages(res *stage.PipelineResult) {
	p.section("STAGES")
	t := newTable(p.w, "stage", "status", "rows", "ms", "p")
	for _, r := range res.Results {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		pv := "-"
		if r.Metrics.PValue != nil {
			pv = pval(*r.Metrics.PValue)
		}
		t.Append([]string{string(r.StageName), status, strconv.Itoa(r.Metrics.ProcessedCount), strconv.FormatInt(r.Metrics.DurationMs, 10), pv})
	}
	t.Render()
	fmt.Fprintln(p.w, RunSummary(res))
}

// PostHocReport renders the Tukey comparisons as the plain-text report artifact
func (p *Printer) PostHocReport(runID core.RunID, r *stats.ANOVAResult) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Tukey HSD post-hoc comparisons\n")
	fmt.Fprintf(&buf, "run: %s\n", runID)
	fmt.Fprintf(&buf, "target: %s\ngroup: %s\nalpha: %g\n", r.Target, r.Group, r.Result.Alpha)
	fmt.Fprintf(&buf, "F = %s, p = %s\n\n", num(r.Result.Statistic), pval(r.Result.PValue))
	writeTukeyTable(&buf, r.PostHoc)
	return buf.Bytes()
}

func conclusionText(r stats.TestResult, reject, keep string) string {
	if r.Rejected() {
		return fmt.Sprintf("reject H0 at alpha = %g: %s", r.Alpha, reject)
	}
	return fmt.Sprintf("fail to reject H0 at alpha = %g: %s", r.Alpha, keep)
}
