package chart

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal"
	"gograde/internal/storage"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	gstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Figure file names inside the figures directory
const (
	FigureGradeHistogram = "1_histogram_G3.png"
	FigureSexPie         = "2_piechart_gender.png"
	FigureMjobBar        = "3_barchart_Mjob.png"
	FigureGroupMeans     = "4_group_means_anova.png"
	FigureResidualFitted = "5_residuals_fitted.png"
	FigureResidualQQ     = "6_residuals_qq.png"

	FigureCorrelationHeatmap = "7_correlation_heatmap.png"

	histogramBins = 15
)

// Renderer draws PNG figures into a directory. It is a sink: callers log its
// errors and carry on.
type Renderer struct {
	store  storage.FileStorage
	dir    string
	logger *internal.Logger
}

// NewRenderer creates a renderer writing through store into dir
func NewRenderer(store storage.FileStorage, dir string, logger *internal.Logger) *Renderer {
	if logger == nil {
		logger = internal.Discard
	}
	return &Renderer{store: store, dir: dir, logger: logger.WithPrefix("chart")}
}

// Path returns where a figure of the given name is written
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.dir, name)
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth:     1.5,
		StrokeColor:     col,
		StrokeDashArray: []float64{5, 5},
	}
}

var padding = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}

func (r *Renderer) write(ctx context.Context, name string, buf *bytes.Buffer) (string, error) {
	path := r.Path(name)
	if err := r.store.Write(ctx, path, buf.Bytes()); err != nil {
		return "", err
	}
	r.logger.Debug("wrote %s (%d bytes)", path, buf.Len())
	return path, nil
}

// GradeHistogram draws the distribution of a numeric column in equal-width bins
func (r *Renderer) GradeHistogram(ctx context.Context, frame *dataset.Frame, column string) (string, error) {
	values, err := frame.Floats(column)
	if err != nil {
		return "", err
	}
	bars := histogramBars(values, histogramBins)
	if len(bars) == 0 {
		return "", fmt.Errorf("no values to plot for %s", column)
	}

	mean := gstat.Mean(values, nil)
	c := chart.BarChart{
		Title:      fmt.Sprintf("Distribution of %s (mean %.2f)", column, mean),
		Background: padding,
		Width:      900,
		Height:     500,
		BarWidth:   40,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxValue(bars) * 1.1}},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render %s histogram: %w", column, err)
	}
	return r.write(ctx, FigureGradeHistogram, &buf)
}

// CategoryPie draws the share of each level of a categorical column
func (r *Renderer) CategoryPie(ctx context.Context, frame *dataset.Frame, column, name string) (string, error) {
	levels, err := levelCounts(frame, column)
	if err != nil {
		return "", err
	}
	total := 0.0
	for _, l := range levels {
		total += l.Value
	}
	values := make([]chart.Value, len(levels))
	for i, l := range levels {
		values[i] = chart.Value{Value: l.Value, Label: fmt.Sprintf("%s %.1f%%", l.Label, 100*l.Value/total)}
	}

	c := chart.PieChart{
		Title:      "Share of " + column,
		Background: padding,
		Width:      600,
		Height:     600,
		Values:     values,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render %s pie: %w", column, err)
	}
	return r.write(ctx, name, &buf)
}

// CategoryBar draws level counts of a categorical column, most frequent first
func (r *Renderer) CategoryBar(ctx context.Context, frame *dataset.Frame, column, name string) (string, error) {
	levels, err := levelCounts(frame, column)
	if err != nil {
		return "", err
	}

	c := chart.BarChart{
		Title:      "Distribution of " + column,
		Background: padding,
		Width:      800,
		Height:     500,
		BarWidth:   60,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxValue(levels) * 1.1}},
		Bars:       levels,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render %s bar chart: %w", column, err)
	}
	return r.write(ctx, name, &buf)
}

// GroupMeans draws the per-group means of an ANOVA
func (r *Renderer) GroupMeans(ctx context.Context, res *stats.ANOVAResult) (string, error) {
	if res == nil || len(res.Groups) == 0 {
		return "", fmt.Errorf("no groups to plot")
	}
	bars := make([]chart.Value, len(res.Groups))
	for i, g := range res.Groups {
		bars[i] = chart.Value{Value: g.Mean, Label: fmt.Sprintf("%s (n=%d)", g.Label, g.N)}
	}

	c := chart.BarChart{
		Title:      fmt.Sprintf("Mean %s by %s (F=%.2f, p=%.4f)", res.Target, res.Group, res.Result.Statistic, res.Result.PValue),
		Background: padding,
		Width:      800,
		Height:     500,
		BarWidth:   60,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxValue(bars) * 1.1}},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render group means: %w", err)
	}
	return r.write(ctx, FigureGroupMeans, &buf)
}

// ResidualsVsFitted draws the homoscedasticity check with a zero reference line
func (r *Renderer) ResidualsVsFitted(ctx context.Context, m *stats.RegressionModel) (string, error) {
	if m == nil || len(m.Fitted) < 2 {
		return "", fmt.Errorf("model has too few observations to plot")
	}
	lo, hi := bounds(m.Fitted)

	c := chart.Chart{
		Title:      "Residuals vs Fitted",
		Background: padding,
		Width:      800,
		Height:     500,
		XAxis:      chart.XAxis{Name: "Fitted values"},
		YAxis:      chart.YAxis{Name: "Residuals"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "residuals",
				XValues: m.Fitted,
				YValues: m.Residuals,
				Style:   pointStyle(chart.ColorBlue),
			},
			chart.ContinuousSeries{
				Name:    "zero",
				XValues: []float64{lo, hi},
				YValues: []float64{0, 0},
				Style:   lineStyle(chart.ColorRed),
			},
		},
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render residuals vs fitted: %w", err)
	}
	return r.write(ctx, FigureResidualFitted, &buf)
}

// ResidualQQ draws ordered residuals against normal quantiles with a least-squares fit line
func (r *Renderer) ResidualQQ(ctx context.Context, m *stats.RegressionModel) (string, error) {
	if m == nil || len(m.Residuals) < 2 {
		return "", fmt.Errorf("model has too few observations to plot")
	}
	theoretical, ordered := normalProbabilityPoints(m.Residuals)
	intercept, slope := gstat.LinearRegression(theoretical, ordered, nil, false)
	lo, hi := theoretical[0], theoretical[len(theoretical)-1]

	c := chart.Chart{
		Title:      "Normal Q-Q Plot (Residuals)",
		Background: padding,
		Width:      600,
		Height:     600,
		XAxis:      chart.XAxis{Name: "Theoretical quantiles"},
		YAxis:      chart.YAxis{Name: "Ordered residuals"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "residuals",
				XValues: theoretical,
				YValues: ordered,
				Style:   pointStyle(chart.ColorBlue),
			},
			chart.ContinuousSeries{
				Name:    "fit",
				XValues: []float64{lo, hi},
				YValues: []float64{intercept + slope*lo, intercept + slope*hi},
				Style:   lineStyle(chart.ColorRed),
			},
		},
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render residual Q-Q plot: %w", err)
	}
	return r.write(ctx, FigureResidualQQ, &buf)
}

// CorrelationHeatmap draws a correlation matrix as a grid of shaded cells,
// red for positive and blue for negative. Rows are labelled "i name", columns by i.
func (r *Renderer) CorrelationHeatmap(ctx context.Context, m *stats.CorrelationMatrix) (string, error) {
	if m == nil || len(m.Variables) == 0 {
		return "", fmt.Errorf("no correlations to plot")
	}
	const cell, left, top = 44, 130, 50
	n := len(m.Variables)
	width, height := left+n*cell+20, top+n*cell+40

	rr, err := chart.PNG(width, height)
	if err != nil {
		return "", fmt.Errorf("create heatmap canvas: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return "", fmt.Errorf("load chart font: %w", err)
	}
	fillBox(rr, chart.Box{Right: width, Bottom: height}, drawing.ColorWhite)

	rr.SetFont(font)
	rr.SetFontColor(drawing.ColorBlack)
	rr.SetFontSize(12)
	rr.Text("Correlation matrix", left, top/2)

	rr.SetFontSize(8)
	for i, name := range m.Variables {
		label := fmt.Sprintf("%d %s", i+1, name)
		tb := rr.MeasureText(label)
		rr.Text(label, left-tb.Width()-6, top+i*cell+(cell+tb.Height())/2)

		idx := strconv.Itoa(i + 1)
		tb = rr.MeasureText(idx)
		rr.Text(idx, left+i*cell+(cell-tb.Width())/2, top+n*cell+tb.Height()+8)

		for j := range m.Variables {
			v := m.Values[i][j]
			box := chart.Box{
				Left:   left + j*cell,
				Top:    top + i*cell,
				Right:  left + (j+1)*cell,
				Bottom: top + (i+1)*cell,
			}
			fillBox(rr, box, correlationColor(v))
			text := fmt.Sprintf("%.2f", v)
			tb := rr.MeasureText(text)
			rr.Text(text, box.Left+(cell-tb.Width())/2, box.Top+(cell+tb.Height())/2)
		}
	}

	var buf bytes.Buffer
	if err := rr.Save(&buf); err != nil {
		return "", fmt.Errorf("render correlation heatmap: %w", err)
	}
	return r.write(ctx, FigureCorrelationHeatmap, &buf)
}

func fillBox(rr chart.Renderer, b chart.Box, col drawing.Color) {
	rr.SetFillColor(col)
	rr.MoveTo(b.Left, b.Top)
	rr.LineTo(b.Right, b.Top)
	rr.LineTo(b.Right, b.Bottom)
	rr.LineTo(b.Left, b.Bottom)
	rr.Close()
	rr.Fill()
}

// correlationColor fades from blue at -1 through white to red at +1; NaN is grey
func correlationColor(v float64) drawing.Color {
	if math.IsNaN(v) {
		return drawing.Color{R: 200, G: 200, B: 200, A: 255}
	}
	v = math.Max(-1, math.Min(1, v))
	fade := uint8(math.Round(255 * (1 - math.Abs(v))))
	if v >= 0 {
		return drawing.Color{R: 255, G: fade, B: fade, A: 255}
	}
	return drawing.Color{R: fade, G: fade, B: 255, A: 255}
}

// histogramBars splits [min, max] into bins equal-width bins; the last bin is closed
func histogramBars(values []float64, bins int) []chart.Value {
	if len(values) == 0 || bins < 1 {
		return nil
	}
	lo, hi := bounds(values)
	width := (hi - lo) / float64(bins)
	if width == 0 {
		return []chart.Value{{Value: float64(len(values)), Label: fmt.Sprintf("%g", lo)}}
	}

	counts := make([]float64, bins)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	bars := make([]chart.Value, bins)
	for i, c := range counts {
		bars[i] = chart.Value{Value: c, Label: fmt.Sprintf("%.1f", lo+width*(float64(i)+0.5))}
	}
	return bars
}

// levelCounts returns each distinct value of a column with its count,
// most frequent first and ties in label order
func levelCounts(frame *dataset.Frame, column string) ([]chart.Value, error) {
	cells, err := frame.Strings(column)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("no values to plot for %s", column)
	}
	counts := make(map[string]int)
	for _, c := range cells {
		counts[c]++
	}
	out := make([]chart.Value, 0, len(counts))
	for label, n := range counts {
		out = append(out, chart.Value{Label: label, Value: float64(n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// normalProbabilityPoints returns Filliben's normal order statistic medians and
// the sorted sample
func normalProbabilityPoints(sample []float64) (theoretical, ordered []float64) {
	n := len(sample)
	ordered = append([]float64(nil), sample...)
	sort.Float64s(ordered)

	theoretical = make([]float64, n)
	last := math.Pow(0.5, 1/float64(n))
	for i := range theoretical {
		var m float64
		switch i {
		case 0:
			m = 1 - last
		case n - 1:
			m = last
		default:
			m = (float64(i+1) - 0.3175) / (float64(n) + 0.365)
		}
		theoretical[i] = distuv.UnitNormal.Quantile(m)
	}
	return theoretical, ordered
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func maxValue(values []chart.Value) float64 {
	m := 0.0
	for _, v := range values {
		m = math.Max(m, v.Value)
	}
	if m == 0 {
		return 1
	}
	return m
}
