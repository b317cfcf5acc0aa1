package analysis

import (
	"math"
	"sort"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlations computes the Pearson correlation matrix of the given columns
func Correlations(frame *dataset.Frame, columns []string) (*stats.CorrelationMatrix, error) {
	if missing := frame.Missing(columns); len(missing) > 0 {
		return nil, errors.SchemaError(missing)
	}
	n := frame.Len()
	x := mat.NewDense(n, len(columns), nil)
	for j, c := range columns {
		col, err := frame.Floats(c)
		if err != nil {
			return nil, err
		}
		x.SetCol(j, col)
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)

	values := make([][]float64, len(columns))
	for i := range values {
		values[i] = make([]float64, len(columns))
		for j := range values[i] {
			values[i][j] = corr.At(i, j)
		}
	}
	return &stats.CorrelationMatrix{Variables: append([]string(nil), columns...), Values: values}, nil
}

// TargetCorrelations returns every other variable's correlation with target,
// strongest positive first. Undefined correlations sort last.
func TargetCorrelations(m *stats.CorrelationMatrix, target string) []stats.VariableCorrelation {
	ti := -1
	for i, v := range m.Variables {
		if v == target {
			ti = i
		}
	}
	if ti < 0 {
		return nil
	}

	out := make([]stats.VariableCorrelation, 0, len(m.Variables)-1)
	for i, v := range m.Variables {
		if i != ti {
			out = append(out, stats.VariableCorrelation{Variable: v, R: m.Values[ti][i]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a].R, out[b].R
		if math.IsNaN(rb) {
			return !math.IsNaN(ra)
		}
		if math.IsNaN(ra) {
			return false
		}
		return ra > rb
	})
	return out
}
