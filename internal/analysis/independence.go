package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal/errors"
)

// Crosstab counts co-occurrences of two categorical columns.
// Row and column labels are sorted.
func Crosstab(frame *dataset.Frame, colA, colB string) (stats.ContingencyTable, error) {
	if missing := frame.Missing([]string{colA, colB}); len(missing) > 0 {
		return stats.ContingencyTable{}, errors.SchemaError(missing)
	}
	a, err := frame.Strings(colA)
	if err != nil {
		return stats.ContingencyTable{}, err
	}
	b, err := frame.Strings(colB)
	if err != nil {
		return stats.ContingencyTable{}, err
	}

	rows := distinctSorted(a)
	cols := distinctSorted(b)
	rowIdx := indexOf(rows)
	colIdx := indexOf(cols)

	counts := make([][]float64, len(rows))
	for i := range counts {
		counts[i] = make([]float64, len(cols))
	}
	for i := range a {
		counts[rowIdx[strings.TrimSpace(a[i])]][colIdx[strings.TrimSpace(b[i])]]++
	}

	return stats.ContingencyTable{
		RowVariable: colA,
		ColVariable: colB,
		RowLabels:   rows,
		ColLabels:   cols,
		Counts:      counts,
	}, nil
}

// ChiSquareIndependence tests whether two categorical columns are independent
func ChiSquareIndependence(frame *dataset.Frame, colA, colB string, alpha float64, yates bool) (*stats.IndependenceResult, error) {
	table, err := Crosstab(frame, colA, colB)
	if err != nil {
		return nil, err
	}
	return ChiSquareFromTable(table, alpha, yates)
}

// ChiSquareFromTable computes Pearson's χ² = Σ(O−E)²/E with E_ij = R_i·C_j/N.
// Tables with one row or one column, or with any zero expected count, are degenerate.
// With yates set, 2×2 tables get the continuity correction.
func ChiSquareFromTable(table stats.ContingencyTable, alpha float64, yates bool) (*stats.IndependenceResult, error) {
	r := len(table.Counts)
	if r == 0 {
		return nil, errors.DegenerateTable("contingency table is empty")
	}
	c := len(table.Counts[0])
	if r < 2 || c < 2 {
		return nil, errors.DegenerateTable(fmt.Sprintf("contingency table is %dx%d; need at least 2x2", r, c)).
			With("rows", r).With("cols", c)
	}

	rowTotals := table.RowTotals()
	colTotals := table.ColTotals()
	n := table.Total()

	expected := make([][]float64, r)
	for i := range expected {
		expected[i] = make([]float64, c)
		for j := range expected[i] {
			expected[i][j] = rowTotals[i] * colTotals[j] / n
			if expected[i][j] == 0 || math.IsNaN(expected[i][j]) {
				return nil, errors.DegenerateTable("expected count is zero").
					With("row", table.RowLabels[i]).With("col", table.ColLabels[j])
			}
		}
	}

	df := float64((r - 1) * (c - 1))
	applyYates := yates && df == 1

	var chi2 float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			diff := math.Abs(table.Counts[i][j] - expected[i][j])
			if applyYates {
				diff -= math.Min(0.5, diff)
			}
			chi2 += diff * diff / expected[i][j]
		}
	}

	p := NewDistributions().ChiSquarePValue(chi2, df)
	minDim := math.Min(float64(r), float64(c)) - 1

	return &stats.IndependenceResult{
		Table:        table,
		Expected:     expected,
		Result:       stats.NewTestResult(stats.TestChiSquare, chi2, p, alpha, df),
		CramersV:     math.Sqrt(chi2 / (n * minDim)),
		YatesApplied: applyYates,
	}, nil
}

func distinctSorted(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}
