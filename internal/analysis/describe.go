package analysis

import (
	"math"
	"sort"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal/errors"

	mstats "github.com/montanaflynn/stats"
)

// Describe summarizes each numeric column: count, mean, sample std, min,
// quartiles and max. An absent column is a SchemaError; a non-numeric cell
// is a DomainError.
func Describe(frame *dataset.Frame, columns []string) ([]stats.Summary, error) {
	if missing := frame.Missing(columns); len(missing) > 0 {
		return nil, errors.SchemaError(missing)
	}

	out := make([]stats.Summary, 0, len(columns))
	for _, col := range columns {
		data, err := frame.Floats(col)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(col, data))
	}
	return out, nil
}

// Summarize profiles a single sample. Empty input yields NaN statistics.
func Summarize(column string, data []float64) stats.Summary {
	s := stats.Summary{Column: column, Count: len(data)}
	if len(data) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	s.Mean, _ = mstats.Mean(data)
	s.Min, _ = mstats.Min(data)
	s.Max, _ = mstats.Max(data)
	if len(data) > 1 {
		s.Std, _ = mstats.StandardDeviationSample(data)
	} else {
		s.Std = math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.50)
	s.Q3 = Quantile(sorted, 0.75)
	return s
}

// Quantile interpolates linearly between the closest ranks of sorted data,
// at position (n-1)·p
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := float64(n-1) * p
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
