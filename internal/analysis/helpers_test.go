package analysis

import (
	"strconv"
	"testing"

	"gograde/domain/dataset"

	"github.com/stretchr/testify/require"
)

// numericFrame builds a frame from named float columns of equal length
func numericFrame(t *testing.T, names []string, cols ...[]float64) *dataset.Frame {
	t.Helper()
	require.Equal(t, len(names), len(cols))
	records := [][]string{names}
	for i := range cols[0] {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		records = append(records, row)
	}
	f, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return f
}

// labeledFrame builds a frame with one categorical and one numeric column
func labeledFrame(t *testing.T, group string, labels []string, target string, values []float64) *dataset.Frame {
	t.Helper()
	records := [][]string{{target, group}}
	for i := range labels {
		records = append(records, []string{strconv.FormatFloat(values[i], 'g', -1, 64), labels[i]})
	}
	f, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return f
}
