package analysis

import (
	"math"
	"testing"

	"gograde/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelations(t *testing.T) {
	frame := numericFrame(t, []string{"G3", "studytime", "failures", "age"},
		[]float64{10, 12, 14, 16, 18},
		[]float64{1, 2, 3, 4, 5},
		[]float64{4, 3, 2, 1, 0},
		[]float64{17, 15, 18, 16, 17},
	)

	m, err := Correlations(frame, []string{"G3", "studytime", "failures", "age"})
	require.NoError(t, err)
	assert.InDelta(t, 1, m.Values[0][0], 1e-12)
	assert.InDelta(t, 1, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1, m.Values[0][2], 1e-12)
	assert.InDelta(t, m.Values[0][3], m.Values[3][0], 1e-12)

	ranked := TargetCorrelations(m, "G3")
	require.Len(t, ranked, 3)
	assert.Equal(t, "studytime", ranked[0].Variable)
	assert.Equal(t, "age", ranked[1].Variable)
	assert.Equal(t, "failures", ranked[2].Variable)

	assert.Nil(t, TargetCorrelations(m, "absences"))
}

func TestTargetCorrelationsNaNLast(t *testing.T) {
	m := &stats.CorrelationMatrix{
		Variables: []string{"G3", "a", "b", "c"},
		Values: [][]float64{
			{1, math.NaN(), -0.2, 0.4},
			{math.NaN(), 1, 0, 0},
			{-0.2, 0, 1, 0},
			{0.4, 0, 0, 1},
		},
	}
	ranked := TargetCorrelations(m, "G3")
	assert.Equal(t, "c", ranked[0].Variable)
	assert.Equal(t, "b", ranked[1].Variable)
	assert.Equal(t, "a", ranked[2].Variable)
}
