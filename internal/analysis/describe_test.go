package analysis

import (
	stderrors "errors"
	"math"
	"testing"

	"gograde/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-12)
	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.25))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestDescribe(t *testing.T) {
	frame := numericFrame(t, []string{"G3", "age"},
		[]float64{10, 50, 30, 20, 40},
		[]float64{15, 16, 17, 18, 19},
	)

	summaries, err := Describe(frame, []string{"G3", "age"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	g3 := summaries[0]
	assert.Equal(t, "G3", g3.Column)
	assert.Equal(t, 5, g3.Count)
	assert.InDelta(t, 30, g3.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(250), g3.Std, 1e-9)
	assert.Equal(t, 10.0, g3.Min)
	assert.Equal(t, 20.0, g3.Q1)
	assert.Equal(t, 30.0, g3.Median)
	assert.Equal(t, 40.0, g3.Q3)
	assert.Equal(t, 50.0, g3.Max)
}

func TestDescribeErrors(t *testing.T) {
	frame := labeledFrame(t, "sex", []string{"F", "M"}, "G3", []float64{1, 2})

	_, err := Describe(frame, []string{"G3", "absences"})
	assert.True(t, stderrors.Is(err, errors.ErrSchema))

	_, err = Describe(frame, []string{"sex"})
	assert.True(t, stderrors.Is(err, errors.ErrDomain))
}

func TestSummarizeSingleValue(t *testing.T) {
	s := Summarize("x", []float64{4})
	assert.Equal(t, 1, s.Count)
	assert.True(t, math.IsNaN(s.Std))
	assert.Equal(t, 4.0, s.Median)
}
