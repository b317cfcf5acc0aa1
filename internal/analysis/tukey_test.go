package analysis

import (
	"math"
	"testing"

	"gograde/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestStudentizedRangeTwoGroupsMatchesT(t *testing.T) {
	// for k = 2, Q = sqrt(2)·|T|, so P(Q < q) = 2·F_t(q/√2) − 1
	for _, nu := range []float64{5, 10, 30, 120} {
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
		for _, q := range []float64{0.5, 1, 2.5, 4, 6} {
			want := 2*tDist.CDF(q/math.Sqrt2) - 1
			assert.InDelta(t, want, StudentizedRangeCDF(q, 2, nu), 1e-5, "q=%g nu=%g", q, nu)
		}
	}
}

func TestStudentizedRangeLargeDFIsNormalRange(t *testing.T) {
	q := 2.0
	want := 2*distuv.UnitNormal.CDF(q/math.Sqrt2) - 1
	assert.InDelta(t, want, StudentizedRangeCDF(q, 2, 1e6), 1e-6)
}

func TestStudentizedRangeQuantile(t *testing.T) {
	assert.InDelta(t, 3.877, StudentizedRangeQuantile(0.95, 3, 10), 5e-3)
	assert.InDelta(t, 4.339, StudentizedRangeQuantile(0.95, 3, 6), 5e-3)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 10}
	assert.InDelta(t, math.Sqrt2*tDist.Quantile(0.975), StudentizedRangeQuantile(0.95, 2, 10), 1e-4)

	q := StudentizedRangeQuantile(0.9, 4, 20)
	assert.InDelta(t, 0.9, StudentizedRangeCDF(q, 4, 20), 1e-6)
}

func TestStudentizedRangeEdges(t *testing.T) {
	assert.Equal(t, 0.0, StudentizedRangeCDF(0, 3, 10))
	assert.Equal(t, 1.0, StudentizedRangeCDF(math.Inf(1), 3, 10))
	assert.True(t, math.IsNaN(StudentizedRangeCDF(1, 1, 10)))
	assert.True(t, math.IsNaN(StudentizedRangeQuantile(1.2, 3, 10)))

	prev := 0.0
	for q := 0.5; q < 8; q += 0.5 {
		cur := StudentizedRangeCDF(q, 4, 12)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestTukeyHSDIntervals(t *testing.T) {
	partition := stats.GroupPartition{
		Labels: []string{"a", "b", "c"},
		Groups: [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
	}
	comparisons := TukeyHSD(partition, 1, 6, 0.05)
	require.Len(t, comparisons, 3)

	se := math.Sqrt(1.0 / 3)
	pairs := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}
	for i, c := range comparisons {
		assert.Equal(t, pairs[i][0], c.Group1)
		assert.Equal(t, pairs[i][1], c.Group2)
		assert.Less(t, c.Lower, c.MeanDiff)
		assert.Greater(t, c.Upper, c.MeanDiff)
		assert.InDelta(t, 2*4.339*se, c.Upper-c.Lower, 0.01)
		assert.InDelta(t, StudentizedRangeSurvival(math.Abs(c.MeanDiff)/se, 3, 6), c.PAdj, 1e-12)
		assert.Equal(t, c.PAdj < 0.05, c.Reject)
	}

	assert.InDelta(t, 6, comparisons[1].MeanDiff, 1e-12)
	assert.True(t, comparisons[1].Reject)
	assert.Less(t, comparisons[1].PAdj, comparisons[0].PAdj)
}

func TestTukeyHSDEqualMeans(t *testing.T) {
	comparisons := TukeyHSD(stats.GroupPartition{
		Labels: []string{"a", "b"},
		Groups: [][]float64{{1, 3}, {3, 1}},
	}, 2, 2, 0.05)
	require.Len(t, comparisons, 1)
	assert.Equal(t, 1.0, comparisons[0].PAdj)
	assert.False(t, comparisons[0].Reject)
}
