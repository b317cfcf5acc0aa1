package analysis

import (
	"math"

	"gograde/domain/stats"

	mstats "github.com/montanaflynn/stats"
)

// TukeyHSD runs Tukey-Kramer comparisons over every pair of groups, in label
// order, using the pooled within-group mean square msw with df error degrees
// of freedom. Confidence intervals hold at family-wise level 1 − alpha.
func TukeyHSD(partition stats.GroupPartition, msw, df, alpha float64) []stats.TukeyComparison {
	k := len(partition.Groups)
	if k < 2 {
		return nil
	}

	means := make([]float64, k)
	for i, g := range partition.Groups {
		means[i], _ = mstats.Mean(g)
	}
	qcrit := StudentizedRangeQuantile(1-alpha, k, df)

	out := make([]stats.TukeyComparison, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			ni := float64(len(partition.Groups[i]))
			nj := float64(len(partition.Groups[j]))
			diff := means[j] - means[i]
			se := math.Sqrt(msw / 2 * (1/ni + 1/nj))

			var pAdj float64
			switch {
			case diff == 0:
				pAdj = 1
			case se == 0:
				pAdj = 0
			default:
				pAdj = StudentizedRangeSurvival(math.Abs(diff)/se, k, df)
			}

			out = append(out, stats.TukeyComparison{
				Group1:   partition.Labels[i],
				Group2:   partition.Labels[j],
				MeanDiff: diff,
				PAdj:     pAdj,
				Lower:    diff - qcrit*se,
				Upper:    diff + qcrit*se,
				Reject:   pAdj < alpha,
			})
		}
	}
	return out
}
