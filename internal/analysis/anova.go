package analysis

import (
	"math"
	"strings"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal/errors"

	mstats "github.com/montanaflynn/stats"
)

// Partition splits a numeric target by the labels of a grouping column.
// Labels come back sorted.
func Partition(frame *dataset.Frame, target, group string) (stats.GroupPartition, error) {
	if missing := frame.Missing([]string{target, group}); len(missing) > 0 {
		return stats.GroupPartition{}, errors.SchemaError(missing)
	}
	values, err := frame.Floats(target)
	if err != nil {
		return stats.GroupPartition{}, err
	}
	labels, err := frame.Strings(group)
	if err != nil {
		return stats.GroupPartition{}, err
	}

	ordered := distinctSorted(labels)
	idx := indexOf(ordered)
	groups := make([][]float64, len(ordered))
	for i, l := range labels {
		g := idx[strings.TrimSpace(l)]
		groups[g] = append(groups[g], values[i])
	}
	return stats.GroupPartition{Labels: ordered, Groups: groups}, nil
}

// OneWayANOVA compares the mean of target across the groups of group.
// When the null is rejected at alpha, Tukey-Kramer contrasts are attached.
func OneWayANOVA(frame *dataset.Frame, target, group string, alpha float64) (*stats.ANOVAResult, error) {
	partition, err := Partition(frame, target, group)
	if err != nil {
		return nil, err
	}
	return OneWayANOVAFromPartition(target, group, partition, alpha)
}

// OneWayANOVAFromPartition runs the F test over a prepared partition
func OneWayANOVAFromPartition(target, group string, partition stats.GroupPartition, alpha float64) (*stats.ANOVAResult, error) {
	// empty groups carry no information
	var labels []string
	var groups [][]float64
	for i, g := range partition.Groups {
		if len(g) > 0 {
			labels = append(labels, partition.Labels[i])
			groups = append(groups, g)
		}
	}
	partition = stats.GroupPartition{Labels: labels, Groups: groups}

	k := len(groups)
	n := partition.N()
	if k < 2 {
		return nil, errors.InsufficientGroups(group, k)
	}
	if n-k <= 0 {
		return nil, errors.InsufficientGroups(group, k).With("n", n)
	}

	var grand float64
	for _, g := range groups {
		for _, v := range g {
			grand += v
		}
	}
	grand /= float64(n)

	summaries := make([]stats.GroupSummary, k)
	var ssb, ssw float64
	for i, g := range groups {
		mean, _ := mstats.Mean(g)
		ssb += float64(len(g)) * (mean - grand) * (mean - grand)
		for _, v := range g {
			ssw += (v - mean) * (v - mean)
		}

		summary := stats.GroupSummary{Label: labels[i], N: len(g), Mean: mean, Std: math.NaN()}
		if len(g) > 1 {
			summary.Std, _ = mstats.StandardDeviationSample(g)
		}
		if len(g) >= 3 {
			if sw, err := ShapiroWilk(g, alpha); err == nil {
				summary.Normality = &sw
			}
		}
		summaries[i] = summary
	}

	dfb := float64(k - 1)
	dfw := float64(n - k)
	msb := ssb / dfb
	msw := ssw / dfw

	var f, p float64
	switch {
	case msw > 0:
		f = msb / msw
		p = NewDistributions().FTestPValue(f, dfb, dfw)
	case msb > 0:
		f, p = math.Inf(1), 0
	default:
		f, p = 0, 1
	}

	eta := 0.0
	if ssb+ssw > 0 {
		eta = ssb / (ssb + ssw)
	}

	result := &stats.ANOVAResult{
		Target:     target,
		Group:      group,
		Groups:     summaries,
		SSBetween:  ssb,
		SSWithin:   ssw,
		MSBetween:  msb,
		MSWithin:   msw,
		EtaSquared: eta,
		Result:     stats.NewTestResult(stats.TestANOVA, f, p, alpha, dfb, dfw),
	}
	if result.Result.Rejected() {
		result.PostHoc = TukeyHSD(partition, msw, dfw, alpha)
	}
	return result, nil
}
