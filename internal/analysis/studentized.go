package analysis

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// Studentized range distribution for Tukey-Kramer post-hoc comparisons.
//
// With k groups and nu error degrees of freedom,
//
//	P(Q < q) = ∫₀^∞ f_s(s) · W(q·s) ds
//
// where s ~ sqrt(χ²_ν/ν) and W is the CDF of the range of k standard normals:
//
//	W(w) = k ∫ φ(z) [Φ(z) − Φ(z−w)]^(k−1) dz
//
// Both integrals use fixed Gauss-Legendre rules; the outer one is split into
// panels around the mode of f_s, which sharpens as nu grows.

const (
	rangeNodes     = 200  // inner rule over z ∈ [−8, 8]
	scalePanels    = 24   // outer panels over s
	scalePanelSize = 24   // nodes per outer panel
	largeDF        = 5000 // beyond this f_s is a point mass at 1
)

// legendreRules caches node placements; φ and Φ at the inner nodes never change
type legendreRules struct {
	z, zWeight, zPDF, zCDF []float64
	u, uWeight             []float64 // outer reference rule on [0, 1]
}

var (
	rulesOnce sync.Once
	rules     legendreRules
)

func cachedRules() *legendreRules {
	rulesOnce.Do(func() {
		r := legendreRules{
			z:       make([]float64, rangeNodes),
			zWeight: make([]float64, rangeNodes),
			zPDF:    make([]float64, rangeNodes),
			zCDF:    make([]float64, rangeNodes),
			u:       make([]float64, scalePanelSize),
			uWeight: make([]float64, scalePanelSize),
		}
		quad.Legendre{}.FixedLocations(r.z, r.zWeight, -8, 8)
		for i, z := range r.z {
			r.zPDF[i] = distuv.UnitNormal.Prob(z)
			r.zCDF[i] = distuv.UnitNormal.CDF(z)
		}
		quad.Legendre{}.FixedLocations(r.u, r.uWeight, 0, 1)
		rules = r
	})
	return &rules
}

// normalRangeCDF is W(w) for k standard normals
func normalRangeCDF(w float64, k int) float64 {
	if w <= 0 {
		return 0
	}
	r := cachedRules()
	km1 := float64(k - 1)
	var sum float64
	for i, z := range r.z {
		d := r.zCDF[i] - distuv.UnitNormal.CDF(z-w)
		if d <= 0 {
			continue
		}
		sum += r.zWeight[i] * r.zPDF[i] * math.Pow(d, km1)
	}
	return clamp01(float64(k) * sum)
}

// logScaleDensity is log f_s(s), the density of sqrt(χ²_ν/ν)
func logScaleDensity(s, nu float64) float64 {
	if s <= 0 {
		return math.Inf(-1)
	}
	lg, _ := math.Lgamma(nu / 2)
	return (nu/2)*math.Log(nu) - lg - (nu/2-1)*math.Ln2 + (nu-1)*math.Log(s) - nu*s*s/2
}

// StudentizedRangeCDF returns P(Q < q) for k groups and nu degrees of freedom
func StudentizedRangeCDF(q float64, k int, nu float64) float64 {
	if math.IsNaN(q) || k < 2 || nu <= 0 {
		return math.NaN()
	}
	if q <= 0 {
		return 0
	}
	if math.IsInf(q, 1) {
		return 1
	}
	if nu > largeDF {
		return normalRangeCDF(q, k)
	}

	spread := 10 / math.Sqrt(2*nu)
	lo := math.Max(0, 1-spread)
	hi := 1 + spread
	if nu < 10 {
		// heavier right tail of s for small nu
		hi = 1 + 2*spread
	}

	r := cachedRules()
	width := (hi - lo) / scalePanels
	var total float64
	for p := 0; p < scalePanels; p++ {
		a := lo + float64(p)*width
		for i, u := range r.u {
			s := a + u*width
			ld := logScaleDensity(s, nu)
			if ld < -700 {
				continue
			}
			total += width * r.uWeight[i] * math.Exp(ld) * normalRangeCDF(q*s, k)
		}
	}
	return clamp01(total)
}

// StudentizedRangeSurvival returns P(Q ≥ q), the Tukey adjusted p-value
func StudentizedRangeSurvival(q float64, k int, nu float64) float64 {
	return clamp01(1 - StudentizedRangeCDF(q, k, nu))
}

// StudentizedRangeQuantile returns q such that P(Q < q) = p, by bisection
func StudentizedRangeQuantile(p float64, k int, nu float64) float64 {
	if p <= 0 || p >= 1 || k < 2 || nu <= 0 {
		return math.NaN()
	}

	lo, hi := 0.0, 8.0
	for StudentizedRangeCDF(hi, k, nu) < p {
		lo = hi
		hi *= 2
		if hi > 1e4 {
			return math.Inf(1)
		}
	}
	for i := 0; i < 60 && hi-lo > 1e-7; i++ {
		mid := (lo + hi) / 2
		if StudentizedRangeCDF(mid, k, nu) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
