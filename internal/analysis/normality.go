package analysis

import (
	"fmt"
	"math"
	"sort"

	"gograde/domain/stats"

	"gonum.org/v1/gonum/stat"
)

// ShapiroWilk tests normality of a sample of 3 to 5000 observations using
// Royston's approximation for the coefficients and the p-value.
func ShapiroWilk(data []float64, alpha float64) (stats.TestResult, error) {
	n := len(data)
	if n < 3 {
		return stats.TestResult{}, fmt.Errorf("shapiro-wilk needs at least 3 observations, got %d", n)
	}
	if n > 5000 {
		return stats.TestResult{}, fmt.Errorf("shapiro-wilk supports at most 5000 observations, got %d", n)
	}

	x := make([]float64, n)
	copy(x, data)
	sort.Float64s(x)
	if x[n-1]-x[0] == 0 {
		return stats.TestResult{}, fmt.Errorf("shapiro-wilk is undefined for a constant sample")
	}

	a := shapiroWilkCoefficients(n)

	mean := stat.Mean(x, nil)
	var num, ssq float64
	for i, v := range x {
		num += a[i] * v
		d := v - mean
		ssq += d * d
	}
	w := num * num / ssq
	if w > 1 {
		w = 1
	}

	return stats.NewTestResult(stats.TestShapiroWilk, w, shapiroWilkPValue(w, n), alpha), nil
}

// shapiroWilkCoefficients returns the antisymmetric weights a_1..a_n
func shapiroWilkCoefficients(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt(0.5), math.Sqrt(0.5)
		return a
	}

	dist := NewDistributions()
	fn := float64(n)
	m := make([]float64, n)
	var mm float64
	for i := range m {
		m[i] = dist.NormalQuantile((float64(i+1) - 0.375) / (fn + 0.25))
		mm += m[i] * m[i]
	}

	u := 1 / math.Sqrt(fn)
	an := m[n-1]/math.Sqrt(mm) + poly(u, 0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056)

	if n > 5 {
		an1 := m[n-2]/math.Sqrt(mm) + poly(u, 0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633)
		phi := (mm - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
		a[0], a[1], a[n-2], a[n-1] = -an, -an1, an1, an
		return a
	}

	phi := (mm - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
	for i := 1; i < n-1; i++ {
		a[i] = m[i] / math.Sqrt(phi)
	}
	a[0], a[n-1] = -an, an
	return a
}

func shapiroWilkPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clamp01(p)
	}
	if w >= 1 {
		return 1
	}

	fn := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(fn, -2.273, 0.459)
		if y >= gamma {
			return 0
		}
		y = -math.Log(gamma - y)
		mu = poly(fn, 0.5440, -0.39978, 0.025054, -0.0006714)
		sigma = math.Exp(poly(fn, 1.3822, -0.77857, 0.062767, -0.0020322))
	} else {
		ln := math.Log(fn)
		mu = poly(ln, -1.5861, -0.31082, -0.083751, 0.0038915)
		sigma = math.Exp(poly(ln, -0.4803, -0.082676, 0.0030302))
	}
	return 1 - NewDistributions().NormalCDF((y-mu)/sigma)
}

// poly evaluates c0 + c1·x + c2·x² + ...
func poly(x float64, coeffs ...float64) float64 {
	var v float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// Moments returns the biased sample skewness and Pearson kurtosis (normal = 3)
func Moments(data []float64) (skew, kurtosis float64) {
	m2 := stat.Moment(2, data, nil)
	if m2 == 0 || len(data) == 0 {
		return math.NaN(), math.NaN()
	}
	skew = stat.Moment(3, data, nil) / math.Pow(m2, 1.5)
	kurtosis = stat.Moment(4, data, nil) / (m2 * m2)
	return skew, kurtosis
}

// JarqueBera tests normality from skewness and kurtosis: JB = n/6·(S² + (K−3)²/4), χ² with 2 df
func JarqueBera(data []float64, alpha float64) stats.TestResult {
	n := float64(len(data))
	s, k := Moments(data)
	jb := n / 6 * (s*s + (k-3)*(k-3)/4)
	return stats.NewTestResult(stats.TestJarqueBera, jb, NewDistributions().ChiSquarePValue(jb, 2), alpha, 2)
}

// OmnibusK2 is D'Agostino and Pearson's test combining the skewness and
// kurtosis z-scores: K² = Z₁² + Z₂², χ² with 2 df. Needs at least 8 observations.
func OmnibusK2(data []float64, alpha float64) stats.TestResult {
	n := float64(len(data))
	skew, kurt := Moments(data)
	if len(data) < 8 || math.IsNaN(skew) {
		return stats.NewTestResult(stats.TestOmnibus, math.NaN(), math.NaN(), alpha, 2)
	}

	// skewness transform
	y := skew * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alphaS := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	ay := y / alphaS
	z1 := delta * math.Log(ay+math.Sqrt(ay*ay+1))

	// kurtosis transform (Anscombe-Glynn)
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (kurt - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return stats.NewTestResult(stats.TestOmnibus, math.NaN(), math.NaN(), alpha, 2)
	}
	term2 := math.Cbrt((1 - 2/a) / denom)
	z2 := (term1 - term2) / math.Sqrt(2/(9*a))

	k2 := z1*z1 + z2*z2
	return stats.NewTestResult(stats.TestOmnibus, k2, NewDistributions().ChiSquarePValue(k2, 2), alpha, 2)
}
