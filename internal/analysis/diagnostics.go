package analysis

import (
	"math"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// Diagnose checks the residuals and design of a fit. x is the design with the
// intercept in column 0 and features in order; nothing passed in is modified.
func Diagnose(x *mat.Dense, features []string, residuals []float64, alpha float64) stats.DiagnosticsReport {
	skew, kurt := Moments(residuals)
	dw := DurbinWatson(residuals)
	return stats.DiagnosticsReport{
		JarqueBera:      JarqueBera(residuals, alpha),
		Omnibus:         OmnibusK2(residuals, alpha),
		Skew:            skew,
		Kurtosis:        kurt,
		VIF:             varianceInflation(x, features),
		BreuschPagan:    BreuschPagan(x, residuals, alpha),
		DurbinWatson:    dw,
		Autocorrelation: stats.ClassifyDurbinWatson(dw),
	}
}

// VarianceInflation computes the VIF of each feature against the others.
// Exact collinearity yields +Inf rather than an error.
func VarianceInflation(frame *dataset.Frame, features []string) ([]stats.FeatureVIF, error) {
	if len(features) == 0 {
		return nil, errors.SchemaError([]string{"<regression features>"})
	}
	if missing := frame.Missing(features); len(missing) > 0 {
		return nil, errors.SchemaError(missing)
	}
	x, err := designMatrix(frame, features)
	if err != nil {
		return nil, err
	}
	return varianceInflation(x, features), nil
}

// varianceInflation: VIF_j = 1/(1 − R²_j) from regressing feature j on an
// intercept and the other features. Regressors that add no new direction are
// left out of the auxiliary design so that only feature j's own collinearity
// shows up as +Inf.
func varianceInflation(x *mat.Dense, features []string) []stats.FeatureVIF {
	_, p := x.Dims()
	out := make([]stats.FeatureVIF, len(features))
	for j, name := range features {
		col := j + 1
		y := mat.Col(nil, col, x)

		basis := [][]float64{mat.Col(nil, 0, x)}
		for c := 1; c < p; c++ {
			if c == col {
				continue
			}
			candidate := append(append([][]float64(nil), basis...), mat.Col(nil, c, x))
			if fullColumnRank(columnsToDense(candidate)) {
				basis = candidate
			}
		}

		vif := math.Inf(1)
		if ls, err := solveLeastSquares(columnsToDense(basis), y); err == nil {
			if r2 := ls.rSquared(); !math.IsNaN(r2) && r2 < 1-1e-12 {
				vif = 1 / (1 - r2)
			}
		}
		out[j] = stats.FeatureVIF{Feature: name, VIF: vif}
	}
	return out
}

func columnsToDense(cols [][]float64) *mat.Dense {
	d := mat.NewDense(len(cols[0]), len(cols), nil)
	for j, c := range cols {
		d.SetCol(j, c)
	}
	return d
}

// BreuschPagan regresses squared residuals on the design: LM = n·R², χ² with
// as many degrees of freedom as there are features
func BreuschPagan(x *mat.Dense, residuals []float64, alpha float64) stats.TestResult {
	n, p := x.Dims()
	df := float64(p - 1)

	e2 := make([]float64, len(residuals))
	for i, e := range residuals {
		e2[i] = e * e
	}

	ls, err := solveLeastSquares(x, e2)
	if err != nil {
		return stats.NewTestResult(stats.TestBreuschPagan, math.NaN(), math.NaN(), alpha, df)
	}
	r2 := ls.rSquared()
	if math.IsNaN(r2) {
		// constant squared residuals: no variance to explain
		return stats.NewTestResult(stats.TestBreuschPagan, 0, 1, alpha, df)
	}
	lm := float64(n) * r2
	return stats.NewTestResult(stats.TestBreuschPagan, lm, NewDistributions().ChiSquarePValue(lm, df), alpha, df)
}

// DurbinWatson is Σ(e_t − e_{t−1})² / Σe_t²; about 2 without autocorrelation
func DurbinWatson(residuals []float64) float64 {
	var num, den float64
	for i, e := range residuals {
		den += e * e
		if i > 0 {
			d := e - residuals[i-1]
			num += d * d
		}
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
