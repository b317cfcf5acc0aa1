package analysis

import (
	"fmt"
	"math"

	"gograde/domain/dataset"
	"gograde/domain/stats"
	"gograde/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// InterceptTerm names the constant column of every design matrix
const InterceptTerm = "const"

// rankTolerance is the smallest |R_ii| / max|R_jj| treated as full rank
const rankTolerance = 1e-10

// FitOLS regresses target on features plus an intercept by QR decomposition
// and attaches residual and design diagnostics.
func FitOLS(frame *dataset.Frame, target string, features []string, alpha float64) (*stats.RegressionModel, error) {
	if len(features) == 0 {
		return nil, errors.SchemaError([]string{"<regression features>"})
	}
	if missing := frame.Missing(append([]string{target}, features...)); len(missing) > 0 {
		return nil, errors.SchemaError(missing)
	}

	y, err := frame.Floats(target)
	if err != nil {
		return nil, err
	}
	x, err := designMatrix(frame, features)
	if err != nil {
		return nil, err
	}
	return fitDesign(target, features, x, y, alpha)
}

// designMatrix stacks an intercept column and the features, in order
func designMatrix(frame *dataset.Frame, features []string) (*mat.Dense, error) {
	n := frame.Len()
	x := mat.NewDense(n, len(features)+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, f := range features {
		col, err := frame.Floats(f)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			x.Set(i, j+1, v)
		}
	}
	return x, nil
}

// leastSquares holds a QR solve of y on x
type leastSquares struct {
	beta   *mat.VecDense
	fitted []float64
	resid  []float64
	rInv   *mat.Dense // inverse of the p×p upper triangle of R
	ssr    float64
	tss    float64
}

// rSquared is 1 − SSR/TSS; NaN when y is constant
func (ls *leastSquares) rSquared() float64 {
	if ls.tss == 0 {
		return math.NaN()
	}
	return 1 - ls.ssr/ls.tss
}

// deficientColumn returns the first column whose R diagonal is negligible
// against the largest one, or -1 when x has full column rank
func deficientColumn(r *mat.Dense, p int) int {
	var maxDiag float64
	for i := 0; i < p; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	for i := 0; i < p; i++ {
		if maxDiag == 0 || math.Abs(r.At(i, i)) < rankTolerance*maxDiag {
			return i
		}
	}
	return -1
}

// fullColumnRank reports whether every column of x adds a new direction
func fullColumnRank(x *mat.Dense) bool {
	n, p := x.Dims()
	if n < p {
		return false
	}
	var qr mat.QR
	qr.Factorize(x)
	var r mat.Dense
	qr.RTo(&r)
	return deficientColumn(&r, p) < 0
}

// solveLeastSquares fails with SingularDesign on rank deficiency or when n ≤ p
func solveLeastSquares(x *mat.Dense, y []float64) (*leastSquares, error) {
	n, p := x.Dims()
	if n <= p {
		return nil, errors.SingularDesign(fmt.Sprintf("%d observations for %d parameters", n, p)).
			With("n", n).With("p", p)
	}

	var qr mat.QR
	qr.Factorize(x)
	var r mat.Dense
	qr.RTo(&r)
	if col := deficientColumn(&r, p); col >= 0 {
		return nil, errors.SingularDesign("design matrix is rank deficient").With("column", col)
	}

	yv := mat.NewVecDense(n, y)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return nil, errors.SingularDesign(err.Error())
	}

	var rInv mat.Dense
	if err := rInv.Inverse(r.Slice(0, p, 0, p)); err != nil {
		return nil, errors.SingularDesign(err.Error())
	}

	var fittedVec mat.VecDense
	fittedVec.MulVec(x, &beta)

	ls := &leastSquares{
		beta:   &beta,
		fitted: make([]float64, n),
		resid:  make([]float64, n),
		rInv:   &rInv,
	}
	var ybar float64
	for _, v := range y {
		ybar += v
	}
	ybar /= float64(n)
	for i := 0; i < n; i++ {
		ls.fitted[i] = fittedVec.AtVec(i)
		ls.resid[i] = y[i] - ls.fitted[i]
		ls.ssr += ls.resid[i] * ls.resid[i]
		ls.tss += (y[i] - ybar) * (y[i] - ybar)
	}
	return ls, nil
}

func fitDesign(target string, features []string, x *mat.Dense, y []float64, alpha float64) (*stats.RegressionModel, error) {
	ls, err := solveLeastSquares(x, y)
	if err != nil {
		return nil, err
	}

	n, p := x.Dims()
	dfResid := n - p
	dfModel := p - 1
	sigma2 := ls.ssr / float64(dfResid)

	// (XᵀX)⁻¹ = R⁻¹R⁻ᵀ
	var cov mat.Dense
	cov.Mul(ls.rInv, ls.rInv.T())
	cov.Scale(sigma2, &cov)

	dist := NewDistributions()
	terms := append([]string{InterceptTerm}, features...)
	coef := make([]float64, p)
	se := make([]float64, p)
	tstat := make([]float64, p)
	pval := make([]float64, p)
	lower := make([]float64, p)
	upper := make([]float64, p)
	tcrit := dist.TQuantile(1-alpha/2, float64(dfResid))
	for j := 0; j < p; j++ {
		coef[j] = ls.beta.AtVec(j)
		se[j] = math.Sqrt(cov.At(j, j))
		tstat[j] = coef[j] / se[j]
		pval[j] = dist.TTestPValue(tstat[j], float64(dfResid))
		lower[j] = coef[j] - tcrit*se[j]
		upper[j] = coef[j] + tcrit*se[j]
	}

	r2 := ls.rSquared()
	adj := 1 - (1-r2)*float64(n-1)/float64(dfResid)

	var f, fp float64
	switch {
	case ls.ssr > 0:
		f = ((ls.tss - ls.ssr) / float64(dfModel)) / sigma2
		fp = dist.FTestPValue(f, float64(dfModel), float64(dfResid))
	case ls.tss > 0:
		f, fp = math.Inf(1), 0
	default:
		f, fp = math.NaN(), math.NaN()
	}

	model := &stats.RegressionModel{
		Target:       target,
		Terms:        terms,
		Coefficients: coef,
		StdErrors:    se,
		TStats:       tstat,
		PValues:      pval,
		CILower:      lower,
		CIUpper:      upper,
		Fitted:       ls.fitted,
		Residuals:    ls.resid,
		N:            n,
		DFModel:      dfModel,
		DFResid:      dfResid,
		RSquared:     r2,
		AdjRSquared:  adj,
		F:            stats.NewTestResult(stats.TestOLS, f, fp, alpha, float64(dfModel), float64(dfResid)),
	}
	model.Diagnostics = Diagnose(x, features, ls.resid, alpha)
	return model, nil
}
