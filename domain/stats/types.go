package stats

import "math"

// TestType identifies the statistical procedure that produced a result
type TestType string

const (
	TestChiSquare    TestType = "chi_square"
	TestANOVA        TestType = "one_way_anova"
	TestTukeyHSD     TestType = "tukey_hsd"
	TestOLS          TestType = "ols_f"
	TestShapiroWilk  TestType = "shapiro_wilk"
	TestJarqueBera   TestType = "jarque_bera"
	TestOmnibus      TestType = "omnibus_k2"
	TestBreuschPagan TestType = "breusch_pagan"
)

// Conclusion is the decision against the null hypothesis at a given alpha
type Conclusion string

const (
	Reject       Conclusion = "reject"
	FailToReject Conclusion = "fail_to_reject"
)

// Decide rejects when p < alpha. A NaN p-value never rejects.
func Decide(pValue, alpha float64) Conclusion {
	if pValue < alpha {
		return Reject
	}
	return FailToReject
}

// TestResult is the common outcome of a hypothesis test
type TestResult struct {
	Test       TestType   `json:"test"`
	Statistic  float64    `json:"statistic"`
	PValue     float64    `json:"p_value"`
	DF         []float64  `json:"df,omitempty"` // one entry for χ²/t, two for F
	Alpha      float64    `json:"alpha"`
	Conclusion Conclusion `json:"conclusion"`
}

// NewTestResult fills in the conclusion from p and alpha
func NewTestResult(test TestType, statistic, pValue, alpha float64, df ...float64) TestResult {
	return TestResult{
		Test:       test,
		Statistic:  statistic,
		PValue:     pValue,
		DF:         df,
		Alpha:      alpha,
		Conclusion: Decide(pValue, alpha),
	}
}

// Rejected reports whether the null hypothesis was rejected
func (r TestResult) Rejected() bool {
	return r.Conclusion == Reject
}

// Summary is the descriptive profile of one numeric column
type Summary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"` // sample (n-1); NaN when count < 2
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// ContingencyTable holds cross-tabulated counts with sorted row and column labels
type ContingencyTable struct {
	RowVariable string      `json:"row_variable"`
	ColVariable string      `json:"col_variable"`
	RowLabels   []string    `json:"row_labels"`
	ColLabels   []string    `json:"col_labels"`
	Counts      [][]float64 `json:"counts"`
}

// Total returns the grand total N
func (t ContingencyTable) Total() float64 {
	var n float64
	for _, row := range t.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// RowTotals returns the marginal row sums
func (t ContingencyTable) RowTotals() []float64 {
	out := make([]float64, len(t.Counts))
	for i, row := range t.Counts {
		for _, c := range row {
			out[i] += c
		}
	}
	return out
}

// ColTotals returns the marginal column sums
func (t ContingencyTable) ColTotals() []float64 {
	out := make([]float64, len(t.ColLabels))
	for _, row := range t.Counts {
		for j, c := range row {
			out[j] += c
		}
	}
	return out
}

// IndependenceResult is the chi-square test of independence between two categorical columns
type IndependenceResult struct {
	Table        ContingencyTable `json:"table"`
	Expected     [][]float64      `json:"expected"`
	Result       TestResult       `json:"result"`
	CramersV     float64          `json:"cramers_v"`
	YatesApplied bool             `json:"yates_applied"`
}

// GroupPartition maps ordered group labels to their observations
type GroupPartition struct {
	Labels []string    `json:"labels"`
	Groups [][]float64 `json:"groups"`
}

// N returns the total number of observations across groups
func (p GroupPartition) N() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g)
	}
	return n
}

// GroupSummary describes one ANOVA group
type GroupSummary struct {
	Label string  `json:"label"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	// Shapiro-Wilk pre-check, informational only; nil when n < 3
	Normality *TestResult `json:"normality,omitempty"`
}

// TukeyComparison is one pairwise Tukey-Kramer contrast.
// MeanDiff is mean(Group2) - mean(Group1).
type TukeyComparison struct {
	Group1   string  `json:"group1"`
	Group2   string  `json:"group2"`
	MeanDiff float64 `json:"meandiff"`
	PAdj     float64 `json:"p_adj"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Reject   bool    `json:"reject"`
}

// ANOVAResult is the one-way ANOVA outcome with its optional post-hoc contrasts
type ANOVAResult struct {
	Target     string            `json:"target"`
	Group      string            `json:"group"`
	Groups     []GroupSummary    `json:"groups"`
	SSBetween  float64           `json:"ss_between"`
	SSWithin   float64           `json:"ss_within"`
	MSBetween  float64           `json:"ms_between"`
	MSWithin   float64           `json:"ms_within"`
	EtaSquared float64           `json:"eta_squared"`
	Result     TestResult        `json:"result"`
	PostHoc    []TukeyComparison `json:"post_hoc,omitempty"` // empty unless Result rejected
}

// AutocorrelationBand classifies a Durbin-Watson statistic
type AutocorrelationBand string

const (
	AutocorrelationPositive  AutocorrelationBand = "positive"
	AutocorrelationNone      AutocorrelationBand = "none"
	AutocorrelationNegative  AutocorrelationBand = "negative"
	AutocorrelationUndefined AutocorrelationBand = "undefined" // all residuals zero
)

// ClassifyDurbinWatson maps d to a band: < 1.5 positive, > 2.5 negative
func ClassifyDurbinWatson(d float64) AutocorrelationBand {
	switch {
	case math.IsNaN(d):
		return AutocorrelationUndefined
	case d < 1.5:
		return AutocorrelationPositive
	case d > 2.5:
		return AutocorrelationNegative
	default:
		return AutocorrelationNone
	}
}

// FeatureVIF is the variance inflation factor of one regressor
type FeatureVIF struct {
	Feature string  `json:"feature"`
	VIF     float64 `json:"vif"` // +Inf on exact collinearity
}

// DiagnosticsReport holds residual and design checks for a fitted model
type DiagnosticsReport struct {
	JarqueBera      TestResult          `json:"jarque_bera"`
	Omnibus         TestResult          `json:"omnibus"`
	Skew            float64             `json:"skew"`
	Kurtosis        float64             `json:"kurtosis"` // Pearson, normal = 3
	VIF             []FeatureVIF        `json:"vif"`
	BreuschPagan    TestResult          `json:"breusch_pagan"`
	DurbinWatson    float64             `json:"durbin_watson"`
	Autocorrelation AutocorrelationBand `json:"autocorrelation"`
}

// VIFByFeature returns the VIF values keyed by feature name
func (d DiagnosticsReport) VIFByFeature() map[string]float64 {
	m := make(map[string]float64, len(d.VIF))
	for _, v := range d.VIF {
		m[v.Feature] = v.VIF
	}
	return m
}

// RegressionModel is an immutable OLS fit. Slices indexed by term have the
// intercept first, then features in their declared order.
type RegressionModel struct {
	Target       string            `json:"target"`
	Terms        []string          `json:"terms"`
	Coefficients []float64         `json:"coefficients"`
	StdErrors    []float64         `json:"std_errors"`
	TStats       []float64         `json:"t_stats"`
	PValues      []float64         `json:"p_values"`
	CILower      []float64         `json:"ci_lower"` // two-sided 1-alpha interval
	CIUpper      []float64         `json:"ci_upper"`
	Fitted       []float64         `json:"fitted"`
	Residuals    []float64         `json:"residuals"`
	N            int               `json:"n"`
	DFModel      int               `json:"df_model"`
	DFResid      int               `json:"df_resid"`
	RSquared     float64           `json:"r_squared"`
	AdjRSquared  float64           `json:"adj_r_squared"`
	F            TestResult        `json:"f"`
	Diagnostics  DiagnosticsReport `json:"diagnostics"`
}

// Features returns the regressor names without the intercept
func (m *RegressionModel) Features() []string {
	if len(m.Terms) == 0 {
		return nil
	}
	return m.Terms[1:]
}

// Coefficient returns the estimate for a named term
func (m *RegressionModel) Coefficient(term string) (float64, bool) {
	for i, t := range m.Terms {
		if t == term {
			return m.Coefficients[i], true
		}
	}
	return math.NaN(), false
}

// CorrelationMatrix is a symmetric Pearson correlation matrix
type CorrelationMatrix struct {
	Variables []string    `json:"variables"`
	Values    [][]float64 `json:"values"`
}

// VariableCorrelation is the correlation of one variable with the target
type VariableCorrelation struct {
	Variable string  `json:"variable"`
	R        float64 `json:"r"`
}
