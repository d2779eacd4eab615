package evaluate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tenk-extract/internal/groundtruth"
	"github.com/sells-group/tenk-extract/internal/model"
)

func loadTruth(t *testing.T, csv string, schema model.Schema) *groundtruth.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "truth.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))
	table, err := groundtruth.Load(path, schema)
	require.NoError(t, err)
	return table
}

func tenkTruth(t *testing.T) *groundtruth.Table {
	return loadTruth(t, `ticker,north_america_revenue,depreciation_amortization,lease_liabilities
AAPL,100000,5000,
ZERO,0,1,1
`, model.TenK)
}

func findComparison(t *testing.T, eval DocumentEvaluation, metric string) Comparison {
	t.Helper()
	for _, c := range eval.Comparisons {
		if c.Metric == metric {
			return c
		}
	}
	t.Fatalf("no comparison for %s", metric)
	return Comparison{}
}

func TestEvaluateWithinTolerance(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	m := model.FinancialMetrics{
		Ticker:                   "AAPL",
		NorthAmericaRevenue:      f(100500), // 0.5% off
		DepreciationAmortization: f(5000),   // exact
	}
	eval := e.EvaluateDocument(m)

	rev := findComparison(t, eval, "north_america_revenue")
	require.NotNil(t, rev.Match)
	assert.True(t, *rev.Match)
	require.NotNil(t, rev.RelativeError)
	assert.InDelta(t, 0.005, *rev.RelativeError, 1e-9)
	require.NotNil(t, rev.AbsoluteError)
	assert.InDelta(t, 500, *rev.AbsoluteError, 1e-9)
	assert.Equal(t, SeverityNone, rev.Severity)

	// Two of two evaluable fields matched; empty truth cell is excluded.
	assert.Equal(t, 2, eval.Evaluated)
	assert.Equal(t, 2, eval.Matches)
	assert.InDelta(t, 1.0, eval.Accuracy, 1e-9)
}

func TestEvaluateOutsideTolerance(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	m := model.FinancialMetrics{Ticker: "AAPL", NorthAmericaRevenue: f(108000)} // 8% off
	eval := e.EvaluateDocument(m)

	rev := findComparison(t, eval, "north_america_revenue")
	require.NotNil(t, rev.Match)
	assert.False(t, *rev.Match)
	assert.Equal(t, SeverityMinor, rev.Severity)
}

func TestEvaluateValueNotExtracted(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	eval := e.EvaluateDocument(model.FinancialMetrics{Ticker: "AAPL"})

	rev := findComparison(t, eval, "north_america_revenue")
	require.NotNil(t, rev.Match)
	assert.False(t, *rev.Match)
	assert.Equal(t, ErrorNotExtracted, rev.ErrorType)
	assert.Nil(t, rev.RelativeError)
	assert.Nil(t, rev.AbsoluteError)

	assert.Equal(t, 2, eval.Evaluated)
	assert.Zero(t, eval.Matches)
	assert.Zero(t, eval.Accuracy)
}

func TestEvaluateNoGroundTruthExcluded(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	m := model.FinancialMetrics{Ticker: "AAPL", LeaseLiabilities: f(123)}
	eval := e.EvaluateDocument(m)

	lease := findComparison(t, eval, "lease_liabilities")
	assert.Nil(t, lease.Match)
	assert.Equal(t, ErrorNoGroundTruth, lease.ErrorType)
	assert.Equal(t, 2, eval.Evaluated, "lease_liabilities must not count")
}

func TestEvaluateUnknownTickerAccuracyZero(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	eval := e.EvaluateDocument(model.FinancialMetrics{Ticker: "NFLX", NorthAmericaRevenue: f(1)})

	assert.Zero(t, eval.Evaluated)
	assert.Zero(t, eval.Accuracy, "accuracy must be 0.0, never NaN")
	for _, c := range eval.Comparisons {
		assert.Equal(t, ErrorNoGroundTruth, c.ErrorType)
	}
}

func TestEvaluateZeroTruthInfiniteError(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	m := model.FinancialMetrics{Ticker: "ZERO", NorthAmericaRevenue: f(50)}
	eval := e.EvaluateDocument(m)

	rev := findComparison(t, eval, "north_america_revenue")
	require.NotNil(t, rev.Match)
	assert.False(t, *rev.Match)
	assert.Nil(t, rev.RelativeError, "infinite error is omitted from the artifact")
	require.NotNil(t, rev.AbsoluteError)
	assert.InDelta(t, 50, *rev.AbsoluteError, 1e-9)
	assert.Equal(t, SeverityMajor, rev.Severity)

	// The artifact must still marshal.
	_, err := json.Marshal(eval)
	require.NoError(t, err)
}

func TestEvaluateIdentifierPadding(t *testing.T) {
	truth := loadTruth(t, "ticker,cik,total_revenue,net_income\nAAPL,320193,100,50\n", model.Fundamentals)
	e := New(truth, 0.01)

	cik := "0000320193"
	eval := e.EvaluateDocument(model.FinancialMetrics{Ticker: "AAPL", CIK: &cik, TotalRevenue: f(100), NetIncome: f(50)})

	c := findComparison(t, eval, "cik")
	require.NotNil(t, c.Match)
	assert.True(t, *c.Match, "zero-padded and bare CIK must compare equal")
	assert.InDelta(t, 1.0, eval.Accuracy, 1e-9)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SeverityNone, classify(0.005))
	assert.Equal(t, SeverityNone, classify(0.01))
	assert.Equal(t, SeverityMinor, classify(0.05))
	assert.Equal(t, SeverityModerate, classify(0.3))
	assert.Equal(t, SeverityMajor, classify(0.8))
}

func TestSummarize(t *testing.T) {
	e := New(tenkTruth(t), 0.01)

	evals := []DocumentEvaluation{
		e.EvaluateDocument(model.FinancialMetrics{Ticker: "AAPL", NorthAmericaRevenue: f(100000)}),
		e.EvaluateDocument(model.FinancialMetrics{Ticker: "ZERO", NorthAmericaRevenue: f(1), DepreciationAmortization: f(1)}),
	}

	summary := Summarize(evals)
	require.Len(t, summary, 3)

	var rev MetricSummary
	for _, s := range summary {
		if s.Metric == "north_america_revenue" {
			rev = s
		}
	}
	assert.Equal(t, 2, rev.Documents)
	assert.Equal(t, 2, rev.Extracted)
	assert.Equal(t, 1, rev.Matches) // ZERO's truth is 0, infinite error
	assert.InDelta(t, 1.0, rev.ExtractionRate, 1e-9)
	assert.InDelta(t, 0.5, rev.AgreementRate, 1e-9)
}

func TestNewDefaultTolerance(t *testing.T) {
	e := New(tenkTruth(t), 0)
	assert.InDelta(t, DefaultTolerance, e.Tolerance(), 1e-9)
}

func f(v float64) *float64 { return &v }
