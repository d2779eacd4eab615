// Package evaluate compares extracted metrics against the ground-truth
// table using a relative-error tolerance.
package evaluate

import (
	"math"

	"github.com/sells-group/tenk-extract/internal/groundtruth"
	"github.com/sells-group/tenk-extract/internal/model"
)

// DefaultTolerance is the relative error within which a value counts as a
// match.
const DefaultTolerance = 0.01

// Error type labels used in evaluation artifacts.
const (
	ErrorNotExtracted  = "value not extracted"
	ErrorNoGroundTruth = "no ground truth"
)

// Severity buckets for relative error.
const (
	SeverityNone     = "none"
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeverityMajor    = "major"
)

// Comparison is the verdict for one field of one document. Numeric fields
// populate Extracted/GroundTruth; identifier fields populate the ID pair.
// A nil Match means the field had no ground truth and is excluded from the
// accuracy denominator. RelativeError is nil when the error is undefined or
// infinite, since JSON cannot carry infinity.
type Comparison struct {
	Metric        string   `json:"metric"`
	Extracted     *float64 `json:"extracted,omitempty"`
	GroundTruth   *float64 `json:"ground_truth,omitempty"`
	ExtractedID   *string  `json:"extracted_id,omitempty"`
	GroundTruthID *string  `json:"ground_truth_id,omitempty"`
	AbsoluteError *float64 `json:"absolute_error,omitempty"`
	RelativeError *float64 `json:"relative_error,omitempty"`
	Match         *bool    `json:"match,omitempty"`
	ErrorType     string   `json:"error_type,omitempty"`
	Severity      string   `json:"severity,omitempty"`
}

// DocumentEvaluation aggregates one document's comparisons.
type DocumentEvaluation struct {
	Ticker      string       `json:"ticker"`
	Comparisons []Comparison `json:"comparisons"`
	Matches     int          `json:"matches"`
	Evaluated   int          `json:"evaluated"`
	Accuracy    float64      `json:"accuracy"`
}

// Evaluator scores extractions against a loaded ground-truth table.
type Evaluator struct {
	truth     *groundtruth.Table
	tolerance float64
}

// New creates an Evaluator. A non-positive tolerance falls back to the
// default.
func New(truth *groundtruth.Table, tolerance float64) *Evaluator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Evaluator{truth: truth, tolerance: tolerance}
}

// Tolerance returns the active relative-error tolerance.
func (e *Evaluator) Tolerance() float64 { return e.tolerance }

// EvaluateDocument scores every schema field of one extraction. Accuracy is
// matches over fields that have ground truth, and 0.0 when none do.
func (e *Evaluator) EvaluateDocument(m model.FinancialMetrics) DocumentEvaluation {
	eval := DocumentEvaluation{Ticker: m.Ticker}

	row, haveRow := e.truth.Lookup(m.Ticker)
	for _, f := range e.truth.Schema().Fields {
		var c Comparison
		switch f.Kind {
		case model.FieldIdentifier:
			c = e.compareIdentifier(f.Name, &m, row, haveRow)
		default:
			c = e.compareNumber(f.Name, &m, row, haveRow)
		}
		eval.Comparisons = append(eval.Comparisons, c)
		if c.Match == nil {
			continue
		}
		eval.Evaluated++
		if *c.Match {
			eval.Matches++
		}
	}

	if eval.Evaluated > 0 {
		eval.Accuracy = float64(eval.Matches) / float64(eval.Evaluated)
	}
	return eval
}

func (e *Evaluator) compareNumber(name string, m *model.FinancialMetrics, row groundtruth.Row, haveRow bool) Comparison {
	c := Comparison{Metric: name, Extracted: m.Number(name)}

	truth, haveTruth := 0.0, false
	if haveRow {
		truth, haveTruth = row.Numbers[name]
	}
	if !haveTruth {
		c.ErrorType = ErrorNoGroundTruth
		return c
	}
	c.GroundTruth = &truth

	if c.Extracted == nil {
		c.Match = boolPtr(false)
		c.ErrorType = ErrorNotExtracted
		return c
	}

	absErr := math.Abs(*c.Extracted - truth)
	c.AbsoluteError = &absErr

	relErr := relativeError(*c.Extracted, truth)
	if !math.IsInf(relErr, 1) {
		c.RelativeError = &relErr
	}
	c.Match = boolPtr(relErr <= e.tolerance)
	c.Severity = classify(relErr)
	return c
}

func (e *Evaluator) compareIdentifier(name string, m *model.FinancialMetrics, row groundtruth.Row, haveRow bool) Comparison {
	c := Comparison{Metric: name, ExtractedID: m.Identifier(name)}

	truth, haveTruth := "", false
	if haveRow {
		truth, haveTruth = row.Identifiers[name]
	}
	if !haveTruth {
		c.ErrorType = ErrorNoGroundTruth
		return c
	}
	c.GroundTruthID = &truth

	if c.ExtractedID == nil {
		c.Match = boolPtr(false)
		c.ErrorType = ErrorNotExtracted
		return c
	}

	c.Match = boolPtr(model.NormalizeCIK(*c.ExtractedID) == model.NormalizeCIK(truth))
	if !*c.Match {
		c.Severity = SeverityMajor
	}
	return c
}

// relativeError is |extracted - truth| / |truth|, infinite when the truth
// is zero.
func relativeError(extracted, truth float64) float64 {
	if truth == 0 {
		return math.Inf(1)
	}
	return math.Abs(extracted-truth) / math.Abs(truth)
}

// classify buckets a relative error by magnitude.
func classify(relErr float64) string {
	switch {
	case relErr <= 0.01:
		return SeverityNone
	case relErr <= 0.10:
		return SeverityMinor
	case relErr > 0.50:
		return SeverityMajor
	default:
		return SeverityModerate
	}
}

func boolPtr(b bool) *bool { return &b }
