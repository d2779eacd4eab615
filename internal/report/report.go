// Package report renders batch artifacts as human-readable console output.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/tenk-extract/internal/evaluate"
	"github.com/sells-group/tenk-extract/internal/model"
)

// Report writes formatted tables to a single destination. Numbers are
// printed with English thousands separators.
type Report struct {
	w io.Writer
	p *message.Printer
}

// New creates a Report writing to w.
func New(w io.Writer) *Report {
	return &Report{w: w, p: message.NewPrinter(language.English)}
}

// Results prints every extraction outcome, ticker by ticker.
func (r *Report) Results(results model.ResultSet, schema model.Schema) {
	for _, ticker := range sortedKeys(results) {
		fmt.Fprintf(r.w, "\n%s\n%s\n", ticker, strings.Repeat("-", len(ticker)))

		strategies := results[ticker]
		for _, strategy := range sortedKeys(strategies) {
			outcome := strategies[strategy]
			if outcome.Error != "" {
				fmt.Fprintf(r.w, "  [%s] error: %s\n", strategy, outcome.Error)
				continue
			}
			fmt.Fprintf(r.w, "  [%s]\n", strategy)
			for _, f := range schema.Fields {
				fmt.Fprintf(r.w, "    %-28s %s\n", f.Name, r.fieldValue(outcome.Metrics, f))
			}
		}
	}
	fmt.Fprintln(r.w)
}

// Evaluations prints per-ticker comparisons against ground truth, then a
// per-strategy accuracy line.
func (r *Report) Evaluations(evals map[string]map[string]evaluate.DocumentEvaluation) {
	type strategyStats struct {
		accuracySum float64
		documents   int
	}
	stats := make(map[string]*strategyStats)

	for _, ticker := range sortedKeys(evals) {
		fmt.Fprintf(r.w, "\n%s\n%s\n", ticker, strings.Repeat("-", len(ticker)))

		byStrategy := evals[ticker]
		for _, strategy := range sortedKeys(byStrategy) {
			eval := byStrategy[strategy]
			fmt.Fprintf(r.w, "  [%s] accuracy %.1f%% (%d/%d)\n",
				strategy, eval.Accuracy*100, eval.Matches, eval.Evaluated)

			for _, c := range eval.Comparisons {
				fmt.Fprintf(r.w, "    %-28s %s\n", c.Metric, r.verdict(c))
			}

			s, ok := stats[strategy]
			if !ok {
				s = &strategyStats{}
				stats[strategy] = s
			}
			s.accuracySum += eval.Accuracy
			s.documents++
		}
	}

	fmt.Fprintln(r.w)
	for _, strategy := range sortedKeys(stats) {
		s := stats[strategy]
		mean := 0.0
		if s.documents > 0 {
			mean = s.accuracySum / float64(s.documents)
		}
		fmt.Fprintf(r.w, "%-10s mean accuracy %.1f%% over %d documents\n", strategy, mean*100, s.documents)
	}
}

// Summary prints per-metric extraction and agreement rates for one strategy.
func (r *Report) Summary(strategy string, metrics []evaluate.MetricSummary) {
	fmt.Fprintf(r.w, "\n%s metric summary\n", strategy)
	fmt.Fprintf(r.w, "  %-28s %10s %10s %10s\n", "metric", "truth", "extracted", "agree")
	for _, m := range metrics {
		fmt.Fprintf(r.w, "  %-28s %10d %9.1f%% %9.1f%%\n",
			m.Metric, m.Documents, m.ExtractionRate*100, m.AgreementRate*100)
	}
}

func (r *Report) fieldValue(m *model.FinancialMetrics, f model.FieldSpec) string {
	if m == nil {
		return "-"
	}
	if f.Kind == model.FieldIdentifier {
		if id := m.Identifier(f.Name); id != nil {
			return *id
		}
		return "-"
	}
	if v := m.Number(f.Name); v != nil {
		return r.p.Sprintf("%.0f", *v)
	}
	return "-"
}

func (r *Report) verdict(c evaluate.Comparison) string {
	switch {
	case c.ErrorType == evaluate.ErrorNoGroundTruth:
		return "(no ground truth)"
	case c.ErrorType == evaluate.ErrorNotExtracted:
		return "MISS  value not extracted"
	case c.Match != nil && *c.Match:
		return fmt.Sprintf("OK    %s", r.comparisonValues(c))
	case c.RelativeError != nil:
		return fmt.Sprintf("MISS  %s  off by %.1f%% (%s)", r.comparisonValues(c), *c.RelativeError*100, c.Severity)
	default:
		return fmt.Sprintf("MISS  %s (%s)", r.comparisonValues(c), c.Severity)
	}
}

func (r *Report) comparisonValues(c evaluate.Comparison) string {
	if c.ExtractedID != nil || c.GroundTruthID != nil {
		return fmt.Sprintf("%s vs %s", strVal(c.ExtractedID), strVal(c.GroundTruthID))
	}
	extracted, truth := "-", "-"
	if c.Extracted != nil {
		extracted = r.p.Sprintf("%.0f", *c.Extracted)
	}
	if c.GroundTruth != nil {
		truth = r.p.Sprintf("%.0f", *c.GroundTruth)
	}
	return fmt.Sprintf("%s vs %s", extracted, truth)
}

func strVal(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
