package evaluate

// MetricSummary aggregates one metric across all evaluated documents.
type MetricSummary struct {
	Metric         string  `json:"metric"`
	Documents      int     `json:"documents"`
	Extracted      int     `json:"extracted"`
	Matches        int     `json:"matches"`
	ExtractionRate float64 `json:"extraction_rate"`
	AgreementRate  float64 `json:"agreement_rate"`
}

// Summarize computes per-metric extraction and agreement rates over a set
// of document evaluations. Only fields with ground truth count toward the
// denominators; rates are 0.0 when nothing was evaluable.
func Summarize(evals []DocumentEvaluation) []MetricSummary {
	byMetric := make(map[string]*MetricSummary)
	var order []string

	for _, eval := range evals {
		for _, c := range eval.Comparisons {
			s, ok := byMetric[c.Metric]
			if !ok {
				s = &MetricSummary{Metric: c.Metric}
				byMetric[c.Metric] = s
				order = append(order, c.Metric)
			}
			if c.ErrorType == ErrorNoGroundTruth {
				continue
			}
			s.Documents++
			if c.Extracted != nil || c.ExtractedID != nil {
				s.Extracted++
			}
			if c.Match != nil && *c.Match {
				s.Matches++
			}
		}
	}

	out := make([]MetricSummary, 0, len(order))
	for _, name := range order {
		s := byMetric[name]
		if s.Documents > 0 {
			s.ExtractionRate = float64(s.Extracted) / float64(s.Documents)
			s.AgreementRate = float64(s.Matches) / float64(s.Documents)
		}
		out = append(out, *s)
	}
	return out
}
