// Package extract runs the metric extraction contract: one LLM query per
// filing, a typed record or a typed failure back.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tenk-extract/internal/chunk"
	"github.com/sells-group/tenk-extract/internal/flatten"
	"github.com/sells-group/tenk-extract/internal/model"
	"github.com/sells-group/tenk-extract/internal/ocr"
	"github.com/sells-group/tenk-extract/pkg/llm"
)

// Strategy selects how the document is prepared before the query. Both
// strategies issue exactly one query.
type Strategy string

const (
	// StrategyBaseline chunks the full document text.
	StrategyBaseline Strategy = "baseline"
	// StrategyRefined keeps only segments mentioning known 10-K section
	// markers before relevance selection, falling back to all segments when
	// nothing matches.
	StrategyRefined Strategy = "refined"
)

// Strategies returns the strategies for a CLI mode string.
func Strategies(mode string) ([]Strategy, error) {
	switch mode {
	case "baseline":
		return []Strategy{StrategyBaseline}, nil
	case "refined":
		return []Strategy{StrategyRefined}, nil
	case "both":
		return []Strategy{StrategyBaseline, StrategyRefined}, nil
	}
	return nil, eris.Errorf("extract: unknown mode %q", mode)
}

// Document is one filing on disk with its caller-assigned ticker.
type Document struct {
	Path   string
	Ticker string
}

// Options tunes document preparation and the query itself.
type Options struct {
	ChunkSize     int
	ContextBudget int
	MaxTokens     int
	Timeout       time.Duration
}

// Extractor prepares filing text and queries an LLM backend for one schema
// of metrics.
type Extractor struct {
	llm  llm.Client
	pdf  ocr.Extractor
	opts Options
}

// New creates an Extractor over the given backend and PDF text provider.
func New(client llm.Client, pdf ocr.Extractor, opts Options) *Extractor {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunk.DefaultSize
	}
	if opts.ContextBudget <= 0 {
		opts.ContextBudget = 48000
	}
	return &Extractor{llm: client, pdf: pdf, opts: opts}
}

// sectionMarkers flag segments that belong to the parts of a 10-K where the
// target figures live.
var sectionMarkers = []string{
	"item 7",
	"item 8",
	"management's discussion",
	"balance sheet",
	"income statement",
	"statements of operations",
	"cash flow",
	"segment",
	"lease",
	"depreciation",
}

const systemPrompt = "You are a financial analyst extracting figures from SEC 10-K filings. " +
	"Return a valid JSON object matching the requested schema. Use null for any value " +
	"not present in the excerpts. Report amounts in USD as plain numbers without " +
	"currency symbols or thousands separators."

// Extract runs one strategy over one document. Missing or unreadable fields
// in the model output become nil without error; only service failures and an
// unparseable response are errors. The returned ticker is always the
// caller's, regardless of what the model says.
func (e *Extractor) Extract(ctx context.Context, doc Document, schema model.Schema, strategy Strategy) (model.FinancialMetrics, error) {
	text, err := e.documentText(ctx, doc.Path)
	if err != nil {
		return model.FinancialMetrics{}, err
	}

	segments := chunk.Split(text, e.opts.ChunkSize)
	if strategy == StrategyRefined {
		segments = filterSections(segments)
	}
	if len(segments) == 0 {
		// Nothing to ask about; an empty record still carries the ticker.
		zap.L().Warn("document produced no text segments",
			zap.String("path", doc.Path),
			zap.String("strategy", string(strategy)),
		)
		return model.FinancialMetrics{Ticker: doc.Ticker}, nil
	}

	excerpt := selectRelevant(segments, schemaKeywords(schema), e.opts.ContextBudget)

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		System:    systemPrompt,
		Prompt:    buildPrompt(schema, doc.Ticker, excerpt),
		MaxTokens: e.opts.MaxTokens,
	})
	if err != nil {
		return model.FinancialMetrics{}, eris.Wrapf(err, "extract: query for %s", doc.Ticker)
	}
	resp.Usage.LogCost(resp.Model, filepath.Base(doc.Path))

	raw, err := parseResponse(resp.Text)
	if err != nil {
		return model.FinancialMetrics{}, eris.Wrapf(err, "extract: parse response for %s", doc.Ticker)
	}

	return model.FromRaw(raw, schema, doc.Ticker), nil
}

// documentText loads a filing as plain text: pdftotext/OCR for PDFs, the
// table flattener for HTML, the raw bytes otherwise.
func (e *Extractor) documentText(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := e.pdf.ExtractText(ctx, path)
		if err != nil {
			return "", eris.Wrapf(err, "extract: PDF text for %s", path)
		}
		return text, nil
	case ".htm", ".html":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "extract: read %s", path)
		}
		return flatten.HTML(string(data))
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "extract: read %s", path)
		}
		return string(data), nil
	}
}

// filterSections keeps segments containing a known section marker. When no
// segment matches, all segments are kept so the refined strategy degrades to
// the baseline rather than asking about nothing.
func filterSections(segments []string) []string {
	var kept []string
	for _, seg := range segments {
		lower := strings.ToLower(seg)
		for _, marker := range sectionMarkers {
			if strings.Contains(lower, marker) {
				kept = append(kept, seg)
				break
			}
		}
	}
	if len(kept) == 0 {
		return segments
	}
	return kept
}

// schemaKeywords derives scoring keywords from the schema's field names and
// descriptions.
func schemaKeywords(schema model.Schema) []string {
	stopWords := map[string]bool{
		"the": true, "and": true, "for": true, "plus": true, "total": true,
		"usd": true, "fiscal": true, "year": true, "sec": true,
	}

	seen := make(map[string]bool)
	var keywords []string
	for _, f := range schema.Fields {
		text := strings.ReplaceAll(f.Name, "_", " ") + " " + f.Description
		for _, w := range strings.Fields(strings.ToLower(text)) {
			w = strings.Trim(w, "?.,!;:'\"()[]{}")
			if len(w) < 3 || stopWords[w] || seen[w] {
				continue
			}
			seen[w] = true
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// selectRelevant greedily picks the highest-scoring segments within the
// character budget and re-joins them in document order.
func selectRelevant(segments []string, keywords []string, budget int) string {
	total := 0
	for _, seg := range segments {
		total += len(seg) + 2
	}
	if total <= budget || len(keywords) == 0 {
		return strings.Join(segments, "\n\n")
	}

	type scoredSegment struct {
		idx   int
		score int
	}
	scored := make([]scoredSegment, len(segments))
	for i, seg := range segments {
		lower := strings.ToLower(seg)
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw)
		}
		scored[i] = scoredSegment{idx: i, score: score}
	}

	// Sort by score descending, stable on document order (insertion sort;
	// segment counts are small).
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].score > scored[j-1].score; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}

	selected := make(map[int]bool)
	used := 0
	for _, s := range scored {
		if used+len(segments[s.idx]) > budget {
			continue
		}
		selected[s.idx] = true
		used += len(segments[s.idx]) + 2
	}

	var parts []string
	for i, seg := range segments {
		if selected[i] {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 && len(segments) > 0 {
		// Budget smaller than every segment; take a prefix of the best one.
		best := scored[0].idx
		seg := segments[best]
		if len(seg) > budget {
			seg = seg[:budget]
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt renders the single user message for a schema and excerpt set.
func buildPrompt(schema model.Schema, ticker, excerpt string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Extract the following values for %s from the 10-K excerpts below.\n\nFields:\n", ticker)
	for _, f := range schema.Fields {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Name, f.Description)
	}

	sb.WriteString("\nRespond with only a JSON object of the form:\n{\n")
	fmt.Fprintf(&sb, "  %q: %q,\n", "company_ticker", ticker)
	sb.WriteString("  \"fiscal_year\": <year or null>")
	for _, f := range schema.Fields {
		fmt.Fprintf(&sb, ",\n  %q: <value or null>", f.Name)
	}
	sb.WriteString("\n}\n\nExcerpts:\n")
	sb.WriteString(excerpt)
	return sb.String()
}

// parseResponse repairs and decodes the model output into a raw field map.
func parseResponse(text string) (map[string]any, error) {
	repaired, err := jsonrepair.RepairJSON(text)
	if err != nil {
		return nil, eris.Wrap(err, "repair JSON")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return nil, eris.Wrap(err, "decode JSON")
	}
	return raw, nil
}
