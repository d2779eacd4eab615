package batch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tenk-extract/internal/evaluate"
	"github.com/sells-group/tenk-extract/internal/extract"
	"github.com/sells-group/tenk-extract/internal/model"
)

// Extractor is the per-document extraction dependency. *extract.Extractor
// satisfies it; tests substitute fakes.
type Extractor interface {
	Extract(ctx context.Context, doc extract.Document, schema model.Schema, strategy extract.Strategy) (model.FinancialMetrics, error)
}

// Runner processes documents concurrently and joins outcomes by ticker, so
// the artifact shape is independent of completion order.
type Runner struct {
	extractor   Extractor
	schema      model.Schema
	strategies  []extract.Strategy
	concurrency int
	docTimeout  time.Duration
}

// NewRunner creates a Runner. Concurrency below 1 means sequential; a zero
// docTimeout disables the per-document deadline.
func NewRunner(ex Extractor, schema model.Schema, strategies []extract.Strategy, concurrency int, docTimeout time.Duration) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		extractor:   ex,
		schema:      schema,
		strategies:  strategies,
		concurrency: concurrency,
		docTimeout:  docTimeout,
	}
}

// Run processes every document with every strategy. Individual failures are
// recorded inline and never abort the batch.
func (r *Runner) Run(ctx context.Context, docs []extract.Document) model.ResultSet {
	results := make(model.ResultSet, len(docs))
	if len(docs) == 0 {
		zap.L().Info("no documents to process")
		return results
	}

	zap.L().Info("processing batch",
		zap.Int("documents", len(docs)),
		zap.Int("strategies", len(r.strategies)),
		zap.Int("concurrency", r.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var (
		mu                sync.Mutex
		succeeded, failed atomic.Int64
	)

	for _, doc := range docs {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("ticker", doc.Ticker),
				zap.String("file", filepath.Base(doc.Path)),
			)

			outcomes := r.processDocument(gctx, doc)

			docFailed := false
			for strategy, outcome := range outcomes {
				if outcome.Error != "" {
					docFailed = true
					log.Error("strategy failed",
						zap.String("strategy", strategy),
						zap.String("error", outcome.Error),
					)
				}
			}
			if docFailed {
				failed.Add(1)
			} else {
				succeeded.Add(1)
				log.Info("document complete")
			}

			mu.Lock()
			results[doc.Ticker] = outcomes
			mu.Unlock()
			return nil // don't abort batch on individual failure
		})
	}

	g.Wait() //nolint:errcheck

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

// processDocument runs every strategy under one shared document deadline.
func (r *Runner) processDocument(ctx context.Context, doc extract.Document) map[string]model.StrategyOutcome {
	if r.docTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.docTimeout)
		defer cancel()
	}

	outcomes := make(map[string]model.StrategyOutcome, len(r.strategies))
	for _, strategy := range r.strategies {
		metrics, err := r.extractor.Extract(ctx, doc, r.schema, strategy)
		if err != nil {
			outcomes[string(strategy)] = model.StrategyOutcome{Error: err.Error()}
			continue
		}
		outcomes[string(strategy)] = model.StrategyOutcome{Metrics: &metrics}
	}
	return outcomes
}

// Summary counts documents and how many completed every strategy cleanly.
func Summary(results model.ResultSet) (documents, succeeded, failed int) {
	for _, outcomes := range results {
		documents++
		clean := true
		for _, outcome := range outcomes {
			if outcome.Error != "" {
				clean = false
			}
		}
		if clean {
			succeeded++
		} else {
			failed++
		}
	}
	return documents, succeeded, failed
}

// EvaluateResults scores every successful outcome against ground truth.
func EvaluateResults(results model.ResultSet, ev *evaluate.Evaluator) map[string]map[string]evaluate.DocumentEvaluation {
	evals := make(map[string]map[string]evaluate.DocumentEvaluation, len(results))
	for ticker, outcomes := range results {
		for strategy, outcome := range outcomes {
			if outcome.Metrics == nil {
				continue
			}
			if evals[ticker] == nil {
				evals[ticker] = make(map[string]evaluate.DocumentEvaluation, len(outcomes))
			}
			evals[ticker][strategy] = ev.EvaluateDocument(*outcome.Metrics)
		}
	}
	return evals
}

// EvaluationsFor collects one strategy's evaluations sorted by ticker.
func EvaluationsFor(evals map[string]map[string]evaluate.DocumentEvaluation, strategy string) []evaluate.DocumentEvaluation {
	tickers := make([]string, 0, len(evals))
	for ticker, byStrategy := range evals {
		if _, ok := byStrategy[strategy]; ok {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)

	out := make([]evaluate.DocumentEvaluation, 0, len(tickers))
	for _, ticker := range tickers {
		out = append(out, evals[ticker][strategy])
	}
	return out
}

// StrategyNames returns the distinct strategy keys across all evaluations,
// sorted.
func StrategyNames(evals map[string]map[string]evaluate.DocumentEvaluation) []string {
	seen := map[string]bool{}
	for _, byStrategy := range evals {
		for strategy := range byStrategy {
			seen[strategy] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OverallAccuracy pools matches over evaluated fields across every document
// and strategy, 0.0 when nothing was evaluated.
func OverallAccuracy(evals map[string]map[string]evaluate.DocumentEvaluation) float64 {
	var matches, evaluated int
	for _, byStrategy := range evals {
		for _, eval := range byStrategy {
			matches += eval.Matches
			evaluated += eval.Evaluated
		}
	}
	if evaluated == 0 {
		return 0.0
	}
	return float64(matches) / float64(evaluated)
}
