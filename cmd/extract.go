package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tenk-extract/internal/batch"
	"github.com/sells-group/tenk-extract/internal/evaluate"
	"github.com/sells-group/tenk-extract/internal/extract"
	"github.com/sells-group/tenk-extract/internal/groundtruth"
	"github.com/sells-group/tenk-extract/internal/model"
	"github.com/sells-group/tenk-extract/internal/ocr"
	"github.com/sells-group/tenk-extract/internal/report"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run extraction strategies over a directory of filings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode, _ := cmd.Flags().GetString("mode")
		inputDir, _ := cmd.Flags().GetString("input-dir")
		truthPath, _ := cmd.Flags().GetString("ground-truth")
		schemaName, _ := cmd.Flags().GetString("schema")
		output, _ := cmd.Flags().GetString("output")
		doEvaluate, _ := cmd.Flags().GetBool("evaluate")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		limit, _ := cmd.Flags().GetInt("limit")

		strategies, err := extract.Strategies(mode)
		if err != nil {
			return err
		}
		schema, err := model.SchemaByName(schemaName)
		if err != nil {
			return err
		}

		var truth *groundtruth.Table
		if truthPath != "" {
			truth, err = groundtruth.Load(truthPath, schema)
			if err != nil {
				return err
			}
		}
		if doEvaluate && truth == nil {
			return eris.New("--evaluate requires --ground-truth")
		}

		client, modelName, err := initLLM()
		if err != nil {
			return err
		}
		pdf, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			return err
		}

		docs, err := batch.DiscoverDocuments(inputDir, truth, limit)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return eris.Errorf("no documents found in %s", inputDir)
		}

		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}

		extractor := extract.New(client, pdf, extract.Options{
			ChunkSize:     cfg.Extract.ChunkSize,
			ContextBudget: cfg.Extract.ContextBudget,
			MaxTokens:     cfg.Anthropic.MaxTokens,
			Timeout:       cfg.LLM.Timeout(),
		})
		runner := batch.NewRunner(extractor, schema, strategies, concurrency, cfg.Batch.DocTimeout())

		// Run recording is best-effort: a broken store never blocks extraction.
		var run *model.Run
		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("run store unavailable", zap.Error(err))
		} else {
			defer st.Close() //nolint:errcheck
			run, err = st.CreateRun(ctx, schema.Name, mode, inputDir)
			if err != nil {
				zap.L().Warn("failed to record run", zap.Error(err))
				run = nil
			}
		}

		started := time.Now().UTC()
		results := runner.Run(ctx, docs)
		documents, succeeded, failed := batch.Summary(results)

		if err := batch.WriteResults(output, results); err != nil {
			return err
		}

		rep := report.New(os.Stdout)
		rep.Results(results, schema)

		runResult := &model.RunResult{
			Documents:  documents,
			Succeeded:  succeeded,
			Failed:     failed,
			OutputPath: output,
		}

		if doEvaluate {
			ev := evaluate.New(truth, cfg.Evaluate.Tolerance)
			evals := batch.EvaluateResults(results, ev)
			if err := batch.WriteEvaluations(batch.EvaluationPath(output), evals); err != nil {
				return err
			}
			rep.Evaluations(evals)
			for _, strategy := range strategies {
				perDoc := batch.EvaluationsFor(evals, string(strategy))
				rep.Summary(string(strategy), evaluate.Summarize(perDoc))
			}
			runResult.Accuracy = batch.OverallAccuracy(evals)
		}

		manifest := batch.Manifest{
			Schema:        schema.Name,
			Mode:          mode,
			InputDir:      inputDir,
			GroundTruth:   truthPath,
			Output:        output,
			Documents:     documents,
			Backend:       cfg.LLM.Backend,
			Model:         modelName,
			Concurrency:   concurrency,
			ChunkSize:     cfg.Extract.ChunkSize,
			ContextBudget: cfg.Extract.ContextBudget,
			StartedAt:     started,
			FinishedAt:    time.Now().UTC(),
		}
		if doEvaluate {
			manifest.Tolerance = cfg.Evaluate.Tolerance
		}
		if run != nil {
			manifest.RunID = run.ID
		}
		if err := batch.WriteManifest(batch.ManifestPath(output), manifest); err != nil {
			return err
		}

		if run != nil {
			if err := st.UpdateRunResult(ctx, run.ID, runResult); err != nil {
				zap.L().Warn("failed to record run result", zap.Error(err))
			}
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().String("mode", "both", "strategy mode: baseline, refined, or both")
	extractCmd.Flags().String("input-dir", ".", "directory of {TICKER}_*.pdf|htm|html filings")
	extractCmd.Flags().String("ground-truth", "", "ground truth CSV or XLSX file")
	extractCmd.Flags().String("schema", "tenk", "metric schema: tenk or fundamentals")
	extractCmd.Flags().String("output", "results.json", "results artifact path")
	extractCmd.Flags().Bool("evaluate", false, "score results against ground truth")
	extractCmd.Flags().Int("concurrency", 0, "concurrent documents (default from config)")
	extractCmd.Flags().Int("limit", 0, "max documents to process (0 = all)")
	rootCmd.AddCommand(extractCmd)
}
