package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/tenk-extract/internal/batch"
	"github.com/sells-group/tenk-extract/internal/evaluate"
	"github.com/sells-group/tenk-extract/internal/groundtruth"
	"github.com/sells-group/tenk-extract/internal/model"
	"github.com/sells-group/tenk-extract/internal/report"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <results.json>",
	Short: "Score a saved results artifact against ground truth",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		truthPath, _ := cmd.Flags().GetString("ground-truth")
		schemaName, _ := cmd.Flags().GetString("schema")
		output, _ := cmd.Flags().GetString("output")

		schema, err := model.SchemaByName(schemaName)
		if err != nil {
			return err
		}
		truth, err := groundtruth.Load(truthPath, schema)
		if err != nil {
			return err
		}
		results, err := batch.ReadResults(args[0])
		if err != nil {
			return err
		}

		ev := evaluate.New(truth, cfg.Evaluate.Tolerance)
		evals := batch.EvaluateResults(results, ev)

		if output == "" {
			output = batch.EvaluationPath(args[0])
		}
		if err := batch.WriteEvaluations(output, evals); err != nil {
			return err
		}

		rep := report.New(os.Stdout)
		rep.Evaluations(evals)
		for _, strategy := range batch.StrategyNames(evals) {
			rep.Summary(strategy, evaluate.Summarize(batch.EvaluationsFor(evals, strategy)))
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("ground-truth", "", "ground truth CSV or XLSX file")
	evaluateCmd.Flags().String("schema", "tenk", "metric schema: tenk or fundamentals")
	evaluateCmd.Flags().String("output", "", "evaluation artifact path (default derived from results path)")
	_ = evaluateCmd.MarkFlagRequired("ground-truth")
	rootCmd.AddCommand(evaluateCmd)
}
