package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/tenk-extract/internal/batch"
	"github.com/sells-group/tenk-extract/internal/evaluate"
	"github.com/sells-group/tenk-extract/internal/model"
	"github.com/sells-group/tenk-extract/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <results.json>",
	Short: "Print the comparison tables from saved artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaName, _ := cmd.Flags().GetString("schema")
		evalPath, _ := cmd.Flags().GetString("evaluation")

		schema, err := model.SchemaByName(schemaName)
		if err != nil {
			return err
		}
		results, err := batch.ReadResults(args[0])
		if err != nil {
			return err
		}

		rep := report.New(os.Stdout)
		rep.Results(results, schema)

		if evalPath == "" {
			derived := batch.EvaluationPath(args[0])
			if _, err := os.Stat(derived); err == nil {
				evalPath = derived
			}
		}
		if evalPath == "" {
			return nil
		}

		evals, err := batch.ReadEvaluations(evalPath)
		if err != nil {
			return err
		}
		rep.Evaluations(evals)
		for _, strategy := range batch.StrategyNames(evals) {
			rep.Summary(strategy, evaluate.Summarize(batch.EvaluationsFor(evals, strategy)))
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().String("schema", "tenk", "metric schema: tenk or fundamentals")
	reportCmd.Flags().String("evaluation", "", "evaluation artifact path (default derived from results path)")
	rootCmd.AddCommand(reportCmd)
}
