package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/tenk-extract/internal/config"
	"github.com/sells-group/tenk-extract/internal/store"
	"github.com/sells-group/tenk-extract/pkg/llm"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tenk-extract",
	Short: "Extract financial metrics from SEC 10-K filings",
	Long:  "Runs LLM extraction strategies over 10-K filings, scores the output against curated ground truth, and records batch runs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initLLM builds the configured inference backend. The returned name is the
// model identifier for manifests and cost logging.
func initLLM() (llm.Client, string, error) {
	switch cfg.LLM.Backend {
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, "", eris.New("anthropic key not configured (set TENK_ANTHROPIC_KEY)")
		}
		return llm.NewAnthropic(cfg.Anthropic.Key, cfg.Anthropic.Model), cfg.Anthropic.Model, nil
	case "ollama":
		client := llm.NewOllama(cfg.Ollama.BaseURL, cfg.Ollama.Model,
			llm.WithOllamaRateLimit(cfg.Ollama.RequestsPerSec),
			llm.WithOllamaRetries(cfg.Ollama.MaxRetries),
		)
		return client, cfg.Ollama.Model, nil
	}
	return nil, "", eris.Errorf("unknown llm backend %q", cfg.LLM.Backend)
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
