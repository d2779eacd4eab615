package model

import "time"

// RunStatus represents the current state of a batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents a single batch run over an input directory.
type Run struct {
	ID        string     `json:"id"`
	Schema    string     `json:"schema"`
	Mode      string     `json:"mode"`
	InputDir  string     `json:"input_dir"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Documents  int     `json:"documents"`
	Succeeded  int     `json:"succeeded"`
	Failed     int     `json:"failed"`
	OutputPath string  `json:"output_path,omitempty"`
	Accuracy   float64 `json:"accuracy,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// StrategyOutcome is one strategy's result for one document: extracted
// metrics on success, an inline error message otherwise. A failed document
// never aborts the batch.
type StrategyOutcome struct {
	Metrics *FinancialMetrics `json:"metrics,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ResultSet is the batch artifact shape: ticker to strategy to outcome.
// Keying by ticker makes the artifact deterministic under concurrency.
type ResultSet map[string]map[string]StrategyOutcome
