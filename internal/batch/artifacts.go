package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tenk-extract/internal/evaluate"
	"github.com/sells-group/tenk-extract/internal/model"
)

// Manifest records the effective configuration of a run next to its results,
// so an artifact can be interpreted without the shell history that produced it.
type Manifest struct {
	RunID         string    `yaml:"run_id,omitempty"`
	Schema        string    `yaml:"schema"`
	Mode          string    `yaml:"mode"`
	InputDir      string    `yaml:"input_dir"`
	GroundTruth   string    `yaml:"ground_truth,omitempty"`
	Output        string    `yaml:"output"`
	Documents     int       `yaml:"documents"`
	Backend       string    `yaml:"backend"`
	Model         string    `yaml:"model"`
	Concurrency   int       `yaml:"concurrency"`
	ChunkSize     int       `yaml:"chunk_size"`
	ContextBudget int       `yaml:"context_budget"`
	Tolerance     float64   `yaml:"tolerance,omitempty"`
	StartedAt     time.Time `yaml:"started_at"`
	FinishedAt    time.Time `yaml:"finished_at"`
}

// WriteResults writes the ticker-keyed result set as indented JSON.
func WriteResults(path string, results model.ResultSet) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "batch: marshal results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "batch: write results %s", path)
	}
	return nil
}

// ReadResults loads a result set previously written by WriteResults.
func ReadResults(path string) (model.ResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read results %s", path)
	}
	var results model.ResultSet
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, eris.Wrapf(err, "batch: parse results %s", path)
	}
	return results, nil
}

// WriteEvaluations writes per-document evaluations as indented JSON.
func WriteEvaluations(path string, evals map[string]map[string]evaluate.DocumentEvaluation) error {
	data, err := json.MarshalIndent(evals, "", "  ")
	if err != nil {
		return eris.Wrap(err, "batch: marshal evaluations")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "batch: write evaluations %s", path)
	}
	return nil
}

// ReadEvaluations loads evaluations previously written by WriteEvaluations.
func ReadEvaluations(path string) (map[string]map[string]evaluate.DocumentEvaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read evaluations %s", path)
	}
	var evals map[string]map[string]evaluate.DocumentEvaluation
	if err := json.Unmarshal(data, &evals); err != nil {
		return nil, eris.Wrapf(err, "batch: parse evaluations %s", path)
	}
	return evals, nil
}

// WriteManifest writes the run manifest as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "batch: marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "batch: write manifest %s", path)
	}
	return nil
}

// EvaluationPath derives the evaluation artifact name from the results path:
// results.json becomes evaluation_results.json in the same directory.
func EvaluationPath(resultsPath string) string {
	dir := filepath.Dir(resultsPath)
	stem := strings.TrimSuffix(filepath.Base(resultsPath), filepath.Ext(resultsPath))
	return filepath.Join(dir, "evaluation_"+stem+".json")
}

// ManifestPath derives the manifest name from the results path.
func ManifestPath(resultsPath string) string {
	dir := filepath.Dir(resultsPath)
	stem := strings.TrimSuffix(filepath.Base(resultsPath), filepath.Ext(resultsPath))
	return filepath.Join(dir, stem+"_manifest.yaml")
}
