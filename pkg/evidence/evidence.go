// Package evidence writes an on-disk record of a pipeline run: run.json plus
// one stages/NN-<name>.json per executed stage.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/checkgate/pkg/pipeline"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID           string            `json:"id"`
	Pipeline     string            `json:"pipeline"`
	Timestamp    time.Time         `json:"timestamp"`
	Workdir      string            `json:"workdir"`
	ConfigFile   string            `json:"config_file,omitempty"`
	Succeeded    bool              `json:"succeeded"`
	ExitCode     int               `json:"exit_code"`
	FailedStage  string            `json:"failed_stage,omitempty"`
	StagesTotal  int               `json:"stages_total"`
	StagesRun    int               `json:"stages_run"`
	ToolVersions map[string]string `json:"tool_versions,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
}

// StageRecord captures evidence for a single executed stage.
type StageRecord struct {
	Index      int      `json:"index"`
	Name       string   `json:"name"`
	Command    []string `json:"command"`
	ExitCode   int      `json:"exit_code"`
	Passed     bool     `json:"passed"`
	DurationMs int64    `json:"duration_ms"`
}

// Writer writes evidence bundles to disk.
type Writer struct {
	baseDir string
	runDir  string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewWriter creates a new evidence writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0700); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}

	return &Writer{baseDir: baseDir, runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage record to stages/NN-<stage>.json. The index
// prefix keeps directory listings in execution order.
func (w *Writer) WriteStage(record StageRecord) error {
	if record.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%02d-%s.json", record.Index+1, record.Name))
	return writeJSON(path, record)
}

// Record writes the full bundle for outcome under baseDir and returns the
// run directory.
func Record(baseDir, configFile string, p *pipeline.Pipeline, outcome *pipeline.Outcome) (string, error) {
	writer, err := NewWriter(baseDir, NewRunID())
	if err != nil {
		return "", err
	}

	for _, stage := range outcome.Stages {
		if err := writer.WriteStage(StageRecord{
			Index:      stage.Index,
			Name:       stage.Name,
			Command:    stage.Argv,
			ExitCode:   stage.ExitCode,
			Passed:     stage.Succeeded(),
			DurationMs: stage.Duration.Milliseconds(),
		}); err != nil {
			return "", err
		}
	}

	run := RunRecord{
		ID:           filepath.Base(writer.RunDir()),
		Pipeline:     outcome.Pipeline,
		Timestamp:    outcome.StartedAt,
		Workdir:      outcome.Workdir,
		ConfigFile:   configFile,
		Succeeded:    outcome.Succeeded(),
		ExitCode:     outcome.ExitCode(),
		StagesTotal:  len(p.Stages),
		StagesRun:    len(outcome.Stages),
		ToolVersions: map[string]string{"go": runtime.Version()},
		DurationMs:   outcome.Duration.Milliseconds(),
	}
	if outcome.Failure != nil {
		run.FailedStage = outcome.Failure.Stage
	}
	if run.Workdir == "" {
		if cwd, err := os.Getwd(); err == nil {
			run.Workdir = cwd
		}
	}
	if err := writer.WriteRun(run); err != nil {
		return "", err
	}
	return writer.RunDir(), nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
