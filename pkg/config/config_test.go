package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zen-systems/checkgate/pkg/pipeline"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadWithoutPathUsesDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source != "threa" || cfg.Tests != "test" {
		t.Fatalf("unexpected default targets: %s %s", cfg.Source, cfg.Tests)
	}
	if len(cfg.Pipeline.Stages) != 5 {
		t.Fatalf("expected five default stages, got %d", len(cfg.Pipeline.Stages))
	}
	if cfg.EvidenceDir != "" || cfg.MetricsTextfile != "" {
		t.Fatalf("expected no outputs by default")
	}
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `name: go-gate
source: ./pkg
tests: ./tests
evidence_dir: .checkgate/runs
stages:
  - name: vet
    command: go
    args: ["vet"]
    targets: ["{source}/..."]
  - name: test
    command: go
    args: ["test", "{tests}/..."]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Path != path || cfg.Pipeline.Name != "go-gate" || cfg.EvidenceDir != ".checkgate/runs" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	want := []pipeline.Stage{
		{Name: "vet", Command: "go", Args: []string{"vet"}, Targets: []string{"./pkg/..."}},
		{Name: "test", Command: "go", Args: []string{"test", "./tests/..."}},
	}
	if !reflect.DeepEqual(cfg.Pipeline.Stages, want) {
		t.Fatalf("unexpected stages:\n got %+v\nwant %+v", cfg.Pipeline.Stages, want)
	}
}

func TestManifestWithoutStagesKeepsDefaultTable(t *testing.T) {
	path := writeManifest(t, "source: lib\ntests: checks\nmetrics_textfile: gate.prom\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := cfg.Pipeline.Stages[0].Targets
	if !reflect.DeepEqual(got, []string{"lib", "checks"}) {
		t.Fatalf("expected default table over lib and checks, got %v", got)
	}
	if cfg.MetricsTextfile != "gate.prom" {
		t.Fatalf("expected metrics textfile, got %q", cfg.MetricsTextfile)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	path := writeManifest(t, `stages:
  - name: lint
    cmd: ruff
`)

	_, err := Load(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Path != path {
		t.Fatalf("expected path in error, got %q", verr.Path)
	}
	if len(verr.Problems) < 2 {
		t.Fatalf("expected missing command and unknown field, got %v", verr.Problems)
	}
}

func TestParseRejectsEmptyStages(t *testing.T) {
	if _, err := Parse([]byte("stages: []\n")); err == nil {
		t.Fatalf("expected empty stage list to be rejected")
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected empty document to be rejected")
	}
}

func TestLoadRejectsDuplicateStages(t *testing.T) {
	path := writeManifest(t, `stages:
  - name: lint
    command: ruff
  - name: lint
    command: mypy
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate stage name") {
		t.Fatalf("expected duplicate stage error, got %v", err)
	}
}

func TestLoadRejectsEscapingTargets(t *testing.T) {
	path := writeManifest(t, `stages:
  - name: fmt
    command: black
    targets: ["../elsewhere"]
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "path traversal") {
		t.Fatalf("expected traversal error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
