// Package config resolves the stage table a run executes: the built-in
// quality gate, or a YAML manifest given with --config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/checkgate/pkg/pipeline"
)

// Placeholders accepted in manifest args and targets.
const (
	SourcePlaceholder = "{source}"
	TestsPlaceholder  = "{tests}"
)

// Config is the resolved run configuration.
type Config struct {
	Path            string
	Source          string
	Tests           string
	EvidenceDir     string
	MetricsTextfile string
	Pipeline        *pipeline.Pipeline
}

// Manifest represents the structure of a checkgate YAML file.
type Manifest struct {
	Name            string        `yaml:"name"`
	Source          string        `yaml:"source"`
	Tests           string        `yaml:"tests"`
	Workdir         string        `yaml:"workdir"`
	EvidenceDir     string        `yaml:"evidence_dir"`
	MetricsTextfile string        `yaml:"metrics_textfile"`
	Stages          []StageConfig `yaml:"stages"`
}

// StageConfig is one manifest stage.
type StageConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Targets []string `yaml:"targets"`
}

// ValidationError lists every schema violation found in a manifest.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest %s:\n  - %s", e.Path, strings.Join(e.Problems, "\n  - "))
}

// Default returns the built-in five-stage gate. No file is read.
func Default() *Config {
	return &Config{
		Source:   pipeline.DefaultSource,
		Tests:    pipeline.DefaultTests,
		Pipeline: pipeline.Default(pipeline.DefaultSource, pipeline.DefaultTests),
	}
}

// Load reads the manifest at path, or returns Default when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	manifest, err := Parse(data)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = path
			return nil, verr
		}
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg, err := manifest.Config()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	problems, err := validateDocument(doc)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var manifest Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Config resolves the manifest into a runnable configuration. A manifest
// without stages keeps the built-in table over its source and tests paths.
func (m *Manifest) Config() (*Config, error) {
	cfg := &Config{
		Source:          m.Source,
		Tests:           m.Tests,
		EvidenceDir:     m.EvidenceDir,
		MetricsTextfile: m.MetricsTextfile,
	}
	if cfg.Source == "" {
		cfg.Source = pipeline.DefaultSource
	}
	if cfg.Tests == "" {
		cfg.Tests = pipeline.DefaultTests
	}

	if len(m.Stages) == 0 {
		cfg.Pipeline = pipeline.Default(cfg.Source, cfg.Tests)
	} else {
		replacer := strings.NewReplacer(SourcePlaceholder, cfg.Source, TestsPlaceholder, cfg.Tests)
		stages := make([]pipeline.Stage, 0, len(m.Stages))
		for _, sc := range m.Stages {
			stages = append(stages, pipeline.NewStage(
				sc.Name,
				sc.Command,
				replaceAll(replacer, sc.Args),
				replaceAll(replacer, sc.Targets)...,
			))
		}
		cfg.Pipeline = &pipeline.Pipeline{Stages: stages}
	}

	cfg.Pipeline.Workdir = m.Workdir
	if m.Name != "" {
		cfg.Pipeline.Name = m.Name
	}
	if cfg.Pipeline.Name == "" {
		cfg.Pipeline.Name = "checkgate"
	}

	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func replaceAll(r *strings.Replacer, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = r.Replace(v)
	}
	return out
}
