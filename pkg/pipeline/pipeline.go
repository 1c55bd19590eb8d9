package pipeline

import (
	"fmt"
	"os"

	"github.com/zen-systems/checkgate/pkg/gate"
)

const (
	// DefaultSource is the source package checked by the default pipeline.
	DefaultSource = "threa"
	// DefaultTests is the test directory checked by the default pipeline.
	DefaultTests = "test"
)

// Pipeline is an ordered sequence of stages run fail-fast.
type Pipeline struct {
	Name    string  `yaml:"name"`
	Workdir string  `yaml:"workdir,omitempty"`
	Stages  []Stage `yaml:"stages"`
}

// Default returns the five-stage quality gate over a source package and a
// test directory: import order, formatting, lint with autofix, type check,
// tests.
func Default(source, tests string) *Pipeline {
	return &Pipeline{
		Name: "quality-gate",
		Stages: []Stage{
			NewStage("imports", "isort", []string{"--check-only", "--diff"}, source, tests),
			NewStage("format", "black", nil, source),
			NewStage("lint", "ruff", []string{"check", "--fix"}, source),
			NewStage("typecheck", "mypy", nil, source),
			// pytest discovers tests on its own
			NewStage("test", "pytest", nil),
		},
	}
}

// Validate checks the pipeline configuration for errors.
func (p *Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline must define at least one stage")
	}

	workspace, err := p.workspace()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(p.Stages))
	for i, stage := range p.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage %d: name is required", i+1)
		}
		if stage.Command == "" {
			return fmt.Errorf("stage %s: command is required", stage.Name)
		}
		if _, ok := seen[stage.Name]; ok {
			return fmt.Errorf("duplicate stage name: %s", stage.Name)
		}
		seen[stage.Name] = struct{}{}

		if err := confineTargets(workspace, stage.Name, stage.Targets); err != nil {
			return err
		}
	}

	return nil
}

// Plan expands every stage's command line before anything runs, so an
// unbound variable or a target that expands outside the working directory
// fails the pipeline without side effects.
func (p *Pipeline) Plan(lookup func(string) (string, bool)) ([][]string, error) {
	workspace, err := p.workspace()
	if err != nil {
		return nil, err
	}

	plan := make([][]string, 0, len(p.Stages))
	for _, stage := range p.Stages {
		argv, err := stage.Argv(lookup)
		if err != nil {
			return nil, err
		}
		// Targets are always the tail of argv.
		if err := confineTargets(workspace, stage.Name, argv[len(argv)-len(stage.Targets):]); err != nil {
			return nil, err
		}
		plan = append(plan, argv)
	}
	return plan, nil
}

// workspace returns the directory stages run in: Workdir, which must be an
// existing directory, or the current directory.
func (p *Pipeline) workspace() (string, error) {
	if p.Workdir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		return cwd, nil
	}

	info, err := os.Stat(p.Workdir)
	if err != nil {
		return "", fmt.Errorf("workdir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workdir %s is not a directory", p.Workdir)
	}
	return p.Workdir, nil
}

func confineTargets(workspace, stage string, targets []string) error {
	for _, target := range targets {
		if err := gate.ConfineTarget(workspace, target); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}
	return nil
}
