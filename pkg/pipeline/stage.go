package pipeline

import (
	"fmt"
	"os"
	"strings"
)

// Stage is one external verification or transformation step.
type Stage struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Targets []string `yaml:"targets,omitempty"`
}

// NewStage builds a stage, copying args and targets so later edits to the
// caller's slices cannot reach the pipeline.
func NewStage(name, command string, args []string, targets ...string) Stage {
	return Stage{
		Name:    name,
		Command: command,
		Args:    append([]string(nil), args...),
		Targets: append([]string(nil), targets...),
	}
}

// Argv returns the full command line: command, args, then targets.
// $VAR and ${VAR} references are expanded through lookup and $$ yields a
// literal dollar sign. A reference to an unset variable is an error.
func (s Stage) Argv(lookup func(string) (string, bool)) ([]string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	mapping := func(name string) string {
		if name == "$" {
			return "$"
		}
		value, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
		}
		return value
	}

	argv := make([]string, 0, 1+len(s.Args)+len(s.Targets))
	argv = append(argv, os.Expand(s.Command, mapping))
	for _, arg := range s.Args {
		argv = append(argv, os.Expand(arg, mapping))
	}
	for _, target := range s.Targets {
		argv = append(argv, os.Expand(target, mapping))
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("stage %s: unbound variable: %s", s.Name, strings.Join(missing, ", "))
	}
	return argv, nil
}
