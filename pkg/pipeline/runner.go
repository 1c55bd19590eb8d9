package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zen-systems/checkgate/pkg/gate"
	"github.com/zen-systems/checkgate/pkg/logging"
)

// Tracer echoes a command line before it runs.
type Tracer interface {
	Trace(argv []string)
}

// RunOptions configures pipeline execution. Zero values inherit the
// process's streams and environment.
type RunOptions struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Tracer    Tracer
	Logger    logging.Logger
	LookupEnv func(string) (string, bool)
}

func (o RunOptions) withDefaults() RunOptions {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	return o
}

// Run executes the stages in order and stops at the first one that fails.
// A failing stage is reported through Outcome.Failure, not the error; the
// error is reserved for problems that prevent stages from running at all.
func Run(ctx context.Context, p *Pipeline, opts RunOptions) (*Outcome, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	plan, err := p.Plan(opts.LookupEnv)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Pipeline:  p.Name,
		Workdir:   p.Workdir,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		outcome.Duration = time.Since(outcome.StartedAt)
	}()

	streams := gate.Streams{Stdin: opts.Stdin, Stdout: opts.Stdout, Stderr: opts.Stderr}

	for i, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return outcome, fmt.Errorf("interrupted before stage %s: %w", stage.Name, err)
		}

		argv := plan[i]
		if opts.Tracer != nil {
			opts.Tracer.Trace(argv)
		}
		log := opts.Logger.With(map[string]any{"stage": stage.Name, "index": i})
		log.Debug("stage started", map[string]any{"argv": argv})

		var g gate.Gate
		g, err = gate.NewCommandGate(stage.Name, argv, p.Workdir, streams)
		if err != nil {
			return outcome, err
		}
		result, err := g.Evaluate(ctx)
		if err != nil {
			return outcome, fmt.Errorf("stage %s: %w", g.Name(), err)
		}

		stageResult := StageResult{
			Index:    i,
			Name:     stage.Name,
			Argv:     argv,
			ExitCode: result.ExitCode,
			Duration: result.Diagnostics.Duration,
		}
		outcome.Stages = append(outcome.Stages, stageResult)

		log.Debug("stage finished", map[string]any{
			"exit_code":   result.ExitCode,
			"duration_ms": stageResult.Duration.Milliseconds(),
		})

		if !result.Passed {
			outcome.Failure = &StageFailure{Index: i, Stage: stage.Name, Code: result.ExitCode}
			return outcome, nil
		}
	}

	return outcome, nil
}
