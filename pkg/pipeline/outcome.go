package pipeline

import (
	"fmt"
	"time"
)

// StageFailure reports the first stage that exited unsuccessfully.
// Code is the stage's exit status, unchanged.
type StageFailure struct {
	Index int
	Stage string
	Code  int
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed with exit status %d", f.Stage, f.Code)
}

// ExitCode returns the failing stage's exit status.
func (f *StageFailure) ExitCode() int {
	return f.Code
}

// StageResult captures one executed stage. Stages skipped after a failure
// have no result.
type StageResult struct {
	Index    int
	Name     string
	Argv     []string
	ExitCode int
	Duration time.Duration
}

// Succeeded reports whether the stage exited with status zero.
func (r StageResult) Succeeded() bool {
	return r.ExitCode == 0
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Pipeline  string
	Workdir   string
	StartedAt time.Time
	Duration  time.Duration
	Stages    []StageResult
	Failure   *StageFailure
}

// Succeeded reports whether every stage passed.
func (o *Outcome) Succeeded() bool {
	return o.Failure == nil
}

// ExitCode is the first failing stage's status, or 0.
func (o *Outcome) ExitCode() int {
	if o.Failure != nil {
		return o.Failure.Code
	}
	return 0
}

// Err returns the StageFailure as an error, or nil on success.
func (o *Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}
