// Package exitcode maps run results onto process exit statuses.
//
// A failing stage's own status always wins; the reserved codes below only
// apply when no stage decided the outcome. Setup sits outside the 1 and 2
// that linters and test runners report for their own failures.
package exitcode

import (
	"context"
	"errors"
)

const (
	Success     = 0   // every stage passed
	Setup       = 125 // configuration invalid, pipeline never started
	Interrupted = 130 // stopped by SIGINT/SIGTERM between stages
)

// Coder is implemented by errors that carry their own exit status.
type Coder interface {
	ExitCode() int
}

// FromError returns the exit status for the error a command returned.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if errors.Is(err, context.Canceled) {
		return Interrupted
	}
	return Setup
}

// Silent reports whether err already explained itself through the failing
// tool's own output, so nothing more should be printed.
func Silent(err error) bool {
	var coder Coder
	return errors.As(err, &coder)
}
