package gate

import "context"

// Gate defines the interface for quality gates.
type Gate interface {
	// Evaluate runs the check and reports whether it passed.
	Evaluate(ctx context.Context) (*GateResult, error)

	// Name returns the gate identifier.
	Name() string
}

// GateResult contains the outcome of a gate evaluation.
type GateResult struct {
	Passed      bool                `json:"passed"`
	ExitCode    int                 `json:"exit_code"`
	Message     string              `json:"message,omitempty"`
	Diagnostics *CommandDiagnostics `json:"diagnostics,omitempty"`
}

// NewPassingResult creates a result indicating the gate passed.
func NewPassingResult() *GateResult {
	return &GateResult{Passed: true}
}

// NewFailingResult creates a result indicating the gate failed with the
// given exit status.
func NewFailingResult(exitCode int, message string) *GateResult {
	return &GateResult{
		Passed:   false,
		ExitCode: exitCode,
		Message:  message,
	}
}
