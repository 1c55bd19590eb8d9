package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Exit statuses a POSIX shell reports when a command cannot be run.
const (
	ExitNotExecutable = 126
	ExitNotFound      = 127
	exitSignalBase    = 128
)

// CommandDiagnostics captures execution details for a command gate.
// Output is never captured; it goes straight to the inherited streams.
type CommandDiagnostics struct {
	Command  []string      `json:"command"`
	Workdir  string        `json:"workdir,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Streams are the standard streams handed to the child process.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Gate = (*CommandGate)(nil)

// CommandGate executes a local command as a gate.
type CommandGate struct {
	name    string
	command []string
	workdir string
	streams Streams
}

// NewCommandGate creates a new command gate. Nil streams fall back to the
// current process's stdin, stdout and stderr.
func NewCommandGate(name string, command []string, workdir string, streams Streams) (*CommandGate, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("command gate requires a command")
	}
	if name == "" {
		name = command[0]
	}
	if streams.Stdin == nil {
		streams.Stdin = os.Stdin
	}
	if streams.Stdout == nil {
		streams.Stdout = os.Stdout
	}
	if streams.Stderr == nil {
		streams.Stderr = os.Stderr
	}
	return &CommandGate{
		name:    name,
		command: append([]string(nil), command...),
		workdir: workdir,
		streams: streams,
	}, nil
}

// Name returns the gate identifier.
func (g *CommandGate) Name() string {
	return g.name
}

// Evaluate runs the command to completion and maps its exit status onto a
// GateResult. A command that cannot be found or executed fails the gate with
// the shell's 127 or 126 status rather than returning an error.
func (g *CommandGate) Evaluate(ctx context.Context) (*GateResult, error) {
	diag := &CommandDiagnostics{
		Command: append([]string{}, g.command...),
		Workdir: g.workdir,
	}

	path := g.command[0]
	if !strings.ContainsRune(path, filepath.Separator) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return g.cannotRun(diag, err), nil
		}
		path = resolved
	}

	cmd := exec.CommandContext(ctx, path, g.command[1:]...)
	cmd.Args[0] = g.command[0]
	if g.workdir != "" {
		cmd.Dir = g.workdir
	}
	cmd.Stdin = g.streams.Stdin
	cmd.Stdout = g.streams.Stdout
	cmd.Stderr = g.streams.Stderr

	start := time.Now()
	err := cmd.Run()
	diag.Duration = time.Since(start)

	exitCode := 0
	if err != nil {
		code, ok := exitStatus(err)
		if !ok {
			if execFailed(err, path) {
				return g.cannotRun(diag, err), nil
			}
			return nil, fmt.Errorf("command gate failed to run: %w", err)
		}
		exitCode = code
	}
	diag.ExitCode = exitCode

	if exitCode != 0 {
		result := NewFailingResult(exitCode, fmt.Sprintf("command exited with status %d", exitCode))
		result.Diagnostics = diag
		return result, nil
	}

	result := NewPassingResult()
	result.Diagnostics = diag
	return result, nil
}

func (g *CommandGate) cannotRun(diag *CommandDiagnostics, err error) *GateResult {
	code := ExitNotExecutable
	reason := "permission denied"
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		code = ExitNotFound
		reason = "command not found"
	}
	fmt.Fprintf(g.streams.Stderr, "%s: %s\n", g.command[0], reason)

	diag.ExitCode = code
	result := NewFailingResult(code, reason)
	result.Diagnostics = diag
	return result
}

// execFailed reports whether err came from executing path itself, as
// opposed to setting up the process (a missing workdir, for one).
func execFailed(err error, path string) bool {
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Path != path {
		return false
	}
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist)
}

// exitStatus extracts the status a shell would report for a finished
// process: its exit code, or 128+signal when it was killed by a signal.
func exitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return exitSignalBase + int(ws.Signal()), true
	}
	return exitErr.ExitCode(), true
}
