// Package logging provides the structured logger used across checkgate.
package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Logger defines the structured logging interface.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)

	// With returns a Logger that adds fields to every entry.
	With(fields map[string]any) Logger
}

// sink serializes writes from a logger and all loggers derived from it.
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) write(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(data) //nolint:errcheck
}

// JSONLogger writes one JSON object per entry to an io.Writer.
type JSONLogger struct {
	out     *sink
	verbose bool
	now     func() time.Time
	bound   map[string]any
}

// NewJSONLogger creates a JSONLogger writing to w. Debug entries are only
// emitted when verbose is true.
func NewJSONLogger(w io.Writer, verbose bool) *JSONLogger {
	return &JSONLogger{out: &sink{w: w}, verbose: verbose, now: time.Now}
}

func (l *JSONLogger) Info(msg string, fields map[string]any)  { l.log("info", msg, fields) }
func (l *JSONLogger) Warn(msg string, fields map[string]any)  { l.log("warn", msg, fields) }
func (l *JSONLogger) Error(msg string, fields map[string]any) { l.log("error", msg, fields) }

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	if !l.verbose {
		return
	}
	l.log("debug", msg, fields)
}

// With returns a child logger sharing l's writer. Fields passed to a log
// call override bound fields of the same name.
func (l *JSONLogger) With(fields map[string]any) Logger {
	bound := make(map[string]any, len(l.bound)+len(fields))
	for k, v := range l.bound {
		bound[k] = v
	}
	for k, v := range fields {
		bound[k] = v
	}
	return &JSONLogger{out: l.out, verbose: l.verbose, now: l.now, bound: bound}
}

// log writes time, level and msg last so no field can replace them.
func (l *JSONLogger) log(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(l.bound)+len(fields)+3)
	for k, v := range l.bound {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["time"] = l.now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.out.write(append(data, '\n'))
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Warn(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}
func (nopLogger) Debug(string, map[string]any) {}

func (n nopLogger) With(map[string]any) Logger { return n }

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}
