// Package trace echoes each command line before it runs, in the style of a
// shell's xtrace mode.
package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Prefix starts every trace line.
const Prefix = "+ "

// Mode selects whether trace lines are colored.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

// ParseMode validates a --color flag value. Empty means auto.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(value)) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeAlways:
		return ModeAlways, nil
	case ModeNever:
		return ModeNever, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", value)
	}
}

// Tracer writes one line per traced command.
type Tracer struct {
	mu      sync.Mutex
	w       io.Writer
	colored bool
	command lipgloss.Style
	args    lipgloss.Style
}

// New creates a Tracer writing to w. In auto mode lines are colored only
// when w is a terminal.
func New(w io.Writer, mode Mode) *Tracer {
	t := &Tracer{w: w}

	switch mode {
	case ModeAlways:
		t.colored = true
	case ModeAuto:
		t.colored = isTerminal(w)
	}
	if !t.colored {
		return t
	}

	r := lipgloss.NewRenderer(w)
	if mode == ModeAlways {
		r.SetColorProfile(termenv.ANSI256)
	}
	t.command = r.NewStyle().Bold(true).Foreground(lipgloss.Color("#f97316"))
	t.args = r.NewStyle().Foreground(lipgloss.Color("#888888"))
	return t
}

// Trace echoes argv.
func (t *Tracer) Trace(argv []string) {
	if len(argv) == 0 {
		return
	}

	line := Prefix + Format(argv)
	if t.colored {
		line = t.command.Render(Prefix+quote(argv[0])) + renderRest(t.args, argv[1:])
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}

func renderRest(style lipgloss.Style, args []string) string {
	if len(args) == 0 {
		return ""
	}
	return " " + style.Render(Format(args))
}

// Format joins argv into a single line, quoting arguments the way a shell
// would need them to be typed back in.
func Format(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if strings.IndexFunc(arg, needsQuoting) < 0 {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("_-./=:,+@%", r)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
