package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatQuotesSpecialArguments(t *testing.T) {
	got := Format([]string{"sh", "-c", "exit 1", "", "it's", "threa/core.py"})
	want := `sh -c 'exit 1' '' 'it'\''s' threa/core.py`
	if got != want {
		t.Fatalf("unexpected format:\n got %s\nwant %s", got, want)
	}
}

func TestTracerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	tracer := New(&buf, ModeNever)

	tracer.Trace([]string{"isort", "--check-only", "--diff", "threa", "test"})
	tracer.Trace([]string{"pytest"})

	want := "+ isort --check-only --diff threa test\n+ pytest\n"
	if buf.String() != want {
		t.Fatalf("unexpected trace:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestTracerAutoIsPlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ModeAuto).Trace([]string{"black", "threa"})

	if buf.String() != "+ black threa\n" {
		t.Fatalf("expected plain output for a buffer, got %q", buf.String())
	}
}

func TestTracerAlwaysColors(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ModeAlways).Trace([]string{"mypy", "threa"})

	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI escapes, got %q", out)
	}
	if !strings.Contains(out, "mypy") || !strings.Contains(out, "threa") {
		t.Fatalf("expected command text in output, got %q", out)
	}
}

func TestTracerIgnoresEmptyArgv(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ModeNever).Trace(nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "ALWAYS": ModeAlways, "never": ModeNever} {
		got, err := ParseMode(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", input, got, want)
		}
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Fatalf("expected invalid mode error")
	}
}
