package gate

import (
	"path/filepath"
	"testing"
)

func TestConfineTargetAllowsRelativePaths(t *testing.T) {
	workspace := t.TempDir()
	for _, target := range []string{"threa", "test", ".", "src/pkg", "./test/unit"} {
		if err := ConfineTarget(workspace, target); err != nil {
			t.Fatalf("expected %q to be allowed: %v", target, err)
		}
	}
}

func TestConfineTargetRejectsBadPaths(t *testing.T) {
	workspace := t.TempDir()

	if err := ConfineTarget(workspace, "/etc/passwd"); err == nil {
		t.Fatalf("expected absolute path to be denied")
	}
	if err := ConfineTarget(workspace, "../secrets"); err == nil {
		t.Fatalf("expected traversal path to be denied")
	}
	if err := ConfineTarget(workspace, filepath.Join("pkg", "..", "..", "x")); err == nil {
		t.Fatalf("expected nested traversal to be denied")
	}
	if err := ConfineTarget(workspace, ""); err == nil {
		t.Fatalf("expected empty target to be denied")
	}
}

func TestConfineTargetRequiresWorkspace(t *testing.T) {
	if err := ConfineTarget("", "threa"); err == nil {
		t.Fatalf("expected missing workspace to be denied")
	}
}
