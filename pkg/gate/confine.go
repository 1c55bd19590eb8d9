package gate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConfineTarget validates that a stage target is a relative path that
// resolves inside workspace. "." names the workspace itself and is allowed.
func ConfineTarget(workspace, target string) error {
	if reason := confinementViolation(workspace, target); reason != "" {
		return fmt.Errorf("target %q rejected: %s", target, reason)
	}
	return nil
}

func confinementViolation(workspace, target string) string {
	switch {
	case workspace == "":
		return "workspace root not set"
	case target == "":
		return "empty path"
	case filepath.IsAbs(target):
		return "absolute paths are not allowed"
	}

	clean := filepath.Clean(target)
	for _, seg := range strings.Split(clean, string(filepath.Separator)) {
		if seg == ".." {
			return "path traversal detected"
		}
	}

	root, err := filepath.Abs(workspace)
	if err != nil {
		return "invalid workspace"
	}
	candidate := filepath.Join(root, clean)
	if candidate != root && !strings.HasPrefix(candidate, root+string(filepath.Separator)) {
		return "path escapes workspace"
	}
	return ""
}
