// Package resolve implements the on-disk resource root resolution order of
// spec.md §6.2, adapted from the original Node project's package.json
// anchor search to this module's go.mod anchor.
package resolve

import (
	"os"
	"path/filepath"
)

// RootFor resolves the resource root directory for one registry kind
// (e.g. "prompts", "gates", "styles", "methodologies") in the order:
//  1. MCP_<TYPE>_PATH environment variable (e.g. MCP_PROMPTS_PATH)
//  2. walking up from the working directory looking for a go.mod anchor,
//     then resources/<kind> beneath it
//  3. walking up from the executable's directory
//  4. a known relative fallback, "./resources/<kind>"
func RootFor(envVar, kind string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}

	if wd, err := os.Getwd(); err == nil {
		if root := findAnchored(wd, kind); root != "" {
			return root
		}
	}

	if exe, err := os.Executable(); err == nil {
		if root := findAnchored(filepath.Dir(exe), kind); root != "" {
			return root
		}
	}

	return filepath.Join("resources", kind)
}

// findAnchored walks up from start looking for a go.mod file; if found, it
// returns <anchorDir>/resources/<kind> provided that directory exists.
func findAnchored(start, kind string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			candidate := filepath.Join(dir, "resources", kind)
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
