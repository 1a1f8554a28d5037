package review

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Static skip rules for files that are never worth a model's time:
// lock files, vendored trees, generated code and binary-ish assets.
// Configured ignorePatterns apply on top of these.
var (
	skipFilenames = map[string]bool{
		"go.mod":            true,
		"go.sum":            true,
		"package-lock.json": true,
		"yarn.lock":         true,
		"pnpm-lock.yaml":    true,
		"Cargo.lock":        true,
		"Gemfile.lock":      true,
		"poetry.lock":       true,
	}

	skipPathFragments = []string{
		"vendor/",
		"node_modules/",
		"third_party/",
		"dist/",
		".min.",
	}

	skipExtensions = []string{
		".pb.go", ".gen.go",
		".svg", ".png", ".jpg", ".jpeg", ".gif", ".ico",
		".woff", ".woff2", ".ttf", ".eot",
		".map", ".lock",
	}
)

func shouldSkipFile(path string) bool {
	if skipFilenames[filepath.Base(path)] {
		return true
	}
	for _, fragment := range skipPathFragments {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// matchesIgnorePattern checks path against the configured globs.
// Invalid patterns are skipped rather than failing the run.
func matchesIgnorePattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, path)
		if err == nil && ok {
			return true
		}
	}
	return false
}
