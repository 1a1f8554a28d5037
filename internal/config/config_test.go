package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultAnchorWindow, cfg.AnchorWindow)
	assert.True(t, cfg.Severity.Critical)
	assert.False(t, cfg.Severity.Nitpick)
}

func TestMergeScalarOverride(t *testing.T) {
	cfg, err := Merge([]byte("chunkSize: 5000\nmodel: \"google:gemini-2.0-flash\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.ChunkSize)
	assert.Equal(t, "google:gemini-2.0-flash", cfg.Model)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultMaxFilesPerReview, cfg.MaxFilesPerReview)
}

func TestMergeNestedObjectsMergeKeyByKey(t *testing.T) {
	cfg, err := Merge([]byte("severityThreshold:\n  enabled: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.SeverityThreshold.Enabled)
	// Sibling keys under the same object fall back to defaults.
	assert.Equal(t, "suggestion", cfg.SeverityThreshold.MinSeverityToComment)
}

func TestMergeArraysReplaceWholesale(t *testing.T) {
	cfg, err := Merge([]byte("ignorePatterns:\n  - \"docs/**\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/**"}, cfg.IgnorePatterns)
}

func TestMergeNullFallsBackToDefault(t *testing.T) {
	cfg, err := Merge([]byte("chunkSize: null\nmodel: ~\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultModel, cfg.Model)
}

func TestMergeInvalidYAML(t *testing.T) {
	_, err := Merge([]byte("chunkSize: [unclosed"))
	assert.Error(t, err)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.yml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestLoadExplicitMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
