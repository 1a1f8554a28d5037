// Package config provides layered configuration for the review
// engine: a YAML document merged over built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultChunkSize         = 100000 // bytes per model request
	DefaultMaxFilesPerReview = 50
	DefaultMaxTokens         = 8192
	DefaultAnchorWindow      = 5
	DefaultModel             = "anthropic:claude-3-7-sonnet-20250219"
)

// Candidate config file names probed when no --config path is given.
var defaultPaths = []string{".scrutiny.yml", ".scrutiny.yaml"}

// SeverityGates controls which severities may ever be posted.
type SeverityGates struct {
	Critical   bool `yaml:"critical"`
	Warning    bool `yaml:"warning"`
	Suggestion bool `yaml:"suggestion"`
	Nitpick    bool `yaml:"nitpick"`
}

// ThresholdConfig filters the aggregate by minimum severity.
type ThresholdConfig struct {
	Enabled              bool   `yaml:"enabled"`
	MinSeverityToComment string `yaml:"minSeverityToComment"`
	SkipCleanPRs         bool   `yaml:"skipCleanPRs"`
}

// Config is the resolved configuration for one pipeline run.
type Config struct {
	Enabled           bool            `yaml:"enabled"`
	Model             string          `yaml:"model"`
	MaxTokens         int             `yaml:"maxTokens"`
	Temperature       float64         `yaml:"temperature"`
	ChunkSize         int             `yaml:"chunkSize"`
	MaxFilesPerReview int             `yaml:"maxFilesPerReview"`
	AnchorWindow      int             `yaml:"anchorWindow"`
	IgnorePatterns    []string        `yaml:"ignorePatterns"`
	Severity          SeverityGates   `yaml:"severity"`
	SeverityThreshold ThresholdConfig `yaml:"severityThreshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Enabled:           true,
		Model:             DefaultModel,
		MaxTokens:         DefaultMaxTokens,
		Temperature:       0.2,
		ChunkSize:         DefaultChunkSize,
		MaxFilesPerReview: DefaultMaxFilesPerReview,
		AnchorWindow:      DefaultAnchorWindow,
		IgnorePatterns:    []string{"vendor/**", "**/*.pb.go", "**/*.gen.go", "**/go.sum"},
		Severity: SeverityGates{
			Critical:   true,
			Warning:    true,
			Suggestion: true,
			Nitpick:    false,
		},
		SeverityThreshold: ThresholdConfig{
			Enabled:              false,
			MinSeverityToComment: "suggestion",
			SkipCleanPRs:         false,
		},
	}
}

// Load resolves configuration from path merged over the defaults.
// An empty path probes the default file names; a missing file is not
// an error and yields the defaults unchanged.
func Load(path string) (Config, error) {
	paths := defaultPaths
	if path != "" {
		paths = []string{path}
	}

	var data []byte
	var err error
	found := false
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			found = true
			break
		}
	}
	if !found {
		if path != "" {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return Default(), nil
	}

	return Merge(data)
}

// Merge applies a YAML override document over the defaults. Nested
// maps merge key by key; arrays in the override replace the default
// arrays wholesale; null or absent values fall back to the defaults.
func Merge(override []byte) (Config, error) {
	defaults, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}

	var over map[string]interface{}
	if err := yaml.Unmarshal(override, &over); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	merged := deepMerge(defaults, over)

	out, err := yaml.Marshal(merged)
	if err != nil {
		return Config{}, fmt.Errorf("failed to re-encode merged config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode merged config: %w", err)
	}
	return cfg, nil
}

func toMap(cfg Config) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode defaults: %w", err)
	}
	return m, nil
}

// deepMerge merges src into dst. Maps recurse; every other value,
// arrays included, replaces the destination wholesale. Nil values in
// src are ignored so the default shows through.
func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	for key, val := range src {
		if val == nil {
			continue
		}
		srcMap, srcIsMap := val.(map[string]interface{})
		dstMap, dstIsMap := dst[key].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[key] = deepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = val
	}
	return dst
}
