// Package config holds pushbatch settings: the size thresholds that drive
// splitting, collapsing, and batch packing, plus exclude patterns and the
// merge tool name. Settings load from .pushbatch.yaml in the repository
// root when present, falling back to defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-repository settings file.
const ConfigFileName = ".pushbatch.yaml"

// DefaultMergeTool is the companion executable that reconstructs split
// files. It is copied next to each split directory when available.
const DefaultMergeTool = "git-merge-split-files"

// Config contains all tunable pushbatch settings. Sizes are in megabytes.
type Config struct {
	// ChunkSizeMB is the part size used when splitting oversized files.
	ChunkSizeMB float64 `yaml:"chunk_size_mb"`

	// LargeFileThresholdMB is the size above which an untracked file is
	// split instead of committed whole.
	LargeFileThresholdMB float64 `yaml:"large_file_threshold_mb"`

	// CollapseThresholdMB is the maximum aggregate size for a directory
	// to be planned as a single collapsed unit.
	CollapseThresholdMB float64 `yaml:"collapse_threshold_mb"`

	// BatchCeilingMB is the soft ceiling on a single batch's total size.
	BatchCeilingMB float64 `yaml:"batch_ceiling_mb"`

	// SingleShotMaxMB is the total pending size under which everything is
	// committed in one shot, bypassing batch planning.
	SingleShotMaxMB float64 `yaml:"single_shot_max_mb"`

	// Exclude is a list of doublestar glob patterns. Matching paths are
	// skipped by the large-file scan and untracked directory expansion.
	Exclude []string `yaml:"exclude,omitempty"`

	// MergeTool is the filename of the companion merge executable.
	MergeTool string `yaml:"merge_tool,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ChunkSizeMB:          50,
		LargeFileThresholdMB: 50,
		CollapseThresholdMB:  50,
		BatchCeilingMB:       100,
		SingleShotMaxMB:      100,
		MergeTool:            DefaultMergeTool,
	}
}

// Load reads settings from repoDir/.pushbatch.yaml, or returns defaults if
// the file does not exist. Fields omitted from the file keep their default
// values.
func Load(repoDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(repoDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that thresholds are positive and exclude patterns are
// well-formed.
func (c *Config) Validate() error {
	sizes := map[string]float64{
		"chunk_size_mb":           c.ChunkSizeMB,
		"large_file_threshold_mb": c.LargeFileThresholdMB,
		"collapse_threshold_mb":   c.CollapseThresholdMB,
		"batch_ceiling_mb":        c.BatchCeilingMB,
		"single_shot_max_mb":      c.SingleShotMaxMB,
	}
	for name, v := range sizes {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// Excluded reports whether path matches any exclude pattern. Paths are
// matched slash-separated, relative to the repository root.
func (c *Config) Excluded(path string) bool {
	norm := filepath.ToSlash(path)
	for _, pattern := range c.Exclude {
		if ok, err := doublestar.Match(pattern, norm); err == nil && ok {
			return true
		}
	}
	return false
}

// ChunkSizeBytes returns the chunk size in bytes for the splitter.
func (c *Config) ChunkSizeBytes() int64 {
	return int64(c.ChunkSizeMB * 1024 * 1024)
}
