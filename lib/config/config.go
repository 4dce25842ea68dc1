// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of the search index
// build.
//
// Configuration comes from a single file named by the SITESEARCH_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no discovery and no fallback file. Values the
// file omits keep their [Default].
//
// Path fields support ${VAR} and ${VAR:-default} expansion after
// loading. No environment variable overrides a value directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sitesearch/lib/chunkcodec"
	"github.com/bureau-foundation/sitesearch/lib/tokenize"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "SITESEARCH_CONFIG"

// Config is the build configuration.
type Config struct {
	// Search configures which indexes are built and how.
	Search SearchConfig `yaml:"search"`

	// Build configures where artifacts are written.
	Build BuildConfig `yaml:"build"`
}

// SearchConfig configures indexing.
type SearchConfig struct {
	// Enabled turns search index generation on. When false the build
	// writes nothing.
	Enabled bool `yaml:"enabled"`

	// IndexFields lists the record fields that contribute terms:
	// title, summary, body, tags.
	// Default: [title, body, tags]
	IndexFields []string `yaml:"index_fields"`

	// ChunkSize is the chunk length in bytes for the full index.
	// Default: 65536
	ChunkSize int `yaml:"chunk_size"`

	// SimpleIndex configures the single-file fallback index.
	SimpleIndex SimpleIndexConfig `yaml:"simple_index"`

	// Full configures the chunked full-text index.
	Full FullConfig `yaml:"full"`
}

// SimpleIndexConfig configures search.json.
type SimpleIndexConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxSize is the artifact size in bytes above which the build
	// warns. Default: 512000
	MaxSize int64 `yaml:"max_size"`

	// Gzip also writes search.json.gz.
	Gzip bool `yaml:"gzip"`
}

// FullConfig configures the chunked full-text index.
type FullConfig struct {
	Enabled bool `yaml:"enabled"`

	// ExcerptLength is the number of body characters stored per
	// document for snippets. -1 stores none. Default: 600
	ExcerptLength int `yaml:"excerpt_length"`
}

// BuildConfig configures output locations.
type BuildConfig struct {
	// OutputDir is the site output directory. Default: public
	OutputDir string `yaml:"output_dir"`

	// IndexDir is the directory under OutputDir that receives the
	// manifest and chunks. Default: search
	IndexDir string `yaml:"index_dir"`
}

// Default returns the default configuration, the base a config file is
// merged into.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Enabled:     true,
			IndexFields: []string{"title", "body", "tags"},
			ChunkSize:   chunkcodec.DefaultChunkSize,
			SimpleIndex: SimpleIndexConfig{
				Enabled: true,
				MaxSize: 500 * 1024,
				Gzip:    false,
			},
			Full: FullConfig{
				Enabled:       true,
				ExcerptLength: 600,
			},
		},
		Build: BuildConfig{
			OutputDir: "public",
			IndexDir:  "search",
		},
	}
}

// Load loads the file named by SITESEARCH_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your sitesearch.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults and expands
// variables in path fields. It does not validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Build.OutputDir = expandVars(c.Build.OutputDir, vars)
	vars["OUTPUT_DIR"] = c.Build.OutputDir
	c.Build.IndexDir = expandVars(c.Build.IndexDir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Search.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("search.chunk_size must be positive, got %d", c.Search.ChunkSize))
	}
	if len(c.Search.IndexFields) == 0 {
		errs = append(errs, errors.New("search.index_fields must name at least one field"))
	} else if _, err := tokenize.ParseFields(c.Search.IndexFields); err != nil {
		errs = append(errs, fmt.Errorf("search.index_fields: %w", err))
	}
	if c.Search.SimpleIndex.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("search.simple_index.max_size must not be negative"))
	}
	if c.Search.Full.ExcerptLength < -1 {
		errs = append(errs, fmt.Errorf("search.full.excerpt_length must be -1 (no excerpts) or more, got %d", c.Search.Full.ExcerptLength))
	}

	if c.Build.OutputDir == "" {
		errs = append(errs, errors.New("build.output_dir is required"))
	}
	indexDir := c.Build.IndexDir
	switch {
	case indexDir == "":
		errs = append(errs, errors.New("build.index_dir is required"))
	case filepath.IsAbs(indexDir) || indexDir == ".." || strings.HasPrefix(filepath.Clean(indexDir), ".."+string(filepath.Separator)):
		errs = append(errs, fmt.Errorf("build.index_dir must be relative to build.output_dir, got %q", indexDir))
	}

	return errors.Join(errs...)
}

// Fields returns the configured index fields as a bitmask.
func (c *Config) Fields() (tokenize.Field, error) {
	return tokenize.ParseFields(c.Search.IndexFields)
}

// IndexPath returns the directory receiving the manifest and chunks.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Build.OutputDir, filepath.FromSlash(c.Build.IndexDir))
}
