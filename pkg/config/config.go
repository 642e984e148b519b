// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds the pipeline configuration for a cairolens run:
// input roots, discovery excludes, analysis limits, and output shape.
// Load mirrors pkg/ingestion's Config/DefaultConfig split -- an optional
// YAML file overrides individual fields of a sensible default.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how report.Result is serialized.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Config controls an end-to-end cairolens run: discovery, linking,
// analysis, and reporting.
type Config struct {
	// Roots are the input file or directory paths to scan.
	Roots []string `yaml:"roots"`

	// ExcludeGlobs are glob patterns (doublestar syntax) for files to
	// exclude from discovery, on top of the fixed test-file rule.
	ExcludeGlobs []string `yaml:"exclude_globs"`

	// MaxPaths caps the number of entry-to-exit CFG paths enumerated per
	// function. Zero means "unbounded" is not allowed; use the default.
	MaxPaths int `yaml:"max_paths"`

	// Workers is the number of goroutines the analyzer uses for its
	// parallel phase. 1 forces sequential processing; <= 0 makes the
	// analyzer fall back to its default of 4.
	Workers int `yaml:"workers"`

	// OutputFormat selects the report serialization ("json" or "yaml").
	OutputFormat OutputFormat `yaml:"output_format"`

	// OutputPath is where the report is written. Empty means stdout.
	OutputPath string `yaml:"output_path"`

	// Quiet suppresses progress output.
	Quiet bool `yaml:"quiet"`

	// Verbose enables debug-level logging.
	Verbose bool `yaml:"verbose"`

	// NoColor disables ANSI color regardless of terminal detection.
	NoColor bool `yaml:"no_color"`

	// MetricsAddr, when non-empty, serves Prometheus metrics on this
	// address for the duration of the run (e.g. "localhost:9090").
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults, mirroring the
// exclude-glob set and worker defaults of the ingestion pipeline this
// project is descended from, adapted to a single-machine batch tool.
func DefaultConfig() Config {
	return Config{
		Roots: []string{"."},
		ExcludeGlobs: []string{
			".git/**",
			"node_modules/**", "vendor/**",
			"target/**", "**/target/**",
			".cairolens/**",
		},
		MaxPaths:     100,
		Workers:      4,
		OutputFormat: OutputFormatJSON,
		OutputPath:   "",
		Quiet:        false,
		Verbose:      false,
		NoColor:      false,
		MetricsAddr:  "",
	}
}

// Load reads an optional YAML config file at path and merges it over
// DefaultConfig: fields absent from the file keep their default value.
// A missing path is not an error -- Load simply returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var overrides rawConfig
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	overrides.mergeInto(&cfg)

	return cfg, nil
}

// rawConfig mirrors Config but with pointer/nil-able fields, so Load can
// tell "absent from the file" apart from "explicitly zero".
type rawConfig struct {
	Roots        []string      `yaml:"roots"`
	ExcludeGlobs []string      `yaml:"exclude_globs"`
	MaxPaths     *int          `yaml:"max_paths"`
	Workers      *int          `yaml:"workers"`
	OutputFormat *OutputFormat `yaml:"output_format"`
	OutputPath   *string       `yaml:"output_path"`
	Quiet        *bool         `yaml:"quiet"`
	Verbose      *bool         `yaml:"verbose"`
	NoColor      *bool         `yaml:"no_color"`
	MetricsAddr  *string       `yaml:"metrics_addr"`
}

func (r rawConfig) mergeInto(cfg *Config) {
	if len(r.Roots) > 0 {
		cfg.Roots = r.Roots
	}
	if len(r.ExcludeGlobs) > 0 {
		cfg.ExcludeGlobs = append(cfg.ExcludeGlobs, r.ExcludeGlobs...)
	}
	if r.MaxPaths != nil {
		cfg.MaxPaths = *r.MaxPaths
	}
	if r.Workers != nil {
		cfg.Workers = *r.Workers
	}
	if r.OutputFormat != nil {
		cfg.OutputFormat = *r.OutputFormat
	}
	if r.OutputPath != nil {
		cfg.OutputPath = *r.OutputPath
	}
	if r.Quiet != nil {
		cfg.Quiet = *r.Quiet
	}
	if r.Verbose != nil {
		cfg.Verbose = *r.Verbose
	}
	if r.NoColor != nil {
		cfg.NoColor = *r.NoColor
	}
	if r.MetricsAddr != nil {
		cfg.MetricsAddr = *r.MetricsAddr
	}
}
