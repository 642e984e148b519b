// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPaths != 100 || cfg.Workers != 4 || cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "." {
		t.Errorf("expected default roots, got %+v", cfg.Roots)
	}
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cairolens.yaml")
	content := `
roots:
  - src
max_paths: 50
output_format: yaml
verbose: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "src" {
		t.Errorf("expected roots override, got %+v", cfg.Roots)
	}
	if cfg.MaxPaths != 50 {
		t.Errorf("expected max_paths override to 50, got %d", cfg.MaxPaths)
	}
	if cfg.OutputFormat != OutputFormatYAML {
		t.Errorf("expected output_format override to yaml, got %s", cfg.OutputFormat)
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose override to true")
	}
	// Workers was not set in the file, so the default should survive.
	if cfg.Workers != 4 {
		t.Errorf("expected default workers to survive merge, got %d", cfg.Workers)
	}
}

func TestLoad_ExcludeGlobsAppendToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cairolens.yaml")
	if err := os.WriteFile(path, []byte("exclude_globs:\n  - \"**/generated/**\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	found := false
	for _, g := range cfg.ExcludeGlobs {
		if g == "**/generated/**" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected custom glob to be present, got %v", cfg.ExcludeGlobs)
	}
	if len(cfg.ExcludeGlobs) <= 1 {
		t.Errorf("expected custom glob to be appended to, not replace, the defaults, got %v", cfg.ExcludeGlobs)
	}
}
