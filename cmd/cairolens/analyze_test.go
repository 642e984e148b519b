// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/cairolens/pkg/config"
	"github.com/kraklabs/cairolens/pkg/report"
)

func TestWriteReport_DefaultsToJSON(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.json")

	cfg := config.DefaultConfig()
	cfg.OutputPath = out
	if err := writeReport(report.Result{}, cfg, GlobalFlags{}); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		t.Errorf("expected JSON output, got %q", data)
	}
}

func TestWriteReport_GlobalYAMLFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.yaml")

	cfg := config.DefaultConfig()
	cfg.OutputFormat = config.OutputFormatJSON
	cfg.OutputPath = out
	globals := GlobalFlags{YAML: true}

	if err := writeReport(report.Result{}, cfg, globals); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		t.Errorf("expected YAML output after --yaml override, got %q", data)
	}
}

func TestWriteReport_GlobalOutputOverridesConfigPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "from-config.json")
	overridePath := filepath.Join(dir, "from-flag.json")

	cfg := config.DefaultConfig()
	cfg.OutputPath = cfgPath
	globals := GlobalFlags{Output: overridePath}

	if err := writeReport(report.Result{}, cfg, globals); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		t.Errorf("expected no file written at config path %q", cfgPath)
	}
	if _, err := os.Stat(overridePath); err != nil {
		t.Errorf("expected report written at override path %q: %v", overridePath, err)
	}
}
