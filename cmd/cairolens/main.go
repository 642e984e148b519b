// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the cairolens CLI: a source-level static
// analyzer for Cairo 0 and Cairo 1 smart contracts.
//
// Usage:
//
//	cairolens analyze <path...>   Discover, link, and analyze Cairo sources
//	cairolens stubs <path...>     Report only the stub/resolution summary
//	cairolens version             Print version information
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cairolens/internal/ui"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// GlobalFlags holds the flags shared across every subcommand.
type GlobalFlags struct {
	ConfigPath  string
	JSON        bool
	YAML        bool
	NoColor     bool
	Quiet       bool
	Verbose     bool
	Workers     int
	MaxPaths    int
	Output      string
	MetricsAddr string
}

func main() {
	var (
		configPath  = flag.StringP("config", "c", "", "Path to .cairolens.yaml (default: none)")
		jsonOutput  = flag.Bool("json", false, "Write the report as JSON (default)")
		yamlOutput  = flag.Bool("yaml", false, "Write the report as YAML")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress output")
		verbose     = flag.BoolP("verbose", "v", false, "Enable debug logging")
		workers     = flag.Int("workers", 0, "Parallel workers for analysis (0 = default)")
		maxPaths    = flag.Int("max-paths", 0, "Cap on enumerated CFG paths per function (0 = default)")
		output      = flag.StringP("output", "o", "", "Output file path (default: stdout)")
		metricsAddr = flag.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	)

	flag.SetInterspersed(false)
	flag.Usage = printUsage

	flag.Parse()

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	ui.InitColors(*noColor)

	if *jsonOutput && *yamlOutput {
		ui.Errorf("cannot use --json and --yaml together")
		os.Exit(1)
	}

	globals := GlobalFlags{
		ConfigPath:  *configPath,
		JSON:        *jsonOutput,
		YAML:        *yamlOutput,
		NoColor:     *noColor,
		Quiet:       *quiet,
		Verbose:     *verbose,
		Workers:     *workers,
		MaxPaths:    *maxPaths,
		Output:      *output,
		MetricsAddr: *metricsAddr,
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	var err error
	switch command {
	case "analyze":
		err = runAnalyze(cmdArgs, globals)
	case "stubs":
		err = runStubs(cmdArgs, globals)
	case "version":
		runVersion()
		return
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		ui.Errorf("%s", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `cairolens - static analysis for Cairo smart contracts

cairolens discovers, links, and analyzes Cairo 0 and Cairo 1 source
files without invoking a Cairo compiler: control flow graphs, def-use
chains, storage access, and unresolved-import stub reporting.

Usage:
  cairolens <command> [options] <path...>

Commands:
  analyze   Discover, link, and analyze Cairo sources under path(s)
  stubs     Report only the import resolution/stub summary
  version   Print version information

Options:
  -c, --config PATH       Path to .cairolens.yaml
      --json              Write the report as JSON (default)
      --yaml              Write the report as YAML
  -o, --output PATH       Output file path (default: stdout)
      --workers N         Parallel workers (0 = default)
      --max-paths N       Cap on CFG paths enumerated per function (0 = default)
      --no-color          Disable color output
  -q, --quiet             Suppress progress output
  -v, --verbose           Enable debug logging
      --metrics-addr ADDR HTTP listen address for Prometheus metrics

Examples:
  cairolens analyze ./src
  cairolens analyze --json -o report.json ./contracts
  cairolens stubs --yaml ./src

`)
}
