// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kraklabs/cairolens/internal/metrics"
	"github.com/kraklabs/cairolens/internal/ui"
	"github.com/kraklabs/cairolens/pkg/analyzer"
	"github.com/kraklabs/cairolens/pkg/config"
	"github.com/kraklabs/cairolens/pkg/discovery"
	"github.com/kraklabs/cairolens/pkg/linker"
	"github.com/kraklabs/cairolens/pkg/report"
)

// runAnalyze discovers, links, and analyzes the Cairo sources under the
// given paths (or cfg.Roots when no paths are given on the command
// line), then writes the full report.
func runAnalyze(args []string, globals GlobalFlags) error {
	cfg, logger, reg, err := setupRun(globals)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Roots = args
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
	}

	start := time.Now()

	discoveryStart := time.Now()
	files, err := discovery.Discover(cfg.Roots, cfg.ExcludeGlobs)
	if err != nil {
		return fmt.Errorf("discovering Cairo sources: %w", err)
	}
	reg.ObservePhase("discover", time.Since(discoveryStart))
	reg.FilesDiscovered.Add(float64(len(files)))
	logger.Info("cairolens.discover.complete", "files", len(files))

	if len(files) == 0 {
		ui.Warnf("no .cairo files found under %v", cfg.Roots)
	}

	bar := ui.NewProgressBar(ui.ProgressConfig{Quiet: cfg.Quiet}, int64(len(files)), "Reading sources")
	inputs := make([]linker.FileInput, 0, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			reg.FilesSkipped.WithLabelValues("read_error").Inc()
			logger.Warn("cairolens.read.error", "file", f, "err", err)
			continue
		}
		inputs = append(inputs, linker.FileInput{Path: f, Src: string(src)})
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	linkStart := time.Now()
	l := linker.New()
	linkResult := l.LinkDirectories(inputs)
	reg.ObservePhase("link", time.Since(linkStart))
	reg.SymbolsRegistered.Add(float64(linkResult.Symbols.Len()))
	for _, c := range linkResult.Contracts {
		for _, imp := range c.Imports {
			if imp.Resolved {
				reg.ImportsResolved.Inc()
			} else if imp.StubCreated {
				reg.ImportsStubbed.Inc()
			}
		}
	}
	logger.Info("cairolens.link.complete",
		"contracts", len(linkResult.Contracts),
		"symbols", linkResult.Symbols.Len(),
		"stubs", len(linkResult.Stubs),
	)

	analyzeStart := time.Now()
	a := analyzer.New(logger, cfg.Workers).WithMaxPaths(cfg.MaxPaths)
	analysisResult := a.Analyze(linkResult.Contracts)
	reg.ObservePhase("analyze", time.Since(analyzeStart))
	reg.FunctionsAnalyzed.Add(float64(analysisResult.Summary.FunctionsAnalyzed))

	out := report.BuildResult(analysisResult)
	for _, car := range out.Contracts {
		for _, fn := range car.Functions {
			for _, w := range fn.Warnings {
				reg.WarningsEmitted.WithLabelValues(w.Type).Inc()
			}
			if fn.Error != "" {
				reg.ErrorsEmitted.Inc()
			}
		}
	}

	if err := writeReport(out, cfg, globals); err != nil {
		return err
	}

	if !globals.Quiet {
		ui.Successf("analyzed %d contract(s), %d function(s) in %s (%d stubbed import(s))",
			analysisResult.Summary.ContractsAnalyzed,
			analysisResult.Summary.FunctionsAnalyzed,
			time.Since(start).Round(time.Millisecond),
			out.Stubs.TotalStubs,
		)
	}

	return nil
}

// runStubs runs the same discover/link pipeline as runAnalyze but reports
// only the stub/resolution summary, skipping the statement/CFG/dataflow
// analysis phase entirely.
func runStubs(args []string, globals GlobalFlags) error {
	cfg, logger, reg, err := setupRun(globals)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Roots = args
	}

	files, err := discovery.Discover(cfg.Roots, cfg.ExcludeGlobs)
	if err != nil {
		return fmt.Errorf("discovering Cairo sources: %w", err)
	}
	reg.FilesDiscovered.Add(float64(len(files)))

	inputs := make([]linker.FileInput, 0, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			logger.Warn("cairolens.read.error", "file", f, "err", err)
			continue
		}
		inputs = append(inputs, linker.FileInput{Path: f, Src: string(src)})
	}

	l := linker.New()
	linkResult := l.LinkDirectories(inputs)
	out := buildStubOnlyResult(linkResult)

	return writeReport(out, cfg, globals)
}

func buildStubOnlyResult(linkResult *linker.Result) report.Result {
	fakeAnalysis := &analyzer.Result{}
	for _, c := range linkResult.Contracts {
		fakeAnalysis.Contracts = append(fakeAnalysis.Contracts, analyzer.ContractAnalysis{Contract: c, Skipped: true})
	}
	out := report.BuildResult(fakeAnalysis)
	out.Contracts = nil // the stubs subcommand reports only the stub summary
	return out
}

func writeReport(out report.Result, cfg config.Config, globals GlobalFlags) error {
	format := cfg.OutputFormat
	if globals.YAML {
		format = config.OutputFormatYAML
	} else if globals.JSON {
		format = config.OutputFormatJSON
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case config.OutputFormatYAML:
		data, err = report.ToYAML(out)
	default:
		data, err = report.ToJSON(out)
	}
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}

	path := cfg.OutputPath
	if globals.Output != "" {
		path = globals.Output
	}
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func setupRun(globals GlobalFlags) (config.Config, *slog.Logger, *metrics.Registry, error) {
	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if globals.Workers > 0 {
		cfg.Workers = globals.Workers
	}
	if globals.MaxPaths > 0 {
		cfg.MaxPaths = globals.MaxPaths
	}
	if globals.Quiet {
		cfg.Quiet = true
	}
	if globals.MetricsAddr != "" {
		cfg.MetricsAddr = globals.MetricsAddr
	}

	level := slog.LevelInfo
	if globals.Verbose {
		level = slog.LevelDebug
	}
	if globals.Quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return cfg, logger, metrics.New(), nil
}
