// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analyzer is the façade that drives the full pipeline -- statement
// parsing, CFG construction, and dataflow analysis -- over every function
// of every linked contract, and aggregates the per-function results into a
// run summary. Orchestration style (worker-pool parallel analysis with a
// small-input sequential fallback, structured slog progress logging)
// follows pkg/ingestion's LocalPipeline.
package analyzer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/cairolens/pkg/cairoir"
	"github.com/kraklabs/cairolens/pkg/cfg"
	"github.com/kraklabs/cairolens/pkg/dataflow"
	"github.com/kraklabs/cairolens/pkg/statement"
)

// FunctionAnalysis is the full analysis output for one function.
type FunctionAnalysis struct {
	ContractName string
	FunctionName string
	Visibility   cairoir.Visibility
	Line         int

	Skipped    bool
	SkipReason string
	Error      string

	Graph             *cfg.Graph
	Paths             [][]int
	DefUseChains      []dataflow.DefUseChain
	StorageAccesses   []dataflow.StorageAccess
	ExternalCalls     []dataflow.ExternalCall
	UninitializedUses []dataflow.UninitializedUse
	UnusedDefinitions []dataflow.UnusedDefinition
}

// ContractAnalysis bundles a contract with the analysis of each of its
// functions.
type ContractAnalysis struct {
	Contract  *cairoir.Contract
	Skipped   bool
	Functions []FunctionAnalysis
}

// Summary aggregates counters across an entire analysis run.
type Summary struct {
	ContractsAnalyzed      int
	ContractsSkipped       int
	FunctionsAnalyzed      int
	FunctionsSkipped       int
	TotalStorageAccesses   int
	TotalExternalCalls     int
	TotalUninitializedUses int
	TotalUnusedDefinitions int
	TotalWarnings          int
	TotalErrors            int
	Duration               time.Duration
}

// Result is the complete output of an analysis run.
type Result struct {
	Contracts []ContractAnalysis
	Summary   Summary
}

// Analyzer runs the statement/CFG/dataflow pipeline over a batch of
// contracts.
type Analyzer struct {
	logger   *slog.Logger
	workers  int
	maxPaths int
}

// New returns an Analyzer. A nil logger falls back to slog.Default();
// workers <= 0 defaults to 4, mirroring the parse-worker default of
// pkg/ingestion's pipeline. maxPaths <= 0 defaults to 100, the same cap
// cfg.EnumeratePaths uses on its own when given 0.
func New(logger *slog.Logger, workers int) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Analyzer{logger: logger, workers: workers, maxPaths: 100}
}

// WithMaxPaths overrides the per-function CFG path enumeration cap.
func (a *Analyzer) WithMaxPaths(maxPaths int) *Analyzer {
	if maxPaths > 0 {
		a.maxPaths = maxPaths
	}
	return a
}

// Analyze runs the full pipeline over contracts and returns the aggregated
// result. Stub contracts (synthesized by the linker) are recorded but
// skipped entirely; within a real contract, a function with no parsed
// body is skipped with a reason rather than failing the run.
func (a *Analyzer) Analyze(contracts []*cairoir.Contract) *Result {
	start := time.Now()
	a.logger.Info("analyzer.run.start", "contracts", len(contracts))

	result := &Result{Contracts: make([]ContractAnalysis, 0, len(contracts))}

	for _, c := range contracts {
		if c.IsStub() {
			result.Contracts = append(result.Contracts, ContractAnalysis{Contract: c, Skipped: true})
			result.Summary.ContractsSkipped++
			continue
		}

		functions := a.analyzeFunctions(c)
		result.Contracts = append(result.Contracts, ContractAnalysis{Contract: c, Functions: functions})
		result.Summary.ContractsAnalyzed++

		for _, fn := range functions {
			if fn.Error != "" {
				result.Summary.TotalErrors++
			}
			if fn.Skipped {
				result.Summary.FunctionsSkipped++
				result.Summary.TotalWarnings++ // no_body
				continue
			}
			result.Summary.FunctionsAnalyzed++
			result.Summary.TotalStorageAccesses += len(fn.StorageAccesses)
			result.Summary.TotalExternalCalls += len(fn.ExternalCalls)
			result.Summary.TotalUninitializedUses += len(fn.UninitializedUses)
			result.Summary.TotalUnusedDefinitions += len(fn.UnusedDefinitions)
			result.Summary.TotalWarnings += len(fn.UninitializedUses) + len(fn.UnusedDefinitions)
			if fn.Graph != nil && len(fn.Graph.Nodes) <= 2 {
				result.Summary.TotalWarnings++ // no_statements
			}
		}
	}

	result.Summary.Duration = time.Since(start)
	a.logger.Info("analyzer.run.complete",
		"contracts_analyzed", result.Summary.ContractsAnalyzed,
		"contracts_skipped", result.Summary.ContractsSkipped,
		"functions_analyzed", result.Summary.FunctionsAnalyzed,
		"functions_skipped", result.Summary.FunctionsSkipped,
		"warnings", result.Summary.TotalWarnings,
		"errors", result.Summary.TotalErrors,
		"duration_ms", result.Summary.Duration.Milliseconds(),
	)

	return result
}

// analyzeFunctions dispatches a contract's functions to analyzeOneFunction,
// sequentially for small contracts and via a worker pool otherwise.
func (a *Analyzer) analyzeFunctions(c *cairoir.Contract) []FunctionAnalysis {
	if len(c.Functions) < 10 || a.workers <= 1 {
		out := make([]FunctionAnalysis, len(c.Functions))
		for i := range c.Functions {
			out[i] = a.analyzeOneFunction(c.Name, &c.Functions[i])
		}
		return out
	}

	out := make([]FunctionAnalysis, len(c.Functions))
	jobs := make(chan int, len(c.Functions))
	var wg sync.WaitGroup

	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = a.analyzeOneFunction(c.Name, &c.Functions[i])
			}
		}()
	}

	for i := range c.Functions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// analyzeOneFunction runs the parse -> CFG -> dataflow pipeline for a
// single function, recovering from any panic in the pipeline and reporting
// it as a per-function error rather than aborting the run.
func (a *Analyzer) analyzeOneFunction(contractName string, fn *cairoir.Function) (result FunctionAnalysis) {
	result = FunctionAnalysis{
		ContractName: contractName,
		FunctionName: fn.Name,
		Visibility:   fn.Visibility,
		Line:         fn.Line,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = "panic during analysis"
			a.logger.Error("analyzer.function.panic",
				"contract", contractName, "function", fn.Name, "recovered", r)
		}
	}()

	if fn.IsStub {
		result.Skipped = true
		result.SkipReason = "stub function"
		return result
	}
	if !fn.HasBody() {
		result.Skipped = true
		result.SkipReason = "no parsed body"
		return result
	}

	stmts := statement.Parse(fn.BodyText, fn.BodyStartLine)
	graph := cfg.NewBuilder().Build(fn.Name, stmts)
	flow := dataflow.New(graph)

	result.Graph = graph
	result.Paths = cfg.EnumeratePaths(graph, a.maxPaths)
	result.DefUseChains = flow.DefUseChains()
	result.StorageAccesses = flow.StorageAccesses()
	result.ExternalCalls = flow.ExternalCalls()
	result.UninitializedUses = flow.UninitializedUses()
	result.UnusedDefinitions = flow.UnusedDefinitions()

	return result
}
